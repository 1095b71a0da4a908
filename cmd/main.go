package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/alecthomas/kong"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/jaxxstorm/monover"
	logger "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Version will be set by build process
var Version = "dev"

type CLI struct {
	Project       string `arg:"" optional:"" help:"Project to resolve (default: treat the repository as a single project)"`
	Repo          string `short:"r" help:"Repository path (default: current directory)"`
	Config        string `short:"c" help:"Run configuration file (defaults, projects, policy)"`
	Commitish     string `help:"Git commitish to analyze (default: HEAD)"`
	Branch        string `help:"Branch name override (e.g. in detached CI checkouts)"`
	All           bool   `short:"a" help:"Resolve every project from the run configuration"`
	Language      string `short:"l" default:"generic" enum:"generic,semver,python,javascript,js,node,dotnet,csharp,go,golang" help:"Output rendition"`
	ForceVersion  string `help:"Skip computation and use this literal version"`
	MajorApproved bool   `help:"Acknowledge a major bump when constraints require approval"`
	JSON          bool   `short:"j" help:"Output as JSON"`
	Verbose       bool   `short:"v" help:"Enable debug logging"`
	ShowVersion   bool   `help:"Show version information" name:"version"`
}

// runFile is the on-disk shape of a multi-project run configuration. The
// core engine never reads files; this loader merges the layers for it.
type runFile struct {
	Defaults monover.Config        `yaml:"defaults"`
	Projects []monover.ProjectSpec `yaml:"projects"`
	Policy   monover.PolicyConfig  `yaml:"policy"`
}

func main() {
	var cli CLI

	kong.Parse(&cli,
		kong.Name("monover"),
		kong.Description("Compute deterministic versions for the projects in a Git repository"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": Version,
		},
	)

	if cli.Verbose {
		logger.SetLevel(logger.DebugLevel)
	}

	if err := cli.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func (c *CLI) Run() error {
	if c.ShowVersion {
		return c.showVersion()
	}

	repoPath := c.Repo
	if repoPath == "" {
		var err error
		repoPath, err = os.Getwd()
		if err != nil {
			return fmt.Errorf("getting current directory: %w", err)
		}
	}

	var run runFile
	if c.Config != "" {
		loaded, err := loadRunFile(c.Config)
		if err != nil {
			return err
		}
		run = *loaded
	}

	repo, err := monover.OpenRepository(repoPath)
	if err != nil {
		// Not a repository at all: fall back to a dev version instead of
		// failing the build that asked for one.
		logger.Warnf("no repository at %s, using fallback version", repoPath)
		return c.printVersions(monover.FallbackVersions())
	}

	if c.All {
		return c.resolveAll(repo, run)
	}
	return c.resolveOne(repo, run)
}

func (c *CLI) resolveOne(repo *git.Repository, run runFile) error {
	spec := specFor(run.Projects, c.Project)

	result, err := monover.Resolve(monover.Request{
		Repository:    repo,
		Project:       c.Project,
		Commitish:     plumbing.Revision(c.Commitish),
		Branch:        c.Branch,
		Dependencies:  spec.Dependencies,
		Config:        mergedConfig(run.Defaults, spec.Config),
		ForceVersion:  firstNonEmpty(c.ForceVersion, spec.ForceVersion),
		MajorApproved: c.MajorApproved,
	})
	if err != nil {
		return err
	}

	if c.JSON {
		return json.NewEncoder(os.Stdout).Encode(result)
	}
	return c.printVersions(monover.LanguageRenditions(result))
}

func (c *CLI) resolveAll(repo *git.Repository, run runFile) error {
	if len(run.Projects) == 0 {
		return fmt.Errorf("--all requires a run configuration with projects (see --config)")
	}

	outcome, err := monover.ResolveAll(context.Background(), monover.RunRequest{
		Repository:    repo,
		Commitish:     plumbing.Revision(c.Commitish),
		Branch:        c.Branch,
		Projects:      run.Projects,
		Defaults:      run.Defaults,
		Policy:        run.Policy,
		MajorApproved: c.MajorApproved,
	})
	if err != nil {
		return err
	}

	for project, perr := range outcome.Errors {
		logger.Errorf("project %s failed: %v", project, perr)
	}

	if c.JSON {
		return json.NewEncoder(os.Stdout).Encode(outcome.Results)
	}

	names := make([]string, 0, len(outcome.Results))
	for name := range outcome.Results {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		result := outcome.Results[name]
		rendition := monover.RenditionFor(monover.LanguageRenditions(result), c.Language)
		fmt.Printf("%s\t%s\n", name, rendition)
	}

	if len(outcome.Errors) > 0 {
		return fmt.Errorf("%d project(s) failed to resolve", len(outcome.Errors))
	}
	return nil
}

func (c *CLI) showVersion() error {
	versionInfo := map[string]string{
		"version": Version,
		"name":    "monover",
	}

	if c.JSON {
		return json.NewEncoder(os.Stdout).Encode(versionInfo)
	}

	fmt.Printf("monover version %s\n", Version)
	return nil
}

func (c *CLI) printVersions(versions *monover.LanguageVersions) error {
	if c.JSON {
		return json.NewEncoder(os.Stdout).Encode(versions)
	}
	fmt.Println(monover.RenditionFor(versions, c.Language))
	return nil
}

// loadRunFile reads and parses a run configuration file.
func loadRunFile(path string) (*runFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %q: %w", path, err)
	}

	var run runFile
	if err := yaml.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("parsing config file %q: %w", path, err)
	}
	return &run, nil
}

// specFor finds the project's spec in the run configuration, or a zero spec
// when the project is not listed.
func specFor(specs []monover.ProjectSpec, project string) monover.ProjectSpec {
	for _, s := range specs {
		if s.Name == project {
			return s
		}
	}
	return monover.ProjectSpec{Name: project}
}

// mergedConfig folds a project's layer over the run defaults; a merge error
// here means an impossible struct, so it only surfaces in tests.
func mergedConfig(defaults, project monover.Config) monover.Config {
	merged, err := monover.MergeConfig(defaults, project)
	if err != nil {
		logger.Warnf("merging configuration: %v", err)
		return defaults
	}
	return merged
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

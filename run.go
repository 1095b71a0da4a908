package monover

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/blang/semver"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"golang.org/x/sync/errgroup"
)

// ProjectSpec describes one project in a multi-project run.
type ProjectSpec struct {
	Name string `yaml:"name"`

	// Dir is the project's directory; defaults to the name.
	Dir string `yaml:"dir"`

	// Dependencies are the names of projects this one depends on.
	Dependencies []string `yaml:"dependencies"`

	// Config layers on top of the run's shared defaults.
	Config Config `yaml:"config"`

	// ForceVersion short-circuits this project's computation.
	ForceVersion string `yaml:"forceVersion"`
}

// RunRequest resolves many projects against one repository state.
type RunRequest struct {
	Repository *git.Repository
	History    GitHistory

	Commitish plumbing.Revision
	Branch    string

	Projects []ProjectSpec

	// Defaults is the shared configuration layer under every project's own.
	Defaults Config

	// Policy coordinates versions across the run's projects.
	Policy PolicyConfig

	MajorApproved bool
	Now           time.Time

	// Workers bounds concurrent project resolutions (default GOMAXPROCS).
	Workers int
}

// RunResult reports a multi-project run. A project appears in exactly one of
// the two maps: one project's failure never aborts its siblings.
type RunResult struct {
	Results map[string]*VersionResult
	Errors  map[string]error
}

// ResolveAll resolves every project in the request concurrently, applies the
// version policy across the results and validates each against its own
// constraints. Only repository discovery and malformed policy configuration
// are fatal; everything else is isolated per project.
func ResolveAll(ctx context.Context, req RunRequest) (*RunResult, error) {
	history := req.History
	if history == nil {
		if req.Repository == nil {
			return nil, fmt.Errorf("%w: no repository or history supplied", ErrRepositoryNotFound)
		}
		history = NewCachedHistory(NewGitHistory(req.Repository))
	}

	coordinator, err := NewPolicyCoordinator(req.Policy)
	if err != nil {
		return nil, err
	}

	graph := NewDependencyGraph()
	for _, p := range req.Projects {
		graph.AddProject(p.Name, p.Dir)
	}
	for _, p := range req.Projects {
		for _, dep := range p.Dependencies {
			graph.AddDependency(p.Name, dep)
		}
	}

	resolver := NewResolver(history)

	workers := req.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	run := &RunResult{
		Results: map[string]*VersionResult{},
		Errors:  map[string]error{},
	}
	previousByProject := map[string]*semver.Version{}
	configByProject := map[string]Config{}

	var mu sync.Mutex
	group, _ := errgroup.WithContext(ctx)
	group.SetLimit(workers)

	for _, p := range req.Projects {
		project := p
		group.Go(func() (err error) {
			defer func() {
				if recovered := recover(); recovered != nil {
					mu.Lock()
					run.Errors[project.Name] = &ProjectError{
						Project: project.Name,
						Err:     fmt.Errorf("panic: %v", recovered),
					}
					mu.Unlock()
				}
			}()

			cfg, mergeErr := MergeConfig(req.Defaults, project.Config)
			if mergeErr != nil {
				mu.Lock()
				run.Errors[project.Name] = &ProjectError{Project: project.Name, Err: mergeErr}
				mu.Unlock()
				return nil
			}
			if cfg.ProjectDir == "" {
				cfg.ProjectDir = graph.Dir(project.Name)
			}

			result, previous, resolveErr := resolver.resolveProject(Request{
				History:       history,
				Project:       project.Name,
				Commitish:     req.Commitish,
				Branch:        req.Branch,
				Graph:         graph,
				Config:        cfg,
				ForceVersion:  project.ForceVersion,
				MajorApproved: req.MajorApproved,
				Now:           req.Now,
			})

			mu.Lock()
			defer mu.Unlock()
			if resolveErr != nil {
				run.Errors[project.Name] = &ProjectError{Project: project.Name, Err: resolveErr}
				return nil
			}
			run.Results[project.Name] = result
			previousByProject[project.Name] = previous
			configByProject[project.Name] = cfg
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	// Policy coordination; conflicting group membership is fatal for the
	// affected projects only.
	for project, policyErr := range coordinator.Apply(run.Results) {
		run.Errors[project] = &ProjectError{Project: project, Err: policyErr}
		delete(run.Results, project)
	}

	for project, result := range run.Results {
		validator, verr := NewConstraintValidator(configByProject[project].Constraints)
		if verr != nil {
			run.Errors[project] = &ProjectError{Project: project, Err: verr}
			delete(run.Results, project)
			continue
		}
		validation := validator.Validate(result.Version, previousByProject[project], result.Bump, req.MajorApproved)
		if result.Validation != nil {
			validation.Warnings = append(result.Validation.Warnings, validation.Warnings...)
		}
		result.Validation = &validation
	}

	return run, nil
}

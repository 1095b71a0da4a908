package monover

import (
	"fmt"
	"sort"

	"github.com/blang/semver"
	"github.com/gobwas/glob"
)

// Policy strategy names.
const (
	PolicyIndependent = "independent"
	PolicyLockStep    = "lockstep"
	PolicyGrouped     = "grouped"
)

// PolicyCoordinator enforces version sharing across projects. Independent is
// a no-op; lockstep treats every project as one implicit group; grouped
// matches projects into the configured groups by exact name or wildcard.
type PolicyCoordinator struct {
	strategy string
	groups   []compiledGroup
}

type compiledGroup struct {
	group    VersionGroup
	matchers []glob.Glob
	base     *semver.Version
}

// NewPolicyCoordinator validates and compiles the policy configuration.
func NewPolicyCoordinator(cfg PolicyConfig) (*PolicyCoordinator, error) {
	strategy := cfg.Strategy
	if strategy == "" {
		strategy = PolicyIndependent
	}
	switch strategy {
	case PolicyIndependent, PolicyLockStep, PolicyGrouped:
	default:
		return nil, fmt.Errorf("unknown policy strategy %q", cfg.Strategy)
	}

	pc := &PolicyCoordinator{strategy: strategy}
	for _, g := range cfg.Groups {
		cg := compiledGroup{group: g}
		for _, pattern := range g.Projects {
			m, err := glob.Compile(pattern)
			if err != nil {
				return nil, fmt.Errorf("compiling group %q pattern %q: %w", g.Name, pattern, err)
			}
			cg.matchers = append(cg.matchers, m)
		}
		if g.BaseVersion != "" {
			base, err := ParseVersion(g.BaseVersion)
			if err != nil {
				return nil, fmt.Errorf("group %q base version: %w", g.Name, err)
			}
			cg.base = &base
		}
		pc.groups = append(pc.groups, cg)
	}
	return pc, nil
}

// GroupFor finds the single group a project belongs to. Matching more than
// one group is a configuration conflict surfaced to the caller; matching
// none returns nil.
func (pc *PolicyCoordinator) GroupFor(project string) (*VersionGroup, error) {
	var found *VersionGroup
	for i := range pc.groups {
		cg := &pc.groups[i]
		for _, m := range cg.matchers {
			if m.Match(project) {
				if found != nil {
					return nil, fmt.Errorf("%w: project %q matches groups %q and %q",
						ErrGroupConflict, project, found.Name, cg.group.Name)
				}
				found = &cg.group
				break
			}
		}
	}
	return found, nil
}

// Apply coordinates the results of one multi-project run in place. Every
// member of a group ends up with the maximum version computed across the
// group (or the group's base version when that is higher), and records its
// siblings. Conflicting membership is returned per project without touching
// the other groups.
func (pc *PolicyCoordinator) Apply(results map[string]*VersionResult) map[string]error {
	failures := map[string]error{}
	if pc.strategy == PolicyIndependent || len(results) == 0 {
		return failures
	}

	members := map[string][]string{}
	bases := map[string]*semver.Version{}

	switch pc.strategy {
	case PolicyLockStep:
		for project := range results {
			members["lockstep"] = append(members["lockstep"], project)
		}
	case PolicyGrouped:
		for project := range results {
			g, err := pc.GroupFor(project)
			if err != nil {
				failures[project] = err
				continue
			}
			if g == nil {
				continue
			}
			members[g.Name] = append(members[g.Name], project)
		}
		for i := range pc.groups {
			bases[pc.groups[i].group.Name] = pc.groups[i].base
		}
	}

	for name, projects := range members {
		sort.Strings(projects)

		winner := results[projects[0]]
		for _, p := range projects[1:] {
			if results[p].Version.GT(winner.Version) {
				winner = results[p]
			}
		}

		version := winner.Version
		versionString := winner.VersionString
		if base := bases[name]; base != nil && base.GT(version) {
			version = *base
			versionString = base.String()
		}

		for _, p := range projects {
			r := results[p]
			if !r.Version.EQ(version) {
				r.Changed = true
				r.Reason = fmt.Sprintf("version %s shared by group %q", versionString, name)
			}
			r.Version = version
			r.VersionString = versionString
			r.Group = name
			r.GroupMembers = projects
		}
	}

	return failures
}

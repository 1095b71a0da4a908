// Package monover computes deterministic, reproducible version numbers for
// one or many projects living in a single Git repository. Versions are
// derived from tag history, branch context, conventional-commit messages,
// file-pattern change signals and dependency-graph propagation, under either
// a SemVer or a CalVer scheme.
package monover

import (
	"time"

	"github.com/blang/semver"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// BumpType is the level of version increment demanded by change evidence.
type BumpType int

const (
	BumpNone BumpType = iota
	BumpPatch
	BumpMinor
	BumpMajor
)

func (b BumpType) String() string {
	switch b {
	case BumpMajor:
		return "major"
	case BumpMinor:
		return "minor"
	case BumpPatch:
		return "patch"
	default:
		return "none"
	}
}

// maxBump returns the stronger of two bump levels.
func maxBump(a, b BumpType) BumpType {
	if a > b {
		return a
	}
	return b
}

// BranchType classifies a branch name into one of the four policy families.
type BranchType int

const (
	BranchFeature BranchType = iota
	BranchMain
	BranchDev
	BranchRelease
)

func (t BranchType) String() string {
	switch t {
	case BranchMain:
		return "main"
	case BranchDev:
		return "dev"
	case BranchRelease:
		return "release"
	default:
		return "feature"
	}
}

// BranchContext is the classified branch a resolution runs against.
type BranchContext struct {
	Type       BranchType
	Name       string
	Normalized string
}

// Scheme selects how the major.minor.patch triple is derived.
type Scheme string

const (
	SchemeSemVer Scheme = "semver"
	SchemeCalVer Scheme = "calver"
)

// TagScope distinguishes repository-wide tags from per-project tags.
type TagScope int

const (
	ScopeGlobal TagScope = iota
	ScopeProject
)

// Tag is a version tag that parsed cleanly. Malformed tag names never become
// a Tag; they are skipped during enumeration.
type Tag struct {
	Name    string
	Hash    plumbing.Hash
	Version semver.Version
	Scope   TagScope
	Project string // set when Scope == ScopeProject
}

// TagRef is a raw tag reference as enumerated from the repository, before
// any version parsing or scoping.
type TagRef struct {
	Name string
	Hash plumbing.Hash
}

// Commit is the subset of commit data the classifiers need. Files holds the
// paths the commit touched, so monorepo projects only weigh the commits that
// actually concern them.
type Commit struct {
	Hash    plumbing.Hash
	Message string
	When    time.Time
	Files   []string
}

// ChangeEvidence aggregates every change signal gathered for one project
// between its base tag and the branch tip.
type ChangeEvidence struct {
	FromCommits       BumpType
	FromFilePatterns  BumpType
	Ignored           bool
	ChangedFiles      []string
	MatchedDependency string // dependency project that changed, if any
}

// Bump is the merged verdict: the highest signal always wins.
func (e ChangeEvidence) Bump() BumpType {
	b := maxBump(e.FromCommits, e.FromFilePatterns)
	if b == BumpNone && e.MatchedDependency != "" {
		// Propagation alone never raises the level beyond patch.
		b = BumpPatch
	}
	return b
}

// Changed reports whether any evidence exists. An ignore-only file set
// contributes nothing, but commit evidence still counts on its own.
func (e ChangeEvidence) Changed() bool {
	return e.Bump() != BumpNone
}

// ValidationResult carries the outcome of constraint checking. Validation
// never blocks computation; callers decide what a failure means.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// VersionResult is the final outcome of resolving one project.
type VersionResult struct {
	Project       string            `json:"project,omitempty"`
	Version       semver.Version    `json:"-"`
	VersionString string            `json:"version"`
	Changed       bool              `json:"changed"`
	Reason        string            `json:"reason"`
	Bump          BumpType          `json:"-"`
	BumpString    string            `json:"bump"`
	BranchType    BranchType        `json:"-"`
	Branch        string            `json:"branch"`
	CommitHeight  int               `json:"commitHeight"`
	Scheme        Scheme            `json:"scheme"`
	Group         string            `json:"group,omitempty"`
	GroupMembers  []string          `json:"groupMembers,omitempty"`
	Dirty         bool              `json:"dirty,omitempty"`
	Validation    *ValidationResult `json:"validation,omitempty"`
}

// Request describes one project resolution. Repository (or History) and
// Config are required; everything else has workable defaults.
type Request struct {
	// Repository is the Git repository to analyze.
	Repository *git.Repository

	// History overrides the Git access layer, mainly for callers that
	// already hold a cached handle. When nil one is built from Repository.
	History GitHistory

	// Project is the project identifier inside the monorepo. Empty means a
	// single-project repository: only global tags apply and every changed
	// file counts.
	Project string

	// Commitish selects the tip to analyze (default "HEAD").
	Commitish plumbing.Revision

	// Branch overrides branch detection; default is the checked-out branch.
	Branch string

	// Dependencies are direct project-to-project references, shorthand for
	// an edge Project->name. Ignored when Graph is supplied.
	Dependencies []string

	// Graph supplies the full project reference graph for transitive
	// propagation. Optional; Dependencies alone covers the direct case.
	// A supplied graph is treated as read-only, so one graph can back
	// concurrent resolutions.
	Graph *DependencyGraph

	// Config is the fully merged configuration (see MergeConfig).
	Config Config

	// ForceVersion short-circuits computation and returns this literal
	// version; Changed is still derived by comparison to the base tag.
	ForceVersion string

	// MajorApproved acknowledges a major bump when the constraints demand
	// explicit approval.
	MajorApproved bool

	// Now fixes the clock for CalVer computation. Zero means time.Now.
	Now time.Time
}

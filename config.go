package monover

import (
	"fmt"

	"dario.cat/mergo"
)

// FeatureStrategy picks how feature branches derive their version.
type FeatureStrategy string

const (
	// FeaturePatchHeight bumps the patch level and appends the sanitized
	// branch name plus the commit height since the base tag.
	FeaturePatchHeight FeatureStrategy = "patch-height"

	// FeatureMinorLabel bumps the minor level and appends only the sanitized
	// branch name.
	FeatureMinorLabel FeatureStrategy = "minor-label"
)

// Config is the fully merged configuration one resolution consumes. The core
// never reads config files; callers assemble partial layers (defaults, global
// file, project file, CLI flags) and fold them with MergeConfig.
type Config struct {
	// TagPrefix prefixes the version component of every tag (default "v").
	TagPrefix string `yaml:"tagPrefix"`

	// BaseVersion is used when no tag exists (default "0.1.0").
	BaseVersion string `yaml:"baseVersion"`

	// Scheme selects SemVer or CalVer computation.
	Scheme Scheme `yaml:"scheme"`

	// PrereleaseType optionally labels main/dev builds: alpha, beta or rc.
	PrereleaseType string `yaml:"prereleaseType"`

	// FeatureStrategy resolves the feature-branch bump question; see the
	// FeatureStrategy constants.
	FeatureStrategy FeatureStrategy `yaml:"featureStrategy"`

	// ProjectDir is the directory holding the project's files. Defaults to
	// the project name. Ignored for single-project repositories.
	ProjectDir string `yaml:"projectDir"`

	// MonitorPaths are additional path prefixes whose changes count as
	// change evidence for this project.
	MonitorPaths []string `yaml:"monitorPaths"`

	// MarkDirty appends a "dirty" marker when the worktree has uncommitted
	// changes.
	MarkDirty bool `yaml:"markDirty"`

	CalVer      CalVerConfig `yaml:"calver"`
	Commits     CommitConfig `yaml:"commits"`
	Files       FileConfig   `yaml:"files"`
	Policy      PolicyConfig `yaml:"policy"`
	Constraints Constraints  `yaml:"constraints"`
}

// CalVerConfig configures date-based version computation.
type CalVerConfig struct {
	// Format is one of YYYY.MM.PATCH, YY.0M.PATCH, YYYY.WW.PATCH,
	// YYYY.0M.PATCH.
	Format string `yaml:"format"`

	// ResetPatchPeriodically resets patch to 0 when the period changes
	// (default true). When false the patch counter keeps incrementing
	// across periods.
	ResetPatchPeriodically *bool `yaml:"resetPatchPeriodically"`
}

// ResetPatch reports the effective reset behavior.
func (c CalVerConfig) ResetPatch() bool {
	return c.ResetPatchPeriodically == nil || *c.ResetPatchPeriodically
}

// CommitConfig holds the conventional-commit prefix lists. A marker matches
// when the commit header starts with it.
type CommitConfig struct {
	Major  []string `yaml:"major"`
	Minor  []string `yaml:"minor"`
	Patch  []string `yaml:"patch"`
	Ignore []string `yaml:"ignore"`
}

// FileConfig holds the glob buckets for file-pattern change classification.
type FileConfig struct {
	Ignore []string `yaml:"ignore"`
	Major  []string `yaml:"major"`
	Minor  []string `yaml:"minor"`
	Patch  []string `yaml:"patch"`

	// DefaultBump is applied to files matching no bucket (default "patch").
	// Set to "none" to suppress unmatched files entirely.
	DefaultBump string `yaml:"defaultBump"`
}

// PolicyConfig coordinates versions across projects.
type PolicyConfig struct {
	// Strategy is independent (default), lockstep or grouped.
	Strategy string `yaml:"strategy"`

	// Groups define grouped members; with the lockstep strategy a single
	// implicit group spans every project.
	Groups []VersionGroup `yaml:"groups"`
}

// VersionGroup names a set of projects sharing one version.
type VersionGroup struct {
	Name string `yaml:"name"`

	// Projects are exact names or wildcard patterns ("svc-*").
	Projects []string `yaml:"projects"`

	// BaseVersion, when set and higher than every member's computed version,
	// becomes the group version.
	BaseVersion string `yaml:"baseVersion"`
}

// Constraints bound the acceptable resolved version. Every check runs and
// accumulates errors; see ConstraintValidator.
type Constraints struct {
	MinimumVersion           string   `yaml:"minimumVersion"`
	MaximumVersion           string   `yaml:"maximumVersion"`
	AllowedRange             string   `yaml:"allowedRange"` // wildcard, e.g. "3.x.x"
	BlockedVersions          []string `yaml:"blockedVersions"`
	RequireMonotonicIncrease bool     `yaml:"requireMonotonicIncrease"`
	RequireMajorApproval     bool     `yaml:"requireMajorApproval"`
}

// DefaultConfig returns the lowest-precedence configuration layer.
func DefaultConfig() Config {
	return Config{
		TagPrefix:       "v",
		BaseVersion:     "0.1.0",
		Scheme:          SchemeSemVer,
		FeatureStrategy: FeaturePatchHeight,
		CalVer: CalVerConfig{
			Format: "YYYY.MM.PATCH",
		},
		Commits: CommitConfig{
			Major:  []string{"BREAKING CHANGE:"},
			Minor:  []string{"feat:", "feature:"},
			Patch:  []string{"fix:", "bugfix:", "perf:", "refactor:"},
			Ignore: []string{"chore:", "docs:", "style:", "test:", "ci:"},
		},
		Files: FileConfig{
			DefaultBump: "patch",
		},
	}
}

// MergeConfig folds partial configuration layers over the defaults, lowest
// precedence first. Zero-valued fields in a layer leave the lower layers
// untouched; non-empty fields replace them wholesale (pattern lists are
// replaced, not appended).
func MergeConfig(layers ...Config) (Config, error) {
	merged := DefaultConfig()
	for i, layer := range layers {
		if err := mergo.Merge(&merged, layer, mergo.WithOverride); err != nil {
			return Config{}, fmt.Errorf("merging config layer %d: %w", i, err)
		}
	}
	return merged, nil
}

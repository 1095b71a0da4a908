package monover

import (
	"fmt"
	"strings"

	"github.com/blang/semver"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/sirupsen/logrus"
)

// Resolver orchestrates one or many project resolutions against a single
// repository history. It holds no per-resolution state, so one Resolver can
// serve concurrent Resolve calls as long as its GitHistory can.
type Resolver struct {
	history GitHistory
	log     *logrus.Logger
}

// ResolverOption customizes a Resolver.
type ResolverOption func(*Resolver)

// WithLogger routes the resolver's diagnostics (skipped tags, shallow-clone
// warnings, per-project failures) to the given logger.
func WithLogger(log *logrus.Logger) ResolverOption {
	return func(r *Resolver) {
		r.log = log
	}
}

// NewResolver builds a resolver over the given history. Wrap the history in
// NewCachedHistory when resolving many projects in one run.
func NewResolver(history GitHistory, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		history: history,
		log:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve computes the version for a single request, end to end: base tag,
// branch policy, change evidence, scheme computation and constraint
// validation. Policy coordination across projects happens in ResolveAll.
func Resolve(req Request) (*VersionResult, error) {
	history := req.History
	if history == nil {
		if req.Repository == nil {
			return nil, fmt.Errorf("%w: no repository or history supplied", ErrRepositoryNotFound)
		}
		history = NewCachedHistory(NewGitHistory(req.Repository))
	}
	return NewResolver(history).Resolve(req)
}

// Resolve computes the version for one project, including validation.
func (r *Resolver) Resolve(req Request) (*VersionResult, error) {
	result, previous, err := r.resolveProject(req)
	if err != nil {
		return nil, err
	}

	validator, err := NewConstraintValidator(req.Config.Constraints)
	if err != nil {
		return nil, fmt.Errorf("constraints configuration: %w", err)
	}
	validation := validator.Validate(result.Version, previous, result.Bump, req.MajorApproved)
	if result.Validation != nil {
		validation.Warnings = append(result.Validation.Warnings, validation.Warnings...)
	}
	result.Validation = &validation

	return result, nil
}

// resolveProject runs the pipeline up to (but excluding) validation and
// policy coordination. It returns the base tag's version for the monotonic
// constraint check, nil when no tag existed.
func (r *Resolver) resolveProject(req Request) (*VersionResult, *semver.Version, error) {
	cfg, err := MergeConfig(req.Config)
	if err != nil {
		return nil, nil, err
	}

	baseVersion, err := ParseVersion(cfg.BaseVersion)
	if err != nil {
		return nil, nil, fmt.Errorf("baseVersion: %w", err)
	}

	result := &VersionResult{
		Project:    req.Project,
		Scheme:     cfg.Scheme,
		BumpString: BumpNone.String(),
	}

	branchName, tip, err := r.history.Head(req.Commitish)
	if req.Branch != "" {
		branchName = req.Branch
	}
	branch := ClassifyBranch(branchName)
	result.Branch = branchName
	result.BranchType = branch.Type

	if err != nil {
		if err == ErrEmptyHistory {
			// No commits yet: no base tag, no evidence. Report the configured
			// base version unchanged.
			result.Version = baseVersion
			result.VersionString = baseVersion.String()
			result.Reason = "repository has no commits"
			return result, nil, nil
		}
		return nil, nil, err
	}

	// A caller-supplied graph is shared by concurrent resolutions and must
	// stay read-only here; req.Dependencies only feeds a locally built one.
	graph := req.Graph
	if graph == nil {
		graph = NewDependencyGraph()
		if req.Project != "" {
			graph.AddProject(req.Project, cfg.ProjectDir)
			for _, dep := range req.Dependencies {
				graph.AddDependency(req.Project, dep)
			}
		}
	}

	tags, err := r.collectTags(cfg.TagPrefix)
	if err != nil {
		return nil, nil, err
	}

	baseTag, haveBase, err := r.baseTagFor(tags, req.Project, tip)
	if err != nil {
		return nil, nil, err
	}

	var warnings []string
	if !haveBase {
		if shallow, serr := r.history.IsShallow(); serr == nil && shallow {
			w := fmt.Sprintf("shallow clone: no base tag within truncated history, falling back to %s", cfg.BaseVersion)
			warnings = append(warnings, w)
			r.log.Warn(w)
		}
	}

	var previous *semver.Version
	base := baseVersion
	baseHash := plumbing.ZeroHash
	baseName := ""
	if haveBase {
		v := baseTag.Version
		previous = &v
		base = baseTag.Version
		baseHash = baseTag.Hash
		baseName = baseTag.Name
	}

	height, err := r.history.CommitHeight(baseHash, tip)
	if err != nil {
		return nil, nil, err
	}
	result.CommitHeight = height
	if len(warnings) > 0 {
		result.Validation = &ValidationResult{Valid: true, Warnings: warnings}
	}

	// Force override short-circuits everything after base-tag lookup.
	if req.ForceVersion != "" {
		forced, err := ParseVersion(req.ForceVersion)
		if err != nil {
			return nil, nil, fmt.Errorf("forceVersion: %w", err)
		}
		result.Version = forced
		result.VersionString = forced.String()
		result.Changed = previous == nil || !forced.EQ(*previous)
		result.Reason = fmt.Sprintf("forced to %s", forced)
		return result, previous, nil
	}

	evidence, err := r.gatherEvidence(req, cfg, graph, tags, baseHash, tip)
	if err != nil {
		return nil, nil, err
	}

	if !evidence.Changed() {
		result.Version = base
		result.VersionString = base.String()
		if baseName != "" {
			result.Reason = fmt.Sprintf("no changes since %s", baseName)
		} else {
			result.Reason = "no tags and no change evidence"
		}
		return result, previous, nil
	}

	result.Changed = true
	result.Bump = evidence.Bump()
	result.BumpString = result.Bump.String()
	result.Reason = describeEvidence(evidence)

	version, rendered, err := r.computeVersion(cfg, branch, evidence, base, haveBase, baseVersion, height, req)
	if err != nil {
		return nil, nil, err
	}

	if cfg.MarkDirty {
		if dirty, derr := r.history.IsDirty(); derr == nil && dirty {
			version.Build = append(version.Build, "dirty")
			rendered += "+dirty"
			result.Dirty = true
		}
	}

	result.Version = version
	result.VersionString = rendered
	return result, previous, nil
}

// collectTags enumerates and parses every tag, skipping malformed names.
func (r *Resolver) collectTags(tagPrefix string) ([]Tag, error) {
	refs, err := r.history.ListTags()
	if err != nil {
		return nil, err
	}

	var tags []Tag
	for _, ref := range refs {
		tag, ok := parseTag(ref, tagPrefix)
		if !ok {
			r.log.Debugf("skipping tag %q: no parseable version", ref.Name)
			continue
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

// baseTagFor picks the project's base tag among ancestry-valid candidates.
func (r *Resolver) baseTagFor(tags []Tag, project string, tip plumbing.Hash) (Tag, bool, error) {
	var reachable []Tag
	for _, t := range candidateTags(tags, project) {
		ok, err := r.history.IsAncestor(t.Hash, tip)
		if err != nil {
			// A tag pointing at an unreachable or missing object is skipped,
			// never fatal.
			r.log.Debugf("skipping tag %q: ancestry check failed: %v", t.Name, err)
			continue
		}
		if ok {
			reachable = append(reachable, t)
		}
	}
	tag, found := selectBaseTag(reachable)
	return tag, found, nil
}

// gatherEvidence merges commit classification, file-pattern classification
// and transitive dependency propagation for one project.
func (r *Resolver) gatherEvidence(req Request, cfg Config, graph *DependencyGraph, tags []Tag, baseHash, tip plumbing.Hash) (ChangeEvidence, error) {
	var evidence ChangeEvidence

	commits, err := r.history.CommitsBetween(baseHash, tip)
	if err != nil {
		return evidence, err
	}

	files, err := r.history.ChangedFilesSince(baseHash, tip)
	if err != nil {
		return evidence, err
	}

	// In a monorepo only the commits and files touching the project (or a
	// monitored path) count as that project's evidence.
	scoped := files
	relevant := commits
	if req.Project != "" {
		dir := graph.Dir(req.Project)
		scoped = scopeFiles(files, dir, cfg.MonitorPaths)
		relevant = relevant[:0:0]
		for _, commit := range commits {
			if len(scopeFiles(commit.Files, dir, cfg.MonitorPaths)) > 0 {
				relevant = append(relevant, commit)
			}
		}
	}
	evidence.FromCommits = NewCommitClassifier(cfg.Commits).ClassifyAll(relevant)
	evidence.ChangedFiles = scoped

	classifier, err := NewFileClassifier(cfg.Files)
	if err != nil {
		return evidence, err
	}
	fileResult := classifier.Classify(scoped)
	evidence.FromFilePatterns = fileResult.Bump
	evidence.Ignored = len(scoped) > 0 && fileResult.ShouldIgnore

	// Transitive propagation: a dependency counts as changed when files in
	// its own directory moved past its own base tag.
	if req.Project != "" {
		for _, dep := range graph.Dependencies(req.Project) {
			changed, err := r.dependencyChanged(tags, dep, graph.Dir(dep), tip)
			if err != nil {
				return evidence, err
			}
			if changed {
				evidence.MatchedDependency = dep
				break
			}
		}
	}

	return evidence, nil
}

func (r *Resolver) dependencyChanged(tags []Tag, dep, depDir string, tip plumbing.Hash) (bool, error) {
	depBase := plumbing.ZeroHash
	if tag, found, err := r.baseTagFor(tags, dep, tip); err == nil && found {
		depBase = tag.Hash
	}

	files, err := r.history.ChangedFilesSince(depBase, tip)
	if err != nil {
		return false, err
	}
	return len(scopeFiles(files, depDir, nil)) > 0, nil
}

// computeVersion applies the branch policy on top of the scheme computation.
func (r *Resolver) computeVersion(cfg Config, branch BranchContext, evidence ChangeEvidence, base semver.Version, haveBase bool, fallback semver.Version, height int, req Request) (semver.Version, string, error) {
	var calc *CalVerCalculator
	if cfg.Scheme == SchemeCalVer {
		var err error
		calc, err = NewCalVerCalculator(cfg.CalVer, req.Now)
		if err != nil {
			return semver.Version{}, "", err
		}
	}

	// nextCore derives the bumped triple per scheme; for the first release
	// cycle (no tag) the SemVer scheme starts at the configured base as-is.
	nextCore := func(bump BumpType) semver.Version {
		if calc != nil {
			var prev *semver.Version
			if haveBase {
				prev = &base
			}
			return calc.Next(prev)
		}
		if !haveBase {
			return semver.Version{Major: fallback.Major, Minor: fallback.Minor, Patch: fallback.Patch}
		}
		return bumpVersion(base, bump)
	}

	var version semver.Version
	bump := evidence.Bump()

	switch branch.Type {
	case BranchFeature:
		switch cfg.FeatureStrategy {
		case FeatureMinorLabel:
			version = nextCore(maxBump(bump, BumpMinor))
			version = withPrerelease(version, branch.Normalized)
		default: // FeaturePatchHeight
			version = nextCore(maxBump(bump, BumpPatch))
			version = withPrerelease(version, branch.Normalized, fmt.Sprintf("%d", height))
		}

	case BranchRelease:
		version = labeledVersion(base, haveBase, "rc", func() semver.Version {
			if target, ok := releaseBranchTarget(branch.Name); ok && calc == nil {
				return MustParseVersion(target)
			}
			return nextCore(maxBump(bump, BumpPatch))
		})

	default: // Main, Dev
		if cfg.PrereleaseType != "" {
			version = labeledVersion(base, haveBase, cfg.PrereleaseType, func() semver.Version {
				return nextCore(maxBump(bump, BumpPatch))
			})
		} else {
			version = nextCore(maxBump(bump, BumpPatch))
		}
	}

	rendered := version.String()
	if calc != nil {
		rendered = calc.Format(version)
	}
	return version, rendered, nil
}

// labeledVersion composes a "{label}.{counter}" prerelease. While the base
// tag is an unreleased cycle carrying the same label, the counter keeps
// incrementing on the same triple; otherwise a fresh core starts at 1.
func labeledVersion(base semver.Version, haveBase bool, label string, fresh func() semver.Version) semver.Version {
	if haveBase && len(base.Pre) > 0 && !base.Pre[0].IsNum && base.Pre[0].VersionStr == label {
		counter := prereleaseCounter(base, label) + 1
		core := semver.Version{Major: base.Major, Minor: base.Minor, Patch: base.Patch}
		return withPrerelease(core, label, fmt.Sprintf("%d", counter))
	}
	return withPrerelease(fresh(), label, "1")
}

// scopeFiles keeps the files under the project directory or any extra
// monitored path. A path equal to the directory itself also counts: a
// submodule pointer surfaces as exactly its own path.
func scopeFiles(files []string, dir string, extra []string) []string {
	roots := make([]string, 0, len(extra)+1)
	if dir != "" {
		roots = append(roots, strings.TrimSuffix(dir, "/"))
	}
	for _, e := range extra {
		if e == "" {
			continue
		}
		roots = append(roots, strings.TrimSuffix(e, "/"))
	}

	var out []string
	for _, f := range files {
		for _, root := range roots {
			if f == root || strings.HasPrefix(f, root+"/") {
				out = append(out, f)
				break
			}
		}
	}
	return out
}

// describeEvidence builds the human-readable reason for a changed result.
func describeEvidence(e ChangeEvidence) string {
	var parts []string
	if e.FromCommits != BumpNone {
		parts = append(parts, fmt.Sprintf("commit evidence: %s", e.FromCommits))
	}
	if e.FromFilePatterns != BumpNone {
		parts = append(parts, fmt.Sprintf("file evidence: %s (%d files)", e.FromFilePatterns, len(e.ChangedFiles)))
	}
	if e.MatchedDependency != "" {
		parts = append(parts, fmt.Sprintf("dependency %s changed", e.MatchedDependency))
	}
	if len(parts) == 0 {
		return "changed"
	}
	return strings.Join(parts, "; ")
}

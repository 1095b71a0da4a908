package monover

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveFirstReleaseCycle(t *testing.T) {
	repo, err := testRepoCreate()
	require.NoError(t, err)
	_, err = testCommitFile(repo, "main.go", "package main", "feat: initial service")
	require.NoError(t, err)
	_, err = testCommitFile(repo, "handler.go", "package main", "feat: add handler")
	require.NoError(t, err)
	_, err = testCommitFile(repo, "router.go", "package main", "feat: add router")
	require.NoError(t, err)

	result, err := Resolve(Request{
		Repository: repo,
		Config:     Config{PrereleaseType: "alpha"},
	})
	require.NoError(t, err)

	require.Equal(t, "0.1.0-alpha.1", result.VersionString)
	require.True(t, result.Changed)
	require.Equal(t, "minor", result.BumpString)
	require.Equal(t, BranchMain, result.BranchType)
	require.Equal(t, 3, result.CommitHeight)
}

func TestResolvePatchOnMain(t *testing.T) {
	repo, _, err := testTaggedRepo("v1.0.0")
	require.NoError(t, err)
	_, err = testCommitFile(repo, "parser.go", "package main", "fix: handle empty input")
	require.NoError(t, err)

	result, err := Resolve(Request{Repository: repo})
	require.NoError(t, err)

	require.Equal(t, "1.0.1", result.VersionString)
	require.True(t, result.Changed)
	require.Equal(t, "patch", result.BumpString)
	require.Equal(t, 1, result.CommitHeight)
}

func TestResolveReleaseBranch(t *testing.T) {
	repo, _, err := testTaggedRepo("v1.0.0")
	require.NoError(t, err)
	require.NoError(t, testCheckoutNewBranch(repo, "release/1.1"))
	_, err = testCommitFile(repo, "notes.go", "package main", "fix: release prep")
	require.NoError(t, err)

	result, err := Resolve(Request{Repository: repo})
	require.NoError(t, err)

	require.Equal(t, "1.1.0-rc.1", result.VersionString)
	require.Equal(t, BranchRelease, result.BranchType)
	require.Equal(t, "release/1.1", result.Branch)
}

func TestResolveReleaseCandidateCounterContinues(t *testing.T) {
	repo, _, err := testTaggedRepo("v1.2.0-rc.1")
	require.NoError(t, err)
	require.NoError(t, testCheckoutNewBranch(repo, "release/1.2"))
	_, err = testCommitFile(repo, "late.go", "package main", "fix: late fix")
	require.NoError(t, err)

	result, err := Resolve(Request{Repository: repo})
	require.NoError(t, err)

	require.Equal(t, "1.2.0-rc.2", result.VersionString)
}

func TestResolveLabeledCounterOnMain(t *testing.T) {
	repo, _, err := testTaggedRepo("v0.1.0-alpha.1")
	require.NoError(t, err)
	_, err = testCommitFile(repo, "next.go", "package main", "feat: keep iterating")
	require.NoError(t, err)

	result, err := Resolve(Request{
		Repository: repo,
		Config:     Config{PrereleaseType: "alpha"},
	})
	require.NoError(t, err)

	require.Equal(t, "0.1.0-alpha.2", result.VersionString)
}

func TestResolveMonorepoTagScoping(t *testing.T) {
	repo, initial, err := testTaggedRepo("v1.0.0")
	require.NoError(t, err)
	require.NoError(t, testTag(repo, "svc-a/v1.1.0", initial))
	_, err = testCommitFile(repo, "svc-a/main.go", "package main", "fix: svc-a only")
	require.NoError(t, err)

	a, err := Resolve(Request{Repository: repo, Project: "svc-a"})
	require.NoError(t, err)
	require.Equal(t, "1.1.1", a.VersionString)
	require.True(t, a.Changed)

	// svc-b falls back to the global tag and sees none of svc-a's changes.
	b, err := Resolve(Request{Repository: repo, Project: "svc-b"})
	require.NoError(t, err)
	require.Equal(t, "1.0.0", b.VersionString)
	require.False(t, b.Changed)
	require.Equal(t, "none", b.BumpString)
}

func TestResolveHigherGlobalTagWins(t *testing.T) {
	repo, initial, err := testTaggedRepo("svc/v1.0.0")
	require.NoError(t, err)
	require.NoError(t, testTag(repo, "v1.2.0", initial))
	_, err = testCommitFile(repo, "svc/main.go", "package main", "fix: tweak")
	require.NoError(t, err)

	result, err := Resolve(Request{Repository: repo, Project: "svc"})
	require.NoError(t, err)

	// Among ancestry-valid candidates the highest version is the base,
	// whatever its scope.
	require.Equal(t, "1.2.1", result.VersionString)
}

func TestResolveCalVerPeriodRollover(t *testing.T) {
	repo, _, err := testTaggedRepo("v2025.10.3")
	require.NoError(t, err)
	_, err = testCommitFile(repo, "feed.go", "package main", "fix: feed parsing")
	require.NoError(t, err)

	result, err := Resolve(Request{
		Repository: repo,
		Config:     Config{Scheme: SchemeCalVer},
		Now:        testClock,
	})
	require.NoError(t, err)

	require.Equal(t, "2025.11.0", result.VersionString)
	require.Equal(t, SchemeCalVer, result.Scheme)
}

func TestResolveCalVerSamePeriod(t *testing.T) {
	repo, _, err := testTaggedRepo("v2025.11.2")
	require.NoError(t, err)
	_, err = testCommitFile(repo, "feed.go", "package main", "fix: feed parsing")
	require.NoError(t, err)

	result, err := Resolve(Request{
		Repository: repo,
		Config:     Config{Scheme: SchemeCalVer},
		Now:        testClock,
	})
	require.NoError(t, err)

	require.Equal(t, "2025.11.3", result.VersionString)
}

func TestResolveFeatureBranch(t *testing.T) {
	repo, _, err := testTaggedRepo("v1.0.0")
	require.NoError(t, err)
	require.NoError(t, testCheckoutNewBranch(repo, "feature/new-API"))
	_, err = testCommitFile(repo, "api.go", "package main", "fix: first cut")
	require.NoError(t, err)
	_, err = testCommitFile(repo, "api2.go", "package main", "fix: second cut")
	require.NoError(t, err)

	t.Run("Patch plus height", func(t *testing.T) {
		result, err := Resolve(Request{Repository: repo})
		require.NoError(t, err)
		require.Equal(t, "1.0.1-feature-new-api.2", result.VersionString)
		require.Equal(t, BranchFeature, result.BranchType)
	})

	t.Run("Minor plus label", func(t *testing.T) {
		result, err := Resolve(Request{
			Repository: repo,
			Config:     Config{FeatureStrategy: FeatureMinorLabel},
		})
		require.NoError(t, err)
		require.Equal(t, "1.1.0-feature-new-api", result.VersionString)
	})
}

func TestResolveIgnoredChangesOnly(t *testing.T) {
	repo, _, err := testTaggedRepo("v1.0.0")
	require.NoError(t, err)
	_, err = testCommitFile(repo, "CHANGELOG.md", "notes", "docs: update changelog")
	require.NoError(t, err)

	result, err := Resolve(Request{
		Repository: repo,
		Config:     Config{Files: FileConfig{Ignore: []string{"**.md"}}},
	})
	require.NoError(t, err)

	require.False(t, result.Changed)
	require.Equal(t, "1.0.0", result.VersionString)
	require.Contains(t, result.Reason, "no changes since v1.0.0")
}

func TestResolveFileEvidenceOutweighsCommits(t *testing.T) {
	repo, _, err := testTaggedRepo("v1.4.2")
	require.NoError(t, err)
	_, err = testCommitFile(repo, "api/v1/schema.go", "package v1", "fix: adjust schema")
	require.NoError(t, err)

	result, err := Resolve(Request{
		Repository: repo,
		Config:     Config{Files: FileConfig{Major: []string{"api/**"}}},
	})
	require.NoError(t, err)

	require.Equal(t, "2.0.0", result.VersionString)
	require.Equal(t, "major", result.BumpString)
}

func TestResolveForceVersion(t *testing.T) {
	repo, _, err := testTaggedRepo("v1.0.0")
	require.NoError(t, err)
	_, err = testCommitFile(repo, "main.go", "package main", "feat: something")
	require.NoError(t, err)

	t.Run("Different from base", func(t *testing.T) {
		result, err := Resolve(Request{Repository: repo, ForceVersion: "9.9.9"})
		require.NoError(t, err)
		require.Equal(t, "9.9.9", result.VersionString)
		require.True(t, result.Changed)
		require.Contains(t, result.Reason, "forced")
	})

	t.Run("Equal to base", func(t *testing.T) {
		result, err := Resolve(Request{Repository: repo, ForceVersion: "1.0.0"})
		require.NoError(t, err)
		require.False(t, result.Changed)
	})

	t.Run("Unparseable", func(t *testing.T) {
		_, err := Resolve(Request{Repository: repo, ForceVersion: "not.a.version.at.all"})
		require.Error(t, err)
	})
}

func TestResolveBranchOverride(t *testing.T) {
	repo, _, err := testTaggedRepo("v1.0.0")
	require.NoError(t, err)
	_, err = testCommitFile(repo, "main.go", "package main", "fix: thing")
	require.NoError(t, err)

	result, err := Resolve(Request{Repository: repo, Branch: "develop"})
	require.NoError(t, err)
	require.Equal(t, BranchDev, result.BranchType)
	require.Equal(t, "develop", result.Branch)
}

func TestResolveEmptyRepository(t *testing.T) {
	repo, err := testRepoCreate()
	require.NoError(t, err)

	result, err := Resolve(Request{Repository: repo})
	require.NoError(t, err)

	require.Equal(t, "0.1.0", result.VersionString)
	require.False(t, result.Changed)
	require.Equal(t, "repository has no commits", result.Reason)
}

func TestResolveDeterministic(t *testing.T) {
	repo, _, err := testTaggedRepo("v1.0.0")
	require.NoError(t, err)
	_, err = testCommitFile(repo, "svc/main.go", "package main", "feat: new capability")
	require.NoError(t, err)

	req := Request{Repository: repo, Project: "svc", Config: Config{PrereleaseType: "beta"}}

	first, err := Resolve(req)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := Resolve(req)
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}

func TestResolveValidation(t *testing.T) {
	repo, _, err := testTaggedRepo("v1.0.0")
	require.NoError(t, err)
	_, err = testCommitFile(repo, "main.go", "package main", "fix: small")
	require.NoError(t, err)

	t.Run("Constraint failure surfaces", func(t *testing.T) {
		result, err := Resolve(Request{
			Repository: repo,
			Config:     Config{Constraints: Constraints{MinimumVersion: "2.0.0"}},
		})
		require.NoError(t, err)
		require.NotNil(t, result.Validation)
		require.False(t, result.Validation.Valid)
		require.Contains(t, result.Validation.Errors[0], "minimumVersion")
	})

	t.Run("Major needs approval", func(t *testing.T) {
		cfg := Config{
			Files:       FileConfig{Major: []string{"**"}},
			Constraints: Constraints{RequireMajorApproval: true},
		}

		denied, err := Resolve(Request{Repository: repo, Config: cfg})
		require.NoError(t, err)
		require.False(t, denied.Validation.Valid)

		approved, err := Resolve(Request{Repository: repo, Config: cfg, MajorApproved: true})
		require.NoError(t, err)
		require.True(t, approved.Validation.Valid)
		require.Equal(t, "2.0.0", approved.VersionString)
	})
}

func TestResolveDirtyWorktree(t *testing.T) {
	repo, _, err := testTaggedRepo("v1.0.0")
	require.NoError(t, err)
	_, err = testCommitFile(repo, "main.go", "package main", "fix: thing")
	require.NoError(t, err)

	workTree, err := repo.Worktree()
	require.NoError(t, err)
	require.NoError(t, writeFile(workTree.Filesystem, "scratch.txt", "uncommitted"))

	result, err := Resolve(Request{Repository: repo, Config: Config{MarkDirty: true}})
	require.NoError(t, err)

	require.True(t, result.Dirty)
	require.Equal(t, "1.0.1+dirty", result.VersionString)
}

func TestResolveDependencyPropagation(t *testing.T) {
	repo, initial, err := testTaggedRepo("app/v1.0.0")
	require.NoError(t, err)
	require.NoError(t, testTag(repo, "lib/v2.0.0", initial))
	_, err = testCommitFile(repo, "lib/core.go", "package lib", "fix: library bug")
	require.NoError(t, err)

	// app has no direct changes; it moves because lib did.
	result, err := Resolve(Request{
		Repository:   repo,
		Project:      "app",
		Dependencies: []string{"lib"},
	})
	require.NoError(t, err)

	require.True(t, result.Changed)
	require.Equal(t, "1.0.1", result.VersionString)
	require.Contains(t, result.Reason, "dependency lib changed")
}

func TestResolveSharedGraphStaysReadOnly(t *testing.T) {
	repo, initial, err := testTaggedRepo("app/v1.0.0")
	require.NoError(t, err)
	require.NoError(t, testTag(repo, "lib/v2.0.0", initial))
	_, err = testCommitFile(repo, "lib/core.go", "package lib", "fix: library bug")
	require.NoError(t, err)

	graph := NewDependencyGraph()
	graph.AddProject("app", "")
	graph.AddDependency("app", "lib")
	before := graph.Projects()

	result, err := Resolve(Request{Repository: repo, Project: "app", Graph: graph})
	require.NoError(t, err)

	require.True(t, result.Changed)
	require.Contains(t, result.Reason, "dependency lib changed")
	require.Equal(t, before, graph.Projects())
}

func TestResolveMonitorPaths(t *testing.T) {
	repo, _, err := testTaggedRepo("v1.0.0")
	require.NoError(t, err)
	_, err = testCommitFile(repo, "shared/util.go", "package shared", "fix: shared helper")
	require.NoError(t, err)

	t.Run("Monitored path counts as evidence", func(t *testing.T) {
		result, err := Resolve(Request{
			Repository: repo,
			Project:    "svc",
			Config:     Config{MonitorPaths: []string{"shared"}},
		})
		require.NoError(t, err)
		require.True(t, result.Changed)
		require.Equal(t, "1.0.1", result.VersionString)
	})

	t.Run("Unmonitored change is invisible", func(t *testing.T) {
		result, err := Resolve(Request{Repository: repo, Project: "svc"})
		require.NoError(t, err)
		require.False(t, result.Changed)
		require.Equal(t, "1.0.0", result.VersionString)
	})
}

func TestScopeFiles(t *testing.T) {
	files := []string{"svc/main.go", "svc-extra/other.go", "shared/util.go", "vendor-lib", "README.md"}

	require.Equal(t, []string{"svc/main.go"}, scopeFiles(files, "svc", nil))
	require.Equal(t, []string{"svc/main.go", "shared/util.go"}, scopeFiles(files, "svc", []string{"shared/"}))

	// A path equal to the directory itself (a submodule pointer) matches.
	require.Equal(t, []string{"vendor-lib"}, scopeFiles(files, "vendor-lib", nil))

	require.Empty(t, scopeFiles(files, "", nil))
}

func TestResolveSubmodulePointerChange(t *testing.T) {
	repo, _, err := testTaggedRepo("vendored/v0.3.0")
	require.NoError(t, err)
	_, err = testCommitFile(repo, "vendored", "gitlink", "fix: bump vendored snapshot")
	require.NoError(t, err)

	result, err := Resolve(Request{Repository: repo, Project: "vendored"})
	require.NoError(t, err)

	require.True(t, result.Changed)
	require.Equal(t, "0.3.1", result.VersionString)
}

func TestResolveSkipsMalformedTags(t *testing.T) {
	repo, initial, err := testTaggedRepo("nightly-build", "v1.0.0")
	require.NoError(t, err)
	require.NoError(t, testTag(repo, "deploy-prod", initial))
	_, err = testCommitFile(repo, "main.go", "package main", "fix: thing")
	require.NoError(t, err)

	result, err := Resolve(Request{Repository: repo})
	require.NoError(t, err)
	require.Equal(t, "1.0.1", result.VersionString)
}

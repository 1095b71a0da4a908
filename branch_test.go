package monover

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyBranch(t *testing.T) {
	cases := []struct {
		name     string
		expected BranchType
	}{
		{"main", BranchMain},
		{"master", BranchMain},
		{"dev", BranchDev},
		{"develop", BranchDev},
		{"release/1.1", BranchRelease},
		{"release/v2.0.0", BranchRelease},
		{"feature/cool-thing", BranchFeature},
		{"fix/JIRA-123", BranchFeature},
		{"anything-else", BranchFeature},
		{"", BranchFeature},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			require.Equal(t, c.expected, ClassifyBranch(c.name).Type)
		})
	}
}

func TestSanitizeBranchName(t *testing.T) {
	require.Equal(t, "feature-cool-thing", sanitizeBranchName("feature/cool_thing"))
	require.Equal(t, "fix-jira-123", sanitizeBranchName("fix/JIRA-123"))
	require.Equal(t, "wip", sanitizeBranchName("wip!!!"))
	require.Equal(t, "a-b", sanitizeBranchName("a//b"))
}

func TestReleaseBranchTarget(t *testing.T) {
	target, ok := releaseBranchTarget("release/1.1")
	require.True(t, ok)
	require.Equal(t, "1.1", target)

	target, ok = releaseBranchTarget("release/v2.0.0")
	require.True(t, ok)
	require.Equal(t, "2.0.0", target)

	_, ok = releaseBranchTarget("release/next")
	require.False(t, ok)

	_, ok = releaseBranchTarget("feature/1.1")
	require.False(t, ok)
}

package monover

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func renditionResult(version string) *VersionResult {
	return &VersionResult{
		Version:       MustParseVersion(version),
		VersionString: version,
	}
}

func TestLanguageRenditions(t *testing.T) {
	t.Run("Plain release", func(t *testing.T) {
		v := LanguageRenditions(renditionResult("2.0.0"))
		require.Equal(t, "2.0.0", v.SemVer)
		require.Equal(t, "2.0.0", v.Python)
		require.Equal(t, "v2.0.0", v.JavaScript)
		require.Equal(t, "2.0.0", v.DotNet)
		require.Equal(t, "v2.0.0", v.Go)
	})

	t.Run("Alpha prerelease", func(t *testing.T) {
		v := LanguageRenditions(renditionResult("1.2.3-alpha.2"))
		require.Equal(t, "1.2.3a2", v.Python)
		require.Equal(t, "v1.2.3-alpha.2", v.JavaScript)
	})

	t.Run("Beta and rc", func(t *testing.T) {
		require.Equal(t, "0.4.0b1", LanguageRenditions(renditionResult("0.4.0-beta.1")).Python)
		require.Equal(t, "1.1.0rc3", LanguageRenditions(renditionResult("1.1.0-rc.3")).Python)
	})

	t.Run("Feature label becomes dev release", func(t *testing.T) {
		v := LanguageRenditions(renditionResult("1.0.1-feature-new-api.4"))
		require.Equal(t, "1.0.1.dev4", v.Python)
	})

	t.Run("Label without counter", func(t *testing.T) {
		v := LanguageRenditions(renditionResult("1.1.0-feature-new-api"))
		require.Equal(t, "1.1.0.dev0", v.Python)
	})

	t.Run("Dirty marker", func(t *testing.T) {
		result := renditionResult("1.0.1-alpha.1")
		result.Dirty = true
		require.Equal(t, "1.0.1a1+dirty", LanguageRenditions(result).Python)
	})
}

func TestFallbackVersions(t *testing.T) {
	v := FallbackVersions()
	require.Equal(t, "0.1.0-dev", v.SemVer)
	require.Equal(t, "0.1.0.dev0", v.Python)
	require.Equal(t, "v0.1.0-dev", v.Go)
}

func TestRenditionFor(t *testing.T) {
	v := LanguageRenditions(renditionResult("1.2.3"))

	require.Equal(t, v.Python, RenditionFor(v, "python"))
	require.Equal(t, v.JavaScript, RenditionFor(v, "js"))
	require.Equal(t, v.JavaScript, RenditionFor(v, "Node"))
	require.Equal(t, v.DotNet, RenditionFor(v, ".NET"))
	require.Equal(t, v.Go, RenditionFor(v, "golang"))
	require.Equal(t, v.SemVer, RenditionFor(v, ""))
	require.Equal(t, v.SemVer, RenditionFor(v, "rust"))
}

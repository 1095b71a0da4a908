package monover

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseVersion(t *testing.T) {
	t.Run("Plain version", func(t *testing.T) {
		v, err := ParseVersion("1.2.3")
		require.NoError(t, err)
		require.EqualValues(t, 1, v.Major)
		require.EqualValues(t, 2, v.Minor)
		require.EqualValues(t, 3, v.Patch)
	})

	t.Run("Leading v is stripped", func(t *testing.T) {
		v, err := ParseVersion("v2.0.0")
		require.NoError(t, err)
		require.Equal(t, "2.0.0", v.String())
	})

	t.Run("Missing patch defaults to zero", func(t *testing.T) {
		v, err := ParseVersion("1.1")
		require.NoError(t, err)
		require.Equal(t, "1.1.0", v.String())
	})

	t.Run("Zero-padded calver core", func(t *testing.T) {
		v, err := ParseVersion("2025.04.1")
		require.NoError(t, err)
		require.EqualValues(t, 2025, v.Major)
		require.EqualValues(t, 4, v.Minor)
		require.EqualValues(t, 1, v.Patch)
	})

	t.Run("Prerelease and build survive", func(t *testing.T) {
		v, err := ParseVersion("1.2.3-alpha.1+build.5")
		require.NoError(t, err)
		require.Len(t, v.Pre, 2)
		require.Equal(t, "alpha", v.Pre[0].VersionStr)
		require.EqualValues(t, 1, v.Pre[1].VersionNum)
		require.Equal(t, []string{"build", "5"}, v.Build)
	})

	t.Run("Garbage is rejected", func(t *testing.T) {
		_, err := ParseVersion("not-a-version")
		require.Error(t, err)
	})

	t.Run("Empty is rejected", func(t *testing.T) {
		_, err := ParseVersion("")
		require.Error(t, err)
	})

	t.Run("Roundtrip", func(t *testing.T) {
		for _, s := range []string{"0.1.0", "1.2.3", "1.2.3-alpha.1", "10.20.30-rc.2+sha.abcdef"} {
			v, err := ParseVersion(s)
			require.NoError(t, err)
			require.Equal(t, s, v.String())
		}
	})
}

func TestVersionOrdering(t *testing.T) {
	ordered := []string{
		"0.1.0",
		"1.0.0-alpha",
		"1.0.0-alpha.1",
		"1.0.0-alpha.beta",
		"1.0.0-beta",
		"1.0.0-beta.2",
		"1.0.0-beta.11",
		"1.0.0-rc.1",
		"1.0.0",
		"1.0.1",
		"1.1.0",
		"2.0.0",
	}

	for i := 0; i < len(ordered)-1; i++ {
		lower := MustParseVersion(ordered[i])
		higher := MustParseVersion(ordered[i+1])
		require.True(t, lower.LT(higher), "%s should sort below %s", ordered[i], ordered[i+1])
	}
}

func TestBuildMetadataExcludedFromOrdering(t *testing.T) {
	a := MustParseVersion("1.0.0+linux")
	b := MustParseVersion("1.0.0+darwin")
	require.Equal(t, 0, a.Compare(b))
}

func TestBumpVersion(t *testing.T) {
	base := MustParseVersion("1.2.3-alpha.1")

	require.Equal(t, "2.0.0", bumpVersion(base, BumpMajor).String())
	require.Equal(t, "1.3.0", bumpVersion(base, BumpMinor).String())
	require.Equal(t, "1.2.4", bumpVersion(base, BumpPatch).String())
	require.Equal(t, "1.2.3", bumpVersion(base, BumpNone).String())
}

func TestPrereleaseCounter(t *testing.T) {
	require.EqualValues(t, 3, prereleaseCounter(MustParseVersion("1.0.0-rc.3"), "rc"))
	require.EqualValues(t, 0, prereleaseCounter(MustParseVersion("1.0.0-rc.3"), "alpha"))
	require.EqualValues(t, 0, prereleaseCounter(MustParseVersion("1.0.0-rc"), "rc"))
	require.EqualValues(t, 0, prereleaseCounter(MustParseVersion("1.0.0"), "rc"))
}

func TestMaxBump(t *testing.T) {
	require.Equal(t, BumpMajor, maxBump(BumpPatch, BumpMajor))
	require.Equal(t, BumpMinor, maxBump(BumpMinor, BumpNone))
	require.Equal(t, BumpNone, maxBump(BumpNone, BumpNone))
}

package monover

import (
	"fmt"
	"strings"
)

// LanguageVersions contains renditions of one resolved version for the
// ecosystems a polyglot monorepo typically publishes to.
type LanguageVersions struct {
	SemVer     string `json:"semver"`
	Python     string `json:"python"`
	JavaScript string `json:"javascript"`
	DotNet     string `json:"dotnet"`
	Go         string `json:"go"`
}

// LanguageRenditions converts a VersionResult into per-ecosystem version
// strings. Python follows PEP 440: alpha/beta/rc prereleases map to
// a/b/rc segments, anything else (feature-branch labels) becomes a .devN
// suffix, and a dirty marker becomes a local version label.
func LanguageRenditions(result *VersionResult) *LanguageVersions {
	generic := result.VersionString

	return &LanguageVersions{
		SemVer:     generic,
		Python:     pythonRendition(result),
		JavaScript: "v" + generic,
		DotNet:     generic,
		Go:         "v" + generic,
	}
}

func pythonRendition(result *VersionResult) string {
	v := result.Version
	core := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)

	suffix := ""
	if len(v.Pre) > 0 {
		label := v.Pre[0].String()
		counter := lastNumericIdentifier(result)

		switch label {
		case "alpha":
			suffix = fmt.Sprintf("a%d", counter)
		case "beta":
			suffix = fmt.Sprintf("b%d", counter)
		case "rc":
			suffix = fmt.Sprintf("rc%d", counter)
		case "dev":
			suffix = fmt.Sprintf(".dev%d", counter)
		default:
			// Feature-branch labels have no PEP 440 equivalent; treat the
			// build as a dev release numbered by its counter.
			suffix = fmt.Sprintf(".dev%d", counter)
		}
	}

	rendition := core + suffix
	if result.Dirty {
		rendition += "+dirty"
	}
	return rendition
}

// lastNumericIdentifier extracts the trailing counter of a prerelease
// ("alpha.1" -> 1, "my-branch.3" -> 3), defaulting to 0 for PEP 440
// compliance.
func lastNumericIdentifier(result *VersionResult) uint64 {
	pre := result.Version.Pre
	for i := len(pre) - 1; i >= 0; i-- {
		if pre[i].IsNum {
			return pre[i].VersionNum
		}
	}
	return 0
}

// FallbackVersions is the rendition set used when the analyzed path is not a
// Git repository at all.
func FallbackVersions() *LanguageVersions {
	return &LanguageVersions{
		SemVer:     "0.1.0-dev",
		Python:     "0.1.0.dev0",
		JavaScript: "v0.1.0-dev",
		DotNet:     "0.1.0-dev",
		Go:         "v0.1.0-dev",
	}
}

// RenditionFor selects one ecosystem's version string by name; unknown names
// fall back to the generic SemVer rendition.
func RenditionFor(versions *LanguageVersions, language string) string {
	switch strings.ToLower(language) {
	case "python":
		return versions.Python
	case "javascript", "js", "node":
		return versions.JavaScript
	case "dotnet", ".net", "csharp":
		return versions.DotNet
	case "go", "golang":
		return versions.Go
	default:
		return versions.SemVer
	}
}

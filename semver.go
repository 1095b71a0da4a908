package monover

import (
	"fmt"
	"strings"

	"github.com/blang/semver"
)

// ParseVersion parses a version string leniently: a leading "v" is dropped,
// a missing patch (or minor) component defaults to 0, and leading zeros in
// the numeric core are normalized so zero-padded CalVer tags such as
// "2025.04.1" parse. Prerelease ordering, build metadata exclusion and the
// total-order comparison all come from the underlying semver implementation.
func ParseVersion(s string) (semver.Version, error) {
	trimmed := strings.TrimSpace(strings.TrimPrefix(s, "v"))
	if trimmed == "" {
		return semver.Version{}, fmt.Errorf("empty version string")
	}
	v, err := semver.ParseTolerant(normalizeCoreZeros(trimmed))
	if err != nil {
		return semver.Version{}, fmt.Errorf("parsing version %q: %w", s, err)
	}
	return v, nil
}

// MustParseVersion is ParseVersion for statically known inputs.
func MustParseVersion(s string) semver.Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

// normalizeCoreZeros strips leading zeros from the numeric major.minor.patch
// components only; prerelease and build parts are left alone.
func normalizeCoreZeros(s string) string {
	core := s
	rest := ""
	if i := strings.IndexAny(s, "-+"); i >= 0 {
		core, rest = s[:i], s[i:]
	}

	parts := strings.Split(core, ".")
	for i, p := range parts {
		if !isDigits(p) {
			return s
		}
		trimmed := strings.TrimLeft(p, "0")
		if trimmed == "" {
			trimmed = "0"
		}
		parts[i] = trimmed
	}
	return strings.Join(parts, ".") + rest
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// bumpVersion applies a bump level to a version, resetting the lower
// components and dropping any prerelease or build metadata.
func bumpVersion(v semver.Version, bump BumpType) semver.Version {
	next := semver.Version{Major: v.Major, Minor: v.Minor, Patch: v.Patch}
	switch bump {
	case BumpMajor:
		next.Major++
		next.Minor = 0
		next.Patch = 0
	case BumpMinor:
		next.Minor++
		next.Patch = 0
	case BumpPatch:
		next.Patch++
	}
	return next
}

// withPrerelease returns v carrying the given prerelease identifiers.
// Identifiers that fail to parse are skipped.
func withPrerelease(v semver.Version, identifiers ...string) semver.Version {
	v.Pre = nil
	for _, id := range identifiers {
		pr, err := semver.NewPRVersion(id)
		if err != nil {
			continue
		}
		v.Pre = append(v.Pre, pr)
	}
	return v
}

// sameCore reports whether two versions share the major.minor.patch triple.
func sameCore(a, b semver.Version) bool {
	return a.Major == b.Major && a.Minor == b.Minor && a.Patch == b.Patch
}

// prereleaseCounter reads the numeric counter of a "{label}.{n}" prerelease,
// returning 0 when the version carries a different label or no counter.
func prereleaseCounter(v semver.Version, label string) uint64 {
	if len(v.Pre) < 2 {
		return 0
	}
	if v.Pre[0].IsNum || v.Pre[0].VersionStr != label {
		return 0
	}
	if !v.Pre[1].IsNum {
		return 0
	}
	return v.Pre[1].VersionNum
}

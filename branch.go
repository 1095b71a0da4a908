package monover

import (
	"strings"
)

// ClassifyBranch maps a branch name onto the increment-policy families.
// Classification is purely name-based: main/master, dev/develop, a release/
// prefix, and everything else is a feature branch.
func ClassifyBranch(name string) BranchContext {
	ctx := BranchContext{
		Type:       BranchFeature,
		Name:       name,
		Normalized: sanitizeBranchName(name),
	}

	switch strings.ToLower(name) {
	case "main", "master":
		ctx.Type = BranchMain
	case "dev", "develop":
		ctx.Type = BranchDev
	default:
		if strings.HasPrefix(strings.ToLower(name), "release/") {
			ctx.Type = BranchRelease
		}
	}

	return ctx
}

// sanitizeBranchName turns a branch name into a legal prerelease identifier:
// lowercase, with every character outside [0-9a-z-] collapsed to a hyphen.
func sanitizeBranchName(name string) string {
	var b strings.Builder
	lastHyphen := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen && b.Len() > 0 {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// releaseBranchTarget extracts an explicit version target from a release
// branch name, e.g. "release/1.1" targets 1.1.0. Returns ok=false when the
// suffix is not a version.
func releaseBranchTarget(name string) (string, bool) {
	lower := strings.ToLower(name)
	if !strings.HasPrefix(lower, "release/") {
		return "", false
	}
	suffix := strings.TrimPrefix(name[len("release/"):], "v")
	if _, err := ParseVersion(suffix); err != nil {
		return "", false
	}
	return suffix, true
}

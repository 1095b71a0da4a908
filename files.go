package monover

import (
	"fmt"

	"github.com/gobwas/glob"
)

// FileChangeResult is the verdict of classifying one changed-file set.
type FileChangeResult struct {
	Bump         BumpType
	ShouldIgnore bool
	Matched      []string
}

// FileClassifier buckets changed files into ignore/major/minor/patch using
// glob patterns. With '/' as the separator, '*' matches within one path
// segment, '**' spans segments and '?' matches a single character.
type FileClassifier struct {
	ignore      []glob.Glob
	major       []glob.Glob
	minor       []glob.Glob
	patch       []glob.Glob
	defaultBump BumpType
}

// NewFileClassifier compiles the configured pattern buckets. An invalid
// pattern is a configuration error and fails construction.
func NewFileClassifier(cfg FileConfig) (*FileClassifier, error) {
	compile := func(patterns []string) ([]glob.Glob, error) {
		globs := make([]glob.Glob, 0, len(patterns))
		for _, p := range patterns {
			g, err := glob.Compile(p, '/')
			if err != nil {
				return nil, fmt.Errorf("compiling file pattern %q: %w", p, err)
			}
			globs = append(globs, g)
		}
		return globs, nil
	}

	fc := &FileClassifier{defaultBump: BumpPatch}
	switch cfg.DefaultBump {
	case "", "patch":
	case "none":
		fc.defaultBump = BumpNone
	case "minor":
		fc.defaultBump = BumpMinor
	case "major":
		fc.defaultBump = BumpMajor
	default:
		return nil, fmt.Errorf("invalid defaultBump %q", cfg.DefaultBump)
	}

	var err error
	if fc.ignore, err = compile(cfg.Ignore); err != nil {
		return nil, err
	}
	if fc.major, err = compile(cfg.Major); err != nil {
		return nil, err
	}
	if fc.minor, err = compile(cfg.Minor); err != nil {
		return nil, err
	}
	if fc.patch, err = compile(cfg.Patch); err != nil {
		return nil, err
	}
	return fc, nil
}

// Classify evaluates every file in order: ignore first (an ignored file is
// excluded from all further buckets), then major, minor, patch. Files
// matching nothing take the configured default bump. The overall verdict is
// the maximum bucket with at least one file; a set of only-ignored files
// yields none with ShouldIgnore set.
func (fc *FileClassifier) Classify(files []string) FileChangeResult {
	result := FileChangeResult{Bump: BumpNone}
	if len(files) == 0 {
		return result
	}

	anyConsidered := false
	for _, f := range files {
		if matchAny(fc.ignore, f) {
			continue
		}
		anyConsidered = true
		result.Matched = append(result.Matched, f)

		switch {
		case matchAny(fc.major, f):
			result.Bump = maxBump(result.Bump, BumpMajor)
		case matchAny(fc.minor, f):
			result.Bump = maxBump(result.Bump, BumpMinor)
		case matchAny(fc.patch, f):
			result.Bump = maxBump(result.Bump, BumpPatch)
		default:
			result.Bump = maxBump(result.Bump, fc.defaultBump)
		}
	}

	result.ShouldIgnore = !anyConsidered
	return result
}

func matchAny(globs []glob.Glob, file string) bool {
	for _, g := range globs {
		if g.Match(file) {
			return true
		}
	}
	return false
}

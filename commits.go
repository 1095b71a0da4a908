package monover

import (
	"regexp"
	"strings"
)

// breakingHeader matches a conventional-commit header whose type carries the
// breaking marker, e.g. "feat(api)!: drop v1 endpoints".
var breakingHeader = regexp.MustCompile(`^[A-Za-z]+(\([^)]*\))?!:`)

// CommitClassifier turns conventional-commit messages into bump verdicts.
type CommitClassifier struct {
	cfg CommitConfig
}

// NewCommitClassifier builds a classifier from the configured pattern lists.
// Empty lists fall back to the defaults in DefaultConfig.
func NewCommitClassifier(cfg CommitConfig) *CommitClassifier {
	defaults := DefaultConfig().Commits
	if len(cfg.Major) == 0 {
		cfg.Major = defaults.Major
	}
	if len(cfg.Minor) == 0 {
		cfg.Minor = defaults.Minor
	}
	if len(cfg.Patch) == 0 {
		cfg.Patch = defaults.Patch
	}
	if len(cfg.Ignore) == 0 {
		cfg.Ignore = defaults.Ignore
	}
	return &CommitClassifier{cfg: cfg}
}

// Classify returns the bump level a single commit message demands. A
// breaking marker ("!:" in the header or a BREAKING CHANGE footer) always
// yields major, regardless of the type prefix.
func (c *CommitClassifier) Classify(message string) BumpType {
	lines := strings.Split(message, "\n")
	header := strings.TrimSpace(lines[0])

	if breakingHeader.MatchString(header) {
		return BumpMajor
	}
	for _, line := range lines {
		line = strings.TrimSpace(line)
		for _, pat := range c.cfg.Major {
			if strings.HasPrefix(line, pat) {
				return BumpMajor
			}
		}
	}

	for _, pat := range c.cfg.Ignore {
		if strings.HasPrefix(header, pat) {
			return BumpNone
		}
	}
	for _, pat := range c.cfg.Minor {
		if strings.HasPrefix(header, pat) {
			return BumpMinor
		}
	}
	for _, pat := range c.cfg.Patch {
		if strings.HasPrefix(header, pat) {
			return BumpPatch
		}
	}

	return BumpNone
}

// ClassifyAll aggregates a commit range by taking the maximum bump level.
// Ignored and unconventional commits contribute none.
func (c *CommitClassifier) ClassifyAll(commits []Commit) BumpType {
	verdict := BumpNone
	for _, commit := range commits {
		verdict = maxBump(verdict, c.Classify(commit.Message))
		if verdict == BumpMajor {
			break
		}
	}
	return verdict
}

package monover

import (
	"fmt"

	mmsemver "github.com/Masterminds/semver/v3"
	"github.com/blang/semver"
)

// ConstraintValidator checks a resolved version against the configured
// bounds. Every check runs; failures accumulate as errors and never block
// computation — the caller decides whether an invalid result fails a build.
type ConstraintValidator struct {
	cfg     Constraints
	allowed *mmsemver.Constraints
	min     *semver.Version
	max     *semver.Version
	blocked []semver.Version
}

// NewConstraintValidator parses the constraint configuration up front so a
// bad range or bound is reported once, as a configuration error.
func NewConstraintValidator(cfg Constraints) (*ConstraintValidator, error) {
	v := &ConstraintValidator{cfg: cfg}

	if cfg.MinimumVersion != "" {
		min, err := ParseVersion(cfg.MinimumVersion)
		if err != nil {
			return nil, fmt.Errorf("minimumVersion: %w", err)
		}
		v.min = &min
	}
	if cfg.MaximumVersion != "" {
		max, err := ParseVersion(cfg.MaximumVersion)
		if err != nil {
			return nil, fmt.Errorf("maximumVersion: %w", err)
		}
		v.max = &max
	}
	if cfg.AllowedRange != "" {
		allowed, err := mmsemver.NewConstraint(cfg.AllowedRange)
		if err != nil {
			return nil, fmt.Errorf("allowedRange %q: %w", cfg.AllowedRange, err)
		}
		v.allowed = allowed
	}
	for _, b := range cfg.BlockedVersions {
		blocked, err := ParseVersion(b)
		if err != nil {
			return nil, fmt.Errorf("blockedVersions entry %q: %w", b, err)
		}
		v.blocked = append(v.blocked, blocked)
	}

	return v, nil
}

// Validate runs every configured check against the resolved version.
// previous is the base tag's version (nil when no tag existed); bump and
// majorApproved feed the major-approval rule.
func (v *ConstraintValidator) Validate(version semver.Version, previous *semver.Version, bump BumpType, majorApproved bool) ValidationResult {
	result := ValidationResult{Valid: true}
	fail := func(format string, args ...interface{}) {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf(format, args...))
	}

	if v.min != nil && version.LT(*v.min) {
		fail("version %s is below minimumVersion %s", version, *v.min)
	}
	if v.max != nil && version.GT(*v.max) {
		fail("version %s is above maximumVersion %s", version, *v.max)
	}

	if v.allowed != nil {
		// The range applies to the numeric triple; prerelease labels do not
		// move a version out of its range.
		core := fmt.Sprintf("%d.%d.%d", version.Major, version.Minor, version.Patch)
		if mv, err := mmsemver.NewVersion(core); err == nil {
			if !v.allowed.Check(mv) {
				fail("version %s is outside allowedRange %s", version, v.cfg.AllowedRange)
			}
		} else {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("version %s could not be checked against allowedRange: %v", version, err))
		}
	}

	for _, blocked := range v.blocked {
		if version.EQ(blocked) {
			fail("version %s is in blockedVersions", version)
		}
	}

	if v.cfg.RequireMonotonicIncrease && previous != nil && !version.GT(*previous) {
		fail("version %s does not increase monotonically from %s", version, *previous)
	}

	if v.cfg.RequireMajorApproval && bump == BumpMajor && !majorApproved {
		fail("major bump to %s requires explicit approval", version)
	}

	return result
}

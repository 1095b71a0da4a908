package monover

import (
	"fmt"
	"time"

	"github.com/blang/semver"
)

// CalVer format names. Major is the year (full or two-digit), minor the
// month or ISO week; 0M formats zero-pad the month in the rendered string.
const (
	CalVerYearMonth       = "YYYY.MM.PATCH"
	CalVerShortYearMonth  = "YY.0M.PATCH"
	CalVerYearWeek        = "YYYY.WW.PATCH"
	CalVerYearPaddedMonth = "YYYY.0M.PATCH"
)

// CalVerCalculator derives date-based versions with period-aware patch
// handling. The clock is injected so resolution stays replayable.
type CalVerCalculator struct {
	cfg CalVerConfig
	now time.Time
}

// NewCalVerCalculator builds a calculator for the configured format. A zero
// now falls back to the wall clock.
func NewCalVerCalculator(cfg CalVerConfig, now time.Time) (*CalVerCalculator, error) {
	if cfg.Format == "" {
		cfg.Format = CalVerYearMonth
	}
	switch cfg.Format {
	case CalVerYearMonth, CalVerShortYearMonth, CalVerYearWeek, CalVerYearPaddedMonth:
	default:
		return nil, fmt.Errorf("unsupported calver format %q", cfg.Format)
	}
	if now.IsZero() {
		now = time.Now()
	}
	return &CalVerCalculator{cfg: cfg, now: now.UTC()}, nil
}

// period computes the major/minor pair for the calculator's clock.
func (c *CalVerCalculator) period() (uint64, uint64) {
	switch c.cfg.Format {
	case CalVerShortYearMonth:
		return uint64(c.now.Year() % 100), uint64(c.now.Month())
	case CalVerYearWeek:
		year, week := c.now.ISOWeek()
		return uint64(year), uint64(week)
	default:
		return uint64(c.now.Year()), uint64(c.now.Month())
	}
}

// Next computes the version for the current period. When the previous
// version (the base tag's) falls in the same period, patch increments; on a
// period change patch resets to 0, or keeps counting when
// resetPatchPeriodically is disabled.
func (c *CalVerCalculator) Next(previous *semver.Version) semver.Version {
	major, minor := c.period()
	next := semver.Version{Major: major, Minor: minor}

	if previous == nil {
		return next
	}

	samePeriod := previous.Major == major && previous.Minor == minor
	switch {
	case samePeriod:
		next.Patch = previous.Patch + 1
	case !c.cfg.ResetPatch():
		next.Patch = previous.Patch + 1
	}
	return next
}

// Format renders a calver version, restoring the zero-padding the numeric
// triple cannot carry.
func (c *CalVerCalculator) Format(v semver.Version) string {
	var core string
	switch c.cfg.Format {
	case CalVerShortYearMonth:
		core = fmt.Sprintf("%02d.%02d.%d", v.Major, v.Minor, v.Patch)
	case CalVerYearPaddedMonth:
		core = fmt.Sprintf("%d.%02d.%d", v.Major, v.Minor, v.Patch)
	default:
		core = fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	}
	return core + suffixString(v)
}

// suffixString renders the prerelease and build parts of a version.
func suffixString(v semver.Version) string {
	s := ""
	if len(v.Pre) > 0 {
		s += "-"
		for i, pr := range v.Pre {
			if i > 0 {
				s += "."
			}
			s += pr.String()
		}
	}
	if len(v.Build) > 0 {
		s += "+"
		for i, b := range v.Build {
			if i > 0 {
				s += "."
			}
			s += b
		}
	}
	return s
}

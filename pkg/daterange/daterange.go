// Package daterange resolves user-supplied date range expressions into the
// ordered sequence of calendar dates to query on the build index.
package daterange

import (
	"regexp"
	"strconv"
	"time"

	"github.com/JavaZeroo/dev-scripts/pkg/errors"
)

// DateFormat is the wire format of index dates (YYYYMMDD).
const DateFormat = "20060102"

// daysPerMonth approximates a month for the shortcut grammar, matching the
// behavior of the original downloader scripts.
const daysPerMonth = 30

// Spec describes a requested range: either a shortcut expression like
// "7days" / "2 weeks", or an explicit inclusive Start/End pair in YYYYMMDD.
// Exactly one form must be used.
type Spec struct {
	Last  string
	Start string
	End   string
}

// Range is an immutable ascending sequence of calendar dates.
type Range struct {
	dates []time.Time
}

// Dates returns a copy of the dates in ascending order.
func (r Range) Dates() []time.Time {
	out := make([]time.Time, len(r.dates))
	copy(out, r.dates)
	return out
}

// Len returns the number of dates in the range.
func (r Range) Len() int {
	return len(r.dates)
}

// Strings returns the dates formatted as YYYYMMDD.
func (r Range) Strings() []string {
	out := make([]string, len(r.dates))
	for i, d := range r.dates {
		out[i] = d.Format(DateFormat)
	}
	return out
}

var lastPattern = regexp.MustCompile(`^(\d+)\s*(day|days|week|weeks|month|months)$`)

// Resolve turns a range spec into concrete dates. The clock is injected via
// today so resolution is deterministic. Shortcut ranges cover the last N
// calendar days up to and including today; explicit ranges are inclusive on
// both ends.
func Resolve(spec Spec, today time.Time) (Range, error) {
	switch {
	case spec.Last != "" && (spec.Start != "" || spec.End != ""):
		return Range{}, errors.Wrap(errors.ErrInvalidRange, "shortcut and explicit dates are mutually exclusive")
	case spec.Last != "":
		return resolveLast(spec.Last, today)
	case spec.Start != "" && spec.End != "":
		return resolveExplicit(spec.Start, spec.End)
	default:
		return Range{}, errors.Wrap(errors.ErrInvalidRange, "need either a shortcut or both start and end dates")
	}
}

func resolveLast(last string, today time.Time) (Range, error) {
	m := lastPattern.FindStringSubmatch(last)
	if m == nil {
		return Range{}, errors.Wrapf(errors.ErrInvalidRange, "cannot parse shortcut %q", last)
	}
	count, err := strconv.Atoi(m[1])
	if err != nil || count < 1 {
		return Range{}, errors.Wrapf(errors.ErrInvalidRange, "bad count in shortcut %q", last)
	}

	days := count
	switch m[2] {
	case "week", "weeks":
		days = count * 7
	case "month", "months":
		days = count * daysPerMonth
	}

	end := truncate(today)
	return Range{dates: consecutive(end.AddDate(0, 0, -(days-1)), end)}, nil
}

func resolveExplicit(startStr, endStr string) (Range, error) {
	start, err := time.Parse(DateFormat, startStr)
	if err != nil {
		return Range{}, errors.Wrapf(errors.ErrInvalidRange, "bad start date %q (want YYYYMMDD)", startStr)
	}
	end, err := time.Parse(DateFormat, endStr)
	if err != nil {
		return Range{}, errors.Wrapf(errors.ErrInvalidRange, "bad end date %q (want YYYYMMDD)", endStr)
	}
	if start.After(end) {
		return Range{}, errors.Wrapf(errors.ErrInvalidRange, "start %s is after end %s", startStr, endStr)
	}
	return Range{dates: consecutive(start, end)}, nil
}

func truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func consecutive(start, end time.Time) []time.Time {
	var dates []time.Time
	for d := truncate(start); !d.After(truncate(end)); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}

// Package window resolves user supplied time bounds into an inclusive range of
// archive hours.
//
// Bounds are written as YYYY, YYYY-MM, YYYY-MM-DD or YYYY-MM-DD-HH and are
// interpreted in UTC. A start bound is the first hour of its granularity; an
// end bound is widened to the last hour of its granularity, so "2025" as an
// end means 2025-12-31 23:00
package window

import (
	"iter"
	"strconv"
	"strings"
	"time"

	"appimagefinder/internal/adapters/ingest/gharchive"
	perr "appimagefinder/internal/platform/errors"
)

// Granularity is the precision a bound was written with
type Granularity uint8

const (
	// Year is a YYYY bound
	Year Granularity = iota + 1
	// Month is a YYYY-MM bound
	Month
	// Day is a YYYY-MM-DD bound
	Day
	// Hour is a YYYY-MM-DD-HH bound
	Hour
)

func (g Granularity) String() string {
	switch g {
	case Year:
		return "year"
	case Month:
		return "month"
	case Day:
		return "day"
	case Hour:
		return "hour"
	default:
		return "unknown"
	}
}

// TimeRange is an inclusive UTC range of hour instants
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Parse reads one bound and returns its first instant and granularity
func Parse(s string) (time.Time, Granularity, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return time.Time{}, 0, perr.InvalidTimef("window: empty time bound")
	}
	parts := strings.Split(raw, "-")
	if len(parts) > 4 {
		return time.Time{}, 0, perr.InvalidTimef("window: %q has %d parts, want at most 4", s, len(parts))
	}

	nums := [4]int{0, 1, 1, 0}
	for i, p := range parts {
		n, ok := digits(p)
		if !ok {
			return time.Time{}, 0, perr.InvalidTimef("window: %q part %d (%q) is not a number", s, i+1, p)
		}
		nums[i] = n
	}
	year, month, day, hour := nums[0], nums[1], nums[2], nums[3]

	switch {
	case year < 1 || year > 9999:
		return time.Time{}, 0, perr.InvalidTimef("window: %q year out of range", s)
	case month < 1 || month > 12:
		return time.Time{}, 0, perr.InvalidTimef("window: %q month out of range", s)
	case day < 1 || day > daysIn(year, time.Month(month)):
		return time.Time{}, 0, perr.InvalidTimef("window: %q day out of range", s)
	case hour > 23:
		return time.Time{}, 0, perr.InvalidTimef("window: %q hour out of range", s)
	}

	t := time.Date(year, time.Month(month), day, hour, 0, 0, 0, time.UTC)
	return t, Granularity(len(parts)), nil
}

// ExpandEnd widens t to the last hour covered by its granularity
func ExpandEnd(t time.Time, g Granularity) time.Time {
	switch g {
	case Year:
		return time.Date(t.Year(), time.December, 31, 23, 0, 0, 0, time.UTC)
	case Month:
		return time.Date(t.Year(), t.Month(), daysIn(t.Year(), t.Month()), 23, 0, 0, 0, time.UTC)
	case Day:
		return time.Date(t.Year(), t.Month(), t.Day(), 23, 0, 0, 0, time.UTC)
	default:
		return t
	}
}

// Resolve parses both bounds into a range. It does not require start <= end;
// an inverted range simply enumerates nothing
func Resolve(start, end string) (TimeRange, error) {
	s, _, err := Parse(start)
	if err != nil {
		return TimeRange{}, perr.WithField(err, "start-time")
	}
	e, g, err := Parse(end)
	if err != nil {
		return TimeRange{}, perr.WithField(err, "end-time")
	}
	return TimeRange{Start: s, End: ExpandEnd(e, g)}, nil
}

// Hours yields every archive hour in the range in ascending order. Each range
// over the sequence starts again from Start
func (r TimeRange) Hours() iter.Seq[gharchive.HourRef] {
	return func(yield func(gharchive.HourRef) bool) {
		for t := r.Start.Truncate(time.Hour); !t.After(r.End); t = t.Add(time.Hour) {
			if !yield(gharchive.NewHourRef(t)) {
				return
			}
		}
	}
}

// Count is the number of hours Hours would yield
func (r TimeRange) Count() int {
	start := r.Start.Truncate(time.Hour)
	if start.After(r.End) {
		return 0
	}
	return int(r.End.Sub(start)/time.Hour) + 1
}

// Contains reports whether t falls inside the range, bounds included
func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

func (r TimeRange) String() string {
	return r.Start.Format("2006-01-02T15") + ".." + r.End.Format("2006-01-02T15")
}

func digits(s string) (int, bool) {
	if s == "" || len(s) > 4 {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	return n, err == nil
}

func daysIn(year int, m time.Month) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

package calendar

import (
	"fmt"
	"time"
)

// parseLayouts are tried in order. Editors supply dates at wildly different
// precisions, so everything from a bare year up to a full RFC3339 timestamp
// is accepted. Offset layouts are converted to their UTC wall-clock
// equivalent; all other values are treated as naive local date-times.
var parseLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006-01",
	"2006",
}

// ParseDateTime parses a date-time-like string leniently, accepting any of
// the supported layouts. The window-building layer shares this parser so
// constraint bounds and series fields are interpreted identically.
func ParseDateTime(s string) (time.Time, error) {
	return parseDateTime(s)
}

func parseDateTime(s string) (time.Time, error) {
	for _, layout := range parseLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		t = t.UTC()
		// Strip sub-second precision; all calendar arithmetic is
		// second-granular.
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC), nil
	}
	return time.Time{}, fmt.Errorf("invalid date string: %q", s)
}

// window is a resolved constraint: earliest/latest bounds in canonical form.
// A window that failed to resolve (bad event_month) satisfies nothing.
type window struct {
	earliest string
	latest   string
	valid    bool
}

func resolveWindow(constraints Constraint) window {
	w := window{
		earliest: constraints.Earliest,
		latest:   constraints.Latest,
		valid:    true,
	}

	if constraints.EventMonth == "" {
		return w
	}

	month, err := parseDateTime(constraints.EventMonth)
	if err != nil {
		return window{valid: false}
	}

	first := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, 0).Add(-time.Second)
	w.earliest = first.Format(Layout)
	w.latest = last.Format(Layout)
	return w
}

// satisfies reports whether an occurrence start passes the window filter.
// Comparisons are lexicographic on the canonical Layout form.
func (w window) satisfies(start string) bool {
	if !w.valid {
		return false
	}
	if w.earliest != "" && start < w.earliest {
		return false
	}
	if w.latest != "" && start > w.latest {
		return false
	}
	return true
}

package calendar

import (
	"maps"
	"sort"
)

// Layout is the canonical date-time format for occurrence start/end values.
// Lexicographic comparison of strings in this format is equivalent to
// chronological comparison.
const Layout = "2006-01-02 15:04:05"

// DefaultHumanReadableFormat is the date layout used when synthesizing
// recurrence descriptions, unless overridden in Options.
const DefaultHumanReadableFormat = "Jan 2, 2006"

// Series is one stored event definition, possibly recurring. Start and End
// are naive local date-time strings; End - Start is the base duration of
// every derived occurrence. Payload fields are opaque to the calendar and
// copied verbatim onto each occurrence.
type Series struct {
	Start                 string
	End                   string
	Title                 string
	Recurrence            *Recurrence
	RecurrenceDescription string
	Payload               map[string]any
}

// Recurrence describes how a series repeats.
type Recurrence struct {
	// Frequency is one of SECONDLY, MINUTELY, HOURLY, DAILY, WEEKLY,
	// MONTHLY, YEARLY (case-insensitive).
	Frequency string
	// Until is the inclusive upper bound for generated start instants.
	Until string
	// Exceptions are date-time-like strings for start instants to exclude.
	// Entries may be nested one level as single-key records (the shape some
	// upstream field editors produce), so elements are either a string or a
	// map with string values.
	Exceptions []any
	// Overrides, when present, replace the single-rule path entirely:
	// each override contributes its own rule and duration.
	Overrides []Override
}

// Override is a per-weekday variation in clock time and duration within one
// recurring series. Start and End are time-of-day strings on the series'
// base date; Weekdays is an optional BYDAY-style restriction ("MO".."SU").
type Override struct {
	Start    string
	End      string
	Weekdays []string
}

// Occurrence is one concrete instance derived from a series. Start and End
// are formatted in Layout for generated occurrences; non-recurring
// passthrough occurrences keep the series' original strings untouched.
type Occurrence struct {
	Start                 string
	End                   string
	Title                 string
	RecurrenceDescription string
	Payload               map[string]any
}

// Constraint filters generated occurrences to a window. EventMonth, when
// set, is a YYYY-MM shorthand that overrides Earliest/Latest with the first
// and last instants of that month.
type Constraint struct {
	Earliest   string
	Latest     string
	EventMonth string
}

// Options configures a Calendar instance.
type Options struct {
	// HumanReadableFormat is the Go date layout used for dates inside
	// synthesized recurrence descriptions.
	HumanReadableFormat string
	// FilterNonRecurring applies the constraint window to non-recurring
	// series as well. Off by default: non-recurring events are assumed to
	// have been bounded already by the storage query that loaded them.
	FilterNonRecurring bool
}

// Calendar expands event series into concrete occurrences. It holds no
// state between calls other than its options and is safe for concurrent
// use as long as inputs are not mutated during a call.
type Calendar struct {
	opts Options
}

// New creates a Calendar with the given options.
func New(opts Options) *Calendar {
	if opts.HumanReadableFormat == "" {
		opts.HumanReadableFormat = DefaultHumanReadableFormat
	}
	return &Calendar{opts: opts}
}

// Expand turns every series into zero or more occurrences, applies the
// constraint window, and returns the combined list sorted by start
// ascending. A series whose dates or recurrence fields fail to parse
// contributes nothing; one malformed record never aborts the whole listing.
func (c *Calendar) Expand(series []Series, constraints Constraint) []Occurrence {
	w := resolveWindow(constraints)

	occurrences := make([]Occurrence, 0, len(series))
	for _, s := range series {
		occurrences = append(occurrences, c.expandSeries(s, w)...)
	}

	// Stable: same-instant occurrences from different series keep their
	// input order, and within-series generation order is preserved.
	sort.SliceStable(occurrences, func(i, j int) bool {
		return occurrences[i].Start < occurrences[j].Start
	})

	return occurrences
}

func (s Series) recurring() bool {
	if s.Recurrence == nil {
		return false
	}
	r := s.Recurrence
	return r.Frequency != "" || r.Until != "" || len(r.Exceptions) > 0 || len(r.Overrides) > 0
}

// passthrough copies the series onto a single occurrence, fields untouched.
func (s Series) passthrough() Occurrence {
	return Occurrence{
		Start:                 s.Start,
		End:                   s.End,
		Title:                 s.Title,
		RecurrenceDescription: s.RecurrenceDescription,
		Payload:               maps.Clone(s.Payload),
	}
}

package calendar

import (
	"time"

	"github.com/teambition/rrule-go"
)

// normalizeExceptions flattens and aligns a series' exception entries into
// concrete excluded instants. Entries that still fail to parse after
// flattening are dropped.
func normalizeExceptions(entries []any, anchor time.Time, freq rrule.Frequency) []time.Time {
	flattened := make([]string, 0, len(entries))
	for _, entry := range entries {
		flattened = append(flattened, flattenException(entry)...)
	}

	aligned := make([]time.Time, 0, len(flattened))
	for _, raw := range flattened {
		t, ok := alignException(raw, anchor, freq)
		if !ok {
			continue
		}
		aligned = append(aligned, t)
	}
	return aligned
}

// flattenException unwraps one level of nesting: some field editors store
// each exception as a single-key record rather than a bare string.
func flattenException(entry any) []string {
	switch v := entry.(type) {
	case string:
		return []string{v}
	case map[string]any:
		values := make([]string, 0, len(v))
		for _, nested := range v {
			if s, ok := nested.(string); ok {
				values = append(values, s)
			}
		}
		return values
	case map[string]string:
		values := make([]string, 0, len(v))
		for _, nested := range v {
			values = append(values, nested)
		}
		return values
	}
	return nil
}

// alignException snaps an exception timestamp's clock components to the
// anchor's, at a granularity determined by the frequency. Exceptions are
// often entered at date precision only; alignment lets them match generated
// instants that share the anchor's clock time. SECONDLY is deliberately
// left as-is: every distinct second is a distinct occurrence, and
// re-aligning would destroy sub-minute distinctions.
func alignException(raw string, anchor time.Time, freq rrule.Frequency) (time.Time, bool) {
	t, err := parseDateTime(raw)
	if err != nil {
		return time.Time{}, false
	}

	switch freq {
	case rrule.SECONDLY:
		return t, true
	case rrule.MINUTELY:
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), anchor.Second(), 0, time.UTC), true
	case rrule.HOURLY:
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), anchor.Minute(), anchor.Second(), 0, time.UTC), true
	case rrule.DAILY, rrule.WEEKLY:
		return time.Date(t.Year(), t.Month(), t.Day(), anchor.Hour(), anchor.Minute(), anchor.Second(), 0, time.UTC), true
	case rrule.MONTHLY:
		return time.Date(t.Year(), t.Month(), anchor.Day(), anchor.Hour(), anchor.Minute(), anchor.Second(), 0, time.UTC), true
	case rrule.YEARLY:
		return time.Date(t.Year(), anchor.Month(), anchor.Day(), anchor.Hour(), anchor.Minute(), anchor.Second(), 0, time.UTC), true
	}
	return t, true
}

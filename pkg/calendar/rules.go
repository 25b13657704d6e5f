package calendar

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
)

const clockLayout = "15:04:05"

// weekdayClock keys the primary override-duration lookup: the generated
// instant's weekday combined with its clock time.
type weekdayClock struct {
	day   time.Weekday
	clock string
}

// durationTable resolves per-occurrence durations for the override path.
// Lookup order: weekday+clock, then clock alone, then the caller-supplied
// base duration. Falling back to the base duration is a deliberate recovery
// for instants no override claims, not an error.
type durationTable struct {
	byWeekdayClock map[weekdayClock]time.Duration
	byClock        map[string]time.Duration
}

func (d durationTable) lookup(instant time.Time, base time.Duration) time.Duration {
	clock := instant.Format(clockLayout)
	if dur, ok := d.byWeekdayClock[weekdayClock{instant.Weekday(), clock}]; ok {
		return dur
	}
	if dur, ok := d.byClock[clock]; ok {
		return dur
	}
	return base
}

// buildRules translates a series' recurrence into rule specs plus the
// duration table used to resolve per-occurrence end times. The simple path
// yields one rule anchored at the series start; with overrides, each entry
// yields its own rule anchored at the series' base date plus the override's
// clock time.
func buildRules(s Series, start, until time.Time, freq rrule.Frequency) ([]ruleSpec, durationTable, error) {
	durations := durationTable{
		byWeekdayClock: make(map[weekdayClock]time.Duration),
		byClock:        make(map[string]time.Duration),
	}

	if len(s.Recurrence.Overrides) == 0 {
		return []ruleSpec{{anchor: start, until: until, freq: freq}}, durations, nil
	}

	baseDate := start.Format("2006-01-02")

	rules := make([]ruleSpec, 0, len(s.Recurrence.Overrides))
	for _, override := range s.Recurrence.Overrides {
		anchor, err := parseDateTime(baseDate + " " + override.Start)
		if err != nil {
			return nil, durationTable{}, fmt.Errorf("override start %q: %w", override.Start, err)
		}
		end, err := parseDateTime(baseDate + " " + override.End)
		if err != nil {
			return nil, durationTable{}, fmt.Errorf("override end %q: %w", override.End, err)
		}
		dur := end.Sub(anchor)
		clock := anchor.Format(clockLayout)

		var byday []rrule.Weekday
		if len(override.Weekdays) > 0 {
			for _, code := range override.Weekdays {
				rruleDay, timeDay, err := parseWeekday(code)
				if err != nil {
					return nil, durationTable{}, err
				}
				byday = append(byday, rruleDay)
				durations.byWeekdayClock[weekdayClock{timeDay, clock}] = dur
			}
		} else {
			durations.byClock[clock] = dur
		}

		rules = append(rules, ruleSpec{
			anchor:   anchor,
			until:    until,
			freq:     freq,
			weekdays: byday,
		})
	}

	return rules, durations, nil
}

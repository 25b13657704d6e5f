package calendar

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

// ruleSpec is one concrete recurrence rule to generate instants from: an
// anchor, a frequency, an inclusive until bound, and an optional weekday
// restriction. A series on the simple path yields a single ruleSpec; the
// override path yields one per override entry.
type ruleSpec struct {
	anchor   time.Time
	until    time.Time
	freq     rrule.Frequency
	weekdays []rrule.Weekday
}

func parseFrequency(s string) (rrule.Frequency, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SECONDLY":
		return rrule.SECONDLY, nil
	case "MINUTELY":
		return rrule.MINUTELY, nil
	case "HOURLY":
		return rrule.HOURLY, nil
	case "DAILY":
		return rrule.DAILY, nil
	case "WEEKLY":
		return rrule.WEEKLY, nil
	case "MONTHLY":
		return rrule.MONTHLY, nil
	case "YEARLY":
		return rrule.YEARLY, nil
	}
	return 0, fmt.Errorf("invalid recurrence frequency: %q", s)
}

var frequencyAdverbs = map[rrule.Frequency]string{
	rrule.SECONDLY: "secondly",
	rrule.MINUTELY: "minutely",
	rrule.HOURLY:   "hourly",
	rrule.DAILY:    "daily",
	rrule.WEEKLY:   "weekly",
	rrule.MONTHLY:  "monthly",
	rrule.YEARLY:   "yearly",
}

var weekdayCodes = map[string]rrule.Weekday{
	"MO": rrule.MO,
	"TU": rrule.TU,
	"WE": rrule.WE,
	"TH": rrule.TH,
	"FR": rrule.FR,
	"SA": rrule.SA,
	"SU": rrule.SU,
}

var weekdayTime = map[string]time.Weekday{
	"MO": time.Monday,
	"TU": time.Tuesday,
	"WE": time.Wednesday,
	"TH": time.Thursday,
	"FR": time.Friday,
	"SA": time.Saturday,
	"SU": time.Sunday,
}

func parseWeekday(code string) (rrule.Weekday, time.Weekday, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	wd, ok := weekdayCodes[normalized]
	if !ok {
		return rrule.Weekday{}, 0, fmt.Errorf("invalid weekday code: %q", code)
	}
	return wd, weekdayTime[normalized], nil
}

// generate produces the ordered union of all instants generated by the
// rules, minus the excluded instants. Equal instants produced by more than
// one rule are collapsed into one.
func generate(rules []ruleSpec, exdates []time.Time) ([]time.Time, error) {
	var instants []time.Time
	for _, spec := range rules {
		r, err := rrule.NewRRule(rrule.ROption{
			Freq:      spec.freq,
			Dtstart:   spec.anchor,
			Until:     spec.until,
			Byweekday: spec.weekdays,
		})
		if err != nil {
			return nil, fmt.Errorf("building recurrence rule: %w", err)
		}

		// rrule.Set carries a single RRULE, so each rule gets its own set
		// and the results are merged below.
		var set rrule.Set
		set.RRule(r)
		for _, ex := range exdates {
			set.ExDate(ex)
		}
		instants = append(instants, set.All()...)
	}

	sort.Slice(instants, func(i, j int) bool { return instants[i].Before(instants[j]) })

	deduped := instants[:0]
	for i, t := range instants {
		if i > 0 && t.Equal(instants[i-1]) {
			continue
		}
		deduped = append(deduped, t)
	}
	return deduped, nil
}

package calendar

import (
	"maps"

	log "github.com/sirupsen/logrus"
)

// expandSeries produces the kept occurrences for one series. Parse failures
// are swallowed: the series contributes nothing and processing continues
// with the next one.
func (c *Calendar) expandSeries(s Series, w window) []Occurrence {
	if !s.recurring() {
		occ := s.passthrough()
		if c.opts.FilterNonRecurring && !w.satisfies(occ.Start) {
			return nil
		}
		return []Occurrence{occ}
	}

	occurrences, err := c.expandRecurring(s, w)
	if err != nil {
		log.Warnf("skipping series %q: %v", s.Title, err)
		return nil
	}
	return occurrences
}

func (c *Calendar) expandRecurring(s Series, w window) ([]Occurrence, error) {
	start, err := parseDateTime(s.Start)
	if err != nil {
		return nil, err
	}
	end, err := parseDateTime(s.End)
	if err != nil {
		return nil, err
	}
	baseDuration := end.Sub(start)

	freq, err := parseFrequency(s.Recurrence.Frequency)
	if err != nil {
		return nil, err
	}
	until, err := parseDateTime(s.Recurrence.Until)
	if err != nil {
		return nil, err
	}

	rules, durations, err := buildRules(s, start, until, freq)
	if err != nil {
		return nil, err
	}

	exdates := normalizeExceptions(s.Recurrence.Exceptions, start, freq)

	instants, err := generate(rules, exdates)
	if err != nil {
		return nil, err
	}

	// Resolved once per series and reused for every occurrence.
	description := s.RecurrenceDescription
	if description == "" {
		description = c.describe(rules[0])
	}

	occurrences := make([]Occurrence, 0, len(instants))
	for _, instant := range instants {
		d := durations.lookup(instant, baseDuration)
		occ := Occurrence{
			Start:                 instant.Format(Layout),
			End:                   instant.Add(d).Format(Layout),
			Title:                 s.Title,
			RecurrenceDescription: description,
			Payload:               maps.Clone(s.Payload),
		}
		if w.satisfies(occ.Start) {
			occurrences = append(occurrences, occ)
		}
	}
	return occurrences, nil
}

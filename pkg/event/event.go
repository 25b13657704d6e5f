package event

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gregcal/greg/pkg/calendar"
)

// Event is one stored event series. Until and Frequency are both required
// for an event to recur; anything less leaves the event non-recurring.
type Event struct {
	UID                   uuid.UUID
	Title                 string
	Category              string
	StartTime             time.Time
	EndTime               time.Time
	Frequency             string
	Until                 *time.Time
	Exceptions            []string
	Overrides             []calendar.Override
	RecurrenceDescription string
}

// Recurring reports whether this event expands into multiple occurrences.
func (e Event) Recurring() bool {
	return e.Frequency != "" && e.Until != nil
}

// FrequencyLabel is the display form of the frequency, e.g. "Weekly".
func (e Event) FrequencyLabel() string {
	if e.Frequency == "" {
		return ""
	}
	lower := strings.ToLower(e.Frequency)
	return strings.ToUpper(lower[:1]) + lower[1:]
}

// ToSeries converts a stored event into the calendar's series shape. The
// UID and category travel as opaque payload so they reappear on every
// derived occurrence.
func (e Event) ToSeries() calendar.Series {
	series := calendar.Series{
		Start:                 e.StartTime.Format(calendar.Layout),
		End:                   e.EndTime.Format(calendar.Layout),
		Title:                 e.Title,
		RecurrenceDescription: e.RecurrenceDescription,
		Payload: map[string]any{
			"uid":      e.UID.String(),
			"category": e.Category,
		},
	}

	if e.Recurring() {
		exceptions := make([]any, 0, len(e.Exceptions))
		for _, ex := range e.Exceptions {
			exceptions = append(exceptions, ex)
		}
		series.Recurrence = &calendar.Recurrence{
			Frequency:  e.Frequency,
			Until:      e.Until.Format(calendar.Layout),
			Exceptions: exceptions,
			Overrides:  e.Overrides,
		}
	}

	return series
}

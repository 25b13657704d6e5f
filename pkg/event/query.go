package event

import (
	"fmt"
	"time"

	"github.com/gregcal/greg/pkg/calendar"
)

// ErrInvalidInput marks construction-time validation failures: unparseable
// current_time, start_date, or end_date abort the whole query before any
// expansion is attempted. Handlers translate it to a 400 response.
var ErrInvalidInput = fmt.Errorf("invalid input")

// Params are the high-level listing parameters as passed by the caller.
// CurrentTime is always explicit; nothing in the query layer reads ambient
// time.
type Params struct {
	CurrentTime          string
	StartDate            string
	EndDate              string
	EventMonth           string
	Category             string
	TruncateCurrentMonth bool
	ExpandRecurrences    bool
}

// Filter is the storage-layer predicate derived from Params: candidate
// series are those whose stored start is at or after Start and whose end or
// until falls at or before End, optionally restricted by category.
type Filter struct {
	Start    time.Time
	End      time.Time
	Category string
}

// EventQuery computes the constraint window and storage filter for one
// listing request.
type EventQuery struct {
	params    Params
	now       time.Time
	startDate time.Time
	endDate   time.Time
}

// NewEventQuery validates the date parameters and derives the query window.
// The window start resolves from event_month, then start_date, then
// current_time; the window end from end_date or the last instant of the
// window start's month.
func NewEventQuery(params Params) (*EventQuery, error) {
	now, err := calendar.ParseDateTime(params.CurrentTime)
	if err != nil {
		return nil, fmt.Errorf("%w: current_time: %v", ErrInvalidInput, err)
	}

	startStr := params.CurrentTime
	if params.StartDate != "" {
		startStr = params.StartDate
	}
	if params.EventMonth != "" {
		startStr = params.EventMonth
	}
	startDate, err := calendar.ParseDateTime(startStr)
	if err != nil {
		return nil, fmt.Errorf("%w: start_date: %v", ErrInvalidInput, err)
	}

	var endDate time.Time
	if params.EndDate != "" {
		endDate, err = calendar.ParseDateTime(params.EndDate)
		if err != nil {
			return nil, fmt.Errorf("%w: end_date: %v", ErrInvalidInput, err)
		}
	} else {
		firstOfMonth := time.Date(startDate.Year(), startDate.Month(), 1, 0, 0, 0, 0, time.UTC)
		endDate = firstOfMonth.AddDate(0, 1, -1)
	}

	return &EventQuery{
		params:    params,
		now:       now,
		startDate: startDate,
		endDate:   endDate,
	}, nil
}

// Filter returns the storage predicate for this query.
func (q *EventQuery) Filter() Filter {
	return Filter{
		Start:    q.filterStart(),
		End:      q.filterEnd(),
		Category: q.params.Category,
	}
}

// RecurrenceConstraints returns the window passed into recurrence
// expansion, mirroring the storage filter bounds plus the raw event_month
// shorthand.
func (q *EventQuery) RecurrenceConstraints() calendar.Constraint {
	return calendar.Constraint{
		Earliest:   q.filterStart().Format(calendar.Layout),
		Latest:     q.filterEnd().Format(calendar.Layout),
		EventMonth: q.params.EventMonth,
	}
}

func (q *EventQuery) filterStart() time.Time {
	// An explicit start_date is honored precisely (at midnight).
	if q.params.StartDate != "" {
		return atMidnight(q.startDate)
	}
	if q.params.TruncateCurrentMonth && sameMonth(q.startDate, q.now) {
		return atMidnight(q.now)
	}
	return time.Date(q.startDate.Year(), q.startDate.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func (q *EventQuery) filterEnd() time.Time {
	return time.Date(q.endDate.Year(), q.endDate.Month(), q.endDate.Day(), 23, 59, 59, 0, time.UTC)
}

// Month is the queried month formatted as YYYY-MM.
func (q *EventQuery) Month() string {
	return q.startDate.Format("2006-01")
}

// PrevMonth is the month before the queried one, for listing navigation.
func (q *EventQuery) PrevMonth() string {
	return q.firstOfMonth().AddDate(0, -1, 0).Format("2006-01")
}

// NextMonth is the month after the queried one, for listing navigation.
func (q *EventQuery) NextMonth() string {
	return q.firstOfMonth().AddDate(0, 1, 0).Format("2006-01")
}

// firstOfMonth anchors month arithmetic at day 1 so a start date late in a
// long month cannot skip over a short neighboring month.
func (q *EventQuery) firstOfMonth() time.Time {
	return time.Date(q.startDate.Year(), q.startDate.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func atMidnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func sameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}

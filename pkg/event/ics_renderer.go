package event

import (
	"fmt"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"github.com/gregcal/greg/pkg/calendar"
)

// IcsRenderer serializes an expanded occurrence listing as a VCALENDAR
// document, one VEVENT per occurrence.
type IcsRenderer interface {
	RenderOccurrences(occurrences []calendar.Occurrence) (string, error)
}

type IcsRendererImpl struct {
	prodID string
}

func NewIcsRenderer() *IcsRendererImpl {
	return &IcsRendererImpl{prodID: "-//gregcal//greg//EN"}
}

func (r *IcsRendererImpl) RenderOccurrences(occurrences []calendar.Occurrence) (string, error) {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(r.prodID)

	for _, occ := range occurrences {
		start, err := calendar.ParseDateTime(occ.Start)
		if err != nil {
			return "", fmt.Errorf("occurrence start %q: %w", occ.Start, err)
		}
		end, err := calendar.ParseDateTime(occ.End)
		if err != nil {
			return "", fmt.Errorf("occurrence end %q: %w", occ.End, err)
		}

		// Per-instance UID: the series uid plus the instance start keeps
		// occurrences of one series distinct within the feed.
		uid := uuid.NewString()
		if seriesUID, ok := occ.Payload["uid"].(string); ok && seriesUID != "" {
			uid = seriesUID
		}
		instanceUID := fmt.Sprintf("%s-%d@greg", uid, start.Unix())

		vevent := cal.AddEvent(instanceUID)
		vevent.SetSummary(occ.Title)
		vevent.SetStartAt(start)
		vevent.SetEndAt(end)
		if occ.RecurrenceDescription != "" {
			vevent.SetDescription(occ.RecurrenceDescription)
		}
		if category, ok := occ.Payload["category"].(string); ok && category != "" {
			vevent.AddProperty(ics.ComponentPropertyCategories, category)
		}
	}

	return cal.Serialize(), nil
}

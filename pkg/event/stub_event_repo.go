package event

import (
	"context"

	"github.com/google/uuid"
)

type StubEventRepository struct {
	Events []Event
}

func (s *StubEventRepository) StoreEvent(ctx context.Context, event Event) (uuid.UUID, error) {
	if event.UID == uuid.Nil {
		event.UID = uuid.New()
	}
	s.Events = append(s.Events, event)
	return event.UID, nil
}

func (s *StubEventRepository) DeleteEvent(ctx context.Context, uid uuid.UUID) error {
	for i, event := range s.Events {
		if event.UID == uid {
			s.Events = append(s.Events[:i], s.Events[i+1:]...)
			return nil
		}
	}
	return ErrEventNotFound
}

func (s *StubEventRepository) FindEvents(ctx context.Context, filter Filter) ([]Event, error) {
	events := make([]Event, 0, len(s.Events))
	for _, event := range s.Events {
		if filter.Category != "" && event.Category != filter.Category {
			continue
		}
		events = append(events, event)
	}
	return events, nil
}

func (s *StubEventRepository) Cleanup() {
	s.Events = []Event{}
}

package event

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/gregcal/greg/internal/event_bus"
	"github.com/gregcal/greg/pkg/calendar"
	log "github.com/sirupsen/logrus"
)

// ErrInvalidEvent marks a create request that fails domain validation.
var ErrInvalidEvent = fmt.Errorf("invalid event")

type EventService interface {
	// GetOccurrences expands every matching series into concrete
	// occurrences within the window derived from params.
	GetOccurrences(ctx context.Context, params Params) ([]calendar.Occurrence, error)
	// GetSeries returns matching series whole, without expansion.
	GetSeries(ctx context.Context, params Params) ([]Event, error)
	CreateEvent(ctx context.Context, event Event) (Event, error)
	DeleteEvent(ctx context.Context, uid uuid.UUID) error
}

type EventServiceImpl struct {
	repo  EventRepository
	cal   *calendar.Calendar
	bus   *event_bus.EventBus
	cache *listingCache
}

func NewEventService(repo EventRepository, cal *calendar.Calendar, bus *event_bus.EventBus) *EventServiceImpl {
	s := &EventServiceImpl{
		repo:  repo,
		cal:   cal,
		bus:   bus,
		cache: newListingCache(),
	}

	// Any stored-event mutation makes cached listings stale.
	bus.Subscribe(event_bus.EventCreatedType, func(event_bus.Event) error {
		s.cache.invalidate()
		return nil
	})
	bus.Subscribe(event_bus.EventDeletedType, func(event_bus.Event) error {
		s.cache.invalidate()
		return nil
	})

	return s
}

func (s *EventServiceImpl) GetOccurrences(ctx context.Context, params Params) ([]calendar.Occurrence, error) {
	query, err := NewEventQuery(params)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%+v", params)
	if occurrences, ok := s.cache.get(key); ok {
		log.Tracef("serving cached listing for %s", key)
		return occurrences, nil
	}

	events, err := s.repo.FindEvents(ctx, query.Filter())
	if err != nil {
		return nil, err
	}

	series := make([]calendar.Series, 0, len(events))
	for _, event := range events {
		series = append(series, event.ToSeries())
	}

	occurrences := s.cal.Expand(series, query.RecurrenceConstraints())
	s.cache.put(key, occurrences)
	return occurrences, nil
}

func (s *EventServiceImpl) GetSeries(ctx context.Context, params Params) ([]Event, error) {
	query, err := NewEventQuery(params)
	if err != nil {
		return nil, err
	}
	return s.repo.FindEvents(ctx, query.Filter())
}

func (s *EventServiceImpl) CreateEvent(ctx context.Context, event Event) (Event, error) {
	if err := validateEvent(event); err != nil {
		return Event{}, err
	}

	uid, err := s.repo.StoreEvent(ctx, event)
	if err != nil {
		return Event{}, err
	}
	event.UID = uid

	if err := s.bus.Publish(event_bus.NewEvent(ctx, event_bus.EventCreatedType, event_bus.EventCreated{
		UID:       uid.String(),
		Title:     event.Title,
		StartTime: event.StartTime,
		EndTime:   event.EndTime,
		Recurring: event.Recurring(),
	})); err != nil {
		log.Warnf("event created handlers failed: %v", err)
	}

	return event, nil
}

func (s *EventServiceImpl) DeleteEvent(ctx context.Context, uid uuid.UUID) error {
	if err := s.repo.DeleteEvent(ctx, uid); err != nil {
		return err
	}

	if err := s.bus.Publish(event_bus.NewEvent(ctx, event_bus.EventDeletedType, event_bus.EventDeleted{
		UID: uid.String(),
	})); err != nil {
		log.Warnf("event deleted handlers failed: %v", err)
	}

	return nil
}

func validateEvent(event Event) error {
	if event.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidEvent)
	}
	if event.StartTime.IsZero() || event.EndTime.IsZero() {
		return fmt.Errorf("%w: start and end times are required", ErrInvalidEvent)
	}
	if event.EndTime.Before(event.StartTime) {
		return fmt.Errorf("%w: end time precedes start time", ErrInvalidEvent)
	}
	// Frequency and until only make sense together.
	if (event.Frequency != "") != (event.Until != nil) {
		return fmt.Errorf("%w: recurrence requires both frequency and until", ErrInvalidEvent)
	}
	return nil
}

package event

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gregcal/greg/pkg/calendar"
	log "github.com/sirupsen/logrus"
)

// ErrEventNotFound is returned when a UID does not match any stored event.
var ErrEventNotFound = errors.New("event not found")

type EventRepository interface {
	StoreEvent(ctx context.Context, event Event) (uuid.UUID, error)
	DeleteEvent(ctx context.Context, uid uuid.UUID) error
	FindEvents(ctx context.Context, filter Filter) ([]Event, error)
}

type EventRepositoryImpl struct {
	db *sql.DB
}

func NewEventRepo(db *sql.DB) *EventRepositoryImpl {
	return &EventRepositoryImpl{db: db}
}

// overrideRecord is the jsonb shape for one schedule override.
type overrideRecord struct {
	Start    string   `json:"start"`
	End      string   `json:"end"`
	Weekdays []string `json:"weekdays,omitempty"`
}

func (r *EventRepositoryImpl) StoreEvent(ctx context.Context, event Event) (uuid.UUID, error) {
	query := `INSERT INTO event (
				uid,
				title,
				category,
				start_time,
				end_time,
				frequency,
				until,
				exceptions,
				overrides,
				recurrence_description
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	uid := event.UID
	if uid == uuid.Nil {
		uid = uuid.New()
	}

	exceptions, err := json.Marshal(event.Exceptions)
	if err != nil {
		return uuid.Nil, fmt.Errorf("could not encode exceptions: %w", err)
	}
	overrides := make([]overrideRecord, 0, len(event.Overrides))
	for _, o := range event.Overrides {
		overrides = append(overrides, overrideRecord{Start: o.Start, End: o.End, Weekdays: o.Weekdays})
	}
	overridesJSON, err := json.Marshal(overrides)
	if err != nil {
		return uuid.Nil, fmt.Errorf("could not encode overrides: %w", err)
	}

	var until *time.Time
	if event.Until != nil {
		u := *event.Until
		until = &u
	}

	_, err = r.db.ExecContext(ctx, query,
		uid.String(),
		event.Title,
		event.Category,
		event.StartTime,
		event.EndTime,
		event.Frequency,
		until,
		exceptions,
		overridesJSON,
		event.RecurrenceDescription,
	)
	if err != nil {
		err := fmt.Errorf("could not store event: %w", err)
		log.Error(err)
		return uuid.Nil, err
	}

	return uid, nil
}

func (r *EventRepositoryImpl) DeleteEvent(ctx context.Context, uid uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM event WHERE uid = $1", uid.String())
	if err != nil {
		err := fmt.Errorf("could not delete event: %w", err)
		log.Error(err)
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrEventNotFound
	}
	return nil
}

// FindEvents returns candidate series whose stored start/end/until fields
// could intersect the filter window, ordered by start time.
func (r *EventRepositoryImpl) FindEvents(ctx context.Context, filter Filter) ([]Event, error) {
	query := `SELECT uid, title, category, start_time, end_time, frequency, until, exceptions, overrides, recurrence_description
			FROM event
			WHERE start_time >= $1
			  AND (end_time <= $2 OR until <= $2)
			  AND ($3 = '' OR category = $3)
			ORDER BY start_time`

	rows, err := r.db.QueryContext(ctx, query, filter.Start, filter.End, filter.Category)
	if err != nil {
		err := fmt.Errorf("could not query events: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	events := make([]Event, 0, 10)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			log.Error(err)
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("could not iterate events: %w", err)
	}

	return events, nil
}

func scanEvent(rows *sql.Rows) (Event, error) {
	var (
		event         Event
		uidStr        string
		until         sql.NullTime
		exceptions    []byte
		overridesJSON []byte
	)
	err := rows.Scan(
		&uidStr,
		&event.Title,
		&event.Category,
		&event.StartTime,
		&event.EndTime,
		&event.Frequency,
		&until,
		&exceptions,
		&overridesJSON,
		&event.RecurrenceDescription,
	)
	if err != nil {
		return Event{}, fmt.Errorf("could not scan event row: %w", err)
	}

	event.UID, err = uuid.Parse(uidStr)
	if err != nil {
		return Event{}, fmt.Errorf("could not parse event uid: %w", err)
	}
	if until.Valid {
		u := until.Time.UTC()
		event.Until = &u
	}
	event.StartTime = event.StartTime.UTC()
	event.EndTime = event.EndTime.UTC()

	if len(exceptions) > 0 {
		if err := json.Unmarshal(exceptions, &event.Exceptions); err != nil {
			return Event{}, fmt.Errorf("could not decode exceptions: %w", err)
		}
	}
	if len(overridesJSON) > 0 {
		var records []overrideRecord
		if err := json.Unmarshal(overridesJSON, &records); err != nil {
			return Event{}, fmt.Errorf("could not decode overrides: %w", err)
		}
		for _, record := range records {
			event.Overrides = append(event.Overrides, calendar.Override{
				Start:    record.Start,
				End:      record.End,
				Weekdays: record.Weekdays,
			})
		}
	}

	return event, nil
}

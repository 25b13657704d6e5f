package event_bus

import "time"

const (
	EventCreatedType EventType = "greg.event.created"
	EventDeletedType EventType = "greg.event.deleted"
)

type EventCreated struct {
	UID       string
	Title     string
	StartTime time.Time
	EndTime   time.Time
	Recurring bool
}

type EventDeleted struct {
	UID string
}

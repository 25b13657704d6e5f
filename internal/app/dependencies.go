package app

import (
	"database/sql"

	"github.com/gregcal/greg/internal/config"
	"github.com/gregcal/greg/internal/event_bus"
	"github.com/gregcal/greg/internal/utils"
	"github.com/gregcal/greg/pkg/calendar"
	"github.com/gregcal/greg/pkg/event"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	Bus      *event_bus.EventBus
	Calendar *calendar.Calendar

	EventRepo    event.EventRepository
	EventService event.EventService
	EventHandler *event.EventHandler

	IcsRenderer event.IcsRenderer

	Clock utils.Clock
}

// BuildDependencies initializes and wires all application services and handlers.
func BuildDependencies(db *sql.DB, cfg config.Application) *Dependencies {
	deps := &Dependencies{}

	deps.Clock = &utils.SystemClock{}
	deps.Bus = event_bus.NewEventBus()
	deps.Calendar = calendar.New(calendar.Options{
		HumanReadableFormat: cfg.Calendar.HumanReadableFormat,
		FilterNonRecurring:  cfg.Calendar.FilterNonRecurring,
	})

	deps.EventRepo = event.NewEventRepo(db)
	deps.EventService = event.NewEventService(deps.EventRepo, deps.Calendar, deps.Bus)
	deps.IcsRenderer = event.NewIcsRenderer()
	deps.EventHandler = event.NewEventHandler(deps.EventService, deps.IcsRenderer, deps.Clock)

	return deps
}

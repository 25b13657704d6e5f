package event

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gregcal/greg/internal/rest"
	"github.com/gregcal/greg/internal/utils"
	"github.com/gregcal/greg/pkg/calendar"
	log "github.com/sirupsen/logrus"
)

type OccurrenceDTO struct {
	EventUID              string `json:"eventUid,omitempty"`
	Title                 string `json:"title"`
	Category              string `json:"category,omitempty"`
	Start                 string `json:"start"`
	End                   string `json:"end"`
	RecurrenceDescription string `json:"recurrenceDescription,omitempty"`
}

type RecurrenceDTO struct {
	Frequency   string        `json:"frequency"`
	Until       string        `json:"until"`
	Exceptions  []string      `json:"exceptions,omitempty"`
	Overrides   []OverrideDTO `json:"overrides,omitempty"`
	Description string        `json:"description,omitempty"`
}

type OverrideDTO struct {
	Start    string   `json:"start"`
	End      string   `json:"end"`
	Weekdays []string `json:"weekdays,omitempty"`
}

type EventDTO struct {
	UID        string         `json:"uid,omitempty"`
	Title      string         `json:"title"`
	Category   string         `json:"category,omitempty"`
	Start      string         `json:"start"`
	End        string         `json:"end"`
	Recurrence *RecurrenceDTO `json:"recurrence,omitempty"`
}

// ListResponse carries either expanded occurrences or whole series,
// depending on the expand_recurrences parameter, plus month navigation.
type ListResponse struct {
	Month       string          `json:"month"`
	PrevMonth   string          `json:"prevMonth"`
	NextMonth   string          `json:"nextMonth"`
	Occurrences []OccurrenceDTO `json:"occurrences,omitempty"`
	Events      []EventDTO      `json:"events,omitempty"`
}

type EventHandler struct {
	eventService EventService
	icsRenderer  IcsRenderer
	clock        utils.Clock
}

func NewEventHandler(eventService EventService, icsRenderer IcsRenderer, clock utils.Clock) *EventHandler {
	return &EventHandler{eventService, icsRenderer, clock}
}

// paramsFromRequest builds listing params from the request query string.
// current_time defaults to the server clock; everything else is optional.
func (h *EventHandler) paramsFromRequest(r *http.Request) Params {
	q := r.URL.Query()

	currentTime := q.Get("current_time")
	if currentTime == "" {
		currentTime = h.clock.Now().UTC().Format(calendar.Layout)
	}

	return Params{
		CurrentTime:          currentTime,
		StartDate:            q.Get("start_date"),
		EndDate:              q.Get("end_date"),
		EventMonth:           q.Get("event_month"),
		Category:             q.Get("event_category"),
		TruncateCurrentMonth: q.Get("truncate_current_month") == "true",
		ExpandRecurrences:    q.Get("expand_recurrences") != "false",
	}
}

func (h *EventHandler) GetEvents(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	params := h.paramsFromRequest(r)

	query, err := NewEventQuery(params)
	if err != nil {
		writeQueryError(w, err)
		return
	}

	response := ListResponse{
		Month:     query.Month(),
		PrevMonth: query.PrevMonth(),
		NextMonth: query.NextMonth(),
	}

	if params.ExpandRecurrences {
		occurrences, err := h.eventService.GetOccurrences(r.Context(), params)
		if err != nil {
			writeQueryError(w, err)
			return
		}
		response.Occurrences = make([]OccurrenceDTO, 0, len(occurrences))
		for _, occ := range occurrences {
			response.Occurrences = append(response.Occurrences, occurrenceToDTO(occ))
		}
	} else {
		events, err := h.eventService.GetSeries(r.Context(), params)
		if err != nil {
			writeQueryError(w, err)
			return
		}
		response.Events = make([]EventDTO, 0, len(events))
		for _, event := range events {
			response.Events = append(response.Events, eventToDTO(event))
		}
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *EventHandler) GetFeed(w http.ResponseWriter, r *http.Request) {
	params := h.paramsFromRequest(r)
	params.ExpandRecurrences = true

	occurrences, err := h.eventService.GetOccurrences(r.Context(), params)
	if err != nil {
		writeQueryError(w, err)
		return
	}

	feed, err := h.icsRenderer.RenderOccurrences(occurrences)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="events.ics"`)
	if _, err := w.Write([]byte(feed)); err != nil {
		log.Errorf("failed to write ICS feed: %v", err)
	}
}

func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var dto EventDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		writeJSON(w, rest.ErrorResponse{Error: "Invalid request body format"})
		return
	}

	event, err := eventFromDTO(dto)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		writeJSON(w, rest.ErrorResponse{Error: "Invalid event", Details: err.Error()})
		return
	}

	stored, err := h.eventService.CreateEvent(r.Context(), event)
	if err != nil {
		if errors.Is(err, ErrInvalidEvent) {
			w.WriteHeader(http.StatusBadRequest)
			writeJSON(w, rest.ErrorResponse{Error: "Invalid event", Details: err.Error()})
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	writeJSON(w, eventToDTO(stored))
}

func (h *EventHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	uid, err := uuid.Parse(mux.Vars(r)["eventId"])
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		writeJSON(w, rest.ErrorResponse{Error: "Invalid event id"})
		return
	}

	if err := h.eventService.DeleteEvent(r.Context(), uid); err != nil {
		if errors.Is(err, ErrEventNotFound) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func writeQueryError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrInvalidInput) {
		w.WriteHeader(http.StatusBadRequest)
		writeJSON(w, rest.ErrorResponse{Error: "Invalid query parameters", Details: err.Error()})
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, v any) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("failed to encode response: %v", err)
	}
}

func occurrenceToDTO(occ calendar.Occurrence) OccurrenceDTO {
	dto := OccurrenceDTO{
		Title:                 occ.Title,
		Start:                 occ.Start,
		End:                   occ.End,
		RecurrenceDescription: occ.RecurrenceDescription,
	}
	if uid, ok := occ.Payload["uid"].(string); ok {
		dto.EventUID = uid
	}
	if category, ok := occ.Payload["category"].(string); ok {
		dto.Category = category
	}
	return dto
}

func eventToDTO(event Event) EventDTO {
	dto := EventDTO{
		UID:      event.UID.String(),
		Title:    event.Title,
		Category: event.Category,
		Start:    event.StartTime.Format(calendar.Layout),
		End:      event.EndTime.Format(calendar.Layout),
	}
	if event.Recurring() {
		recurrence := &RecurrenceDTO{
			Frequency:   event.Frequency,
			Until:       event.Until.Format(calendar.Layout),
			Exceptions:  event.Exceptions,
			Description: event.RecurrenceDescription,
		}
		for _, o := range event.Overrides {
			recurrence.Overrides = append(recurrence.Overrides, OverrideDTO{
				Start:    o.Start,
				End:      o.End,
				Weekdays: o.Weekdays,
			})
		}
		dto.Recurrence = recurrence
	}
	return dto
}

func eventFromDTO(dto EventDTO) (Event, error) {
	start, err := calendar.ParseDateTime(dto.Start)
	if err != nil {
		return Event{}, err
	}
	end, err := calendar.ParseDateTime(dto.End)
	if err != nil {
		return Event{}, err
	}

	event := Event{
		Title:     dto.Title,
		Category:  dto.Category,
		StartTime: start,
		EndTime:   end,
	}
	if dto.UID != "" {
		uid, err := uuid.Parse(dto.UID)
		if err != nil {
			return Event{}, err
		}
		event.UID = uid
	}

	if dto.Recurrence != nil {
		var until *time.Time
		if dto.Recurrence.Until != "" {
			u, err := calendar.ParseDateTime(dto.Recurrence.Until)
			if err != nil {
				return Event{}, err
			}
			until = &u
		}
		event.Frequency = dto.Recurrence.Frequency
		event.Until = until
		event.Exceptions = dto.Recurrence.Exceptions
		event.RecurrenceDescription = dto.Recurrence.Description
		for _, o := range dto.Recurrence.Overrides {
			event.Overrides = append(event.Overrides, calendar.Override{
				Start:    o.Start,
				End:      o.End,
				Weekdays: o.Weekdays,
			})
		}
	}

	return event, nil
}

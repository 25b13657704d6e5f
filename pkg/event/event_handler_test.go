package event

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gregcal/greg/internal/event_bus"
	"github.com/gregcal/greg/internal/utils"
	"github.com/gregcal/greg/pkg/calendar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupHandler(t *testing.T) (*mux.Router, *StubEventRepository) {
	t.Helper()

	repo := &StubEventRepository{}
	svc := NewEventService(repo, calendar.New(calendar.Options{}), event_bus.NewEventBus())
	clock := &utils.MockClock{FixedNow: time.Date(2020, 2, 15, 12, 0, 0, 0, time.UTC)}
	handler := NewEventHandler(svc, NewIcsRenderer(), clock)

	r := mux.NewRouter()
	r.HandleFunc("/api/event", handler.GetEvents).Methods("GET")
	r.HandleFunc("/api/event", handler.CreateEvent).Methods("POST")
	r.HandleFunc("/api/event/feed.ics", handler.GetFeed).Methods("GET")
	r.HandleFunc("/api/event/{eventId}", handler.DeleteEvent).Methods("DELETE")
	return r, repo
}

func storedRecurringEvent(t *testing.T, repo *StubEventRepository) Event {
	t.Helper()

	until := time.Date(2020, 2, 17, 10, 0, 0, 0, time.UTC)
	event := Event{
		UID:       uuid.New(),
		Title:     "Weekly Standup",
		Category:  "meetings",
		StartTime: time.Date(2020, 2, 3, 10, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2020, 2, 3, 10, 30, 0, 0, time.UTC),
		Frequency: "weekly",
		Until:     &until,
	}
	repo.Events = append(repo.Events, event)
	return event
}

func TestEventHandler_GetEvents(t *testing.T) {
	t.Run("should list expanded occurrences by default", func(t *testing.T) {
		router, repo := setupHandler(t)
		event := storedRecurringEvent(t, repo)

		req := httptest.NewRequest("GET", "/api/event?event_month=2020-02", nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)

		require.Equal(t, http.StatusOK, resp.Code)
		var body ListResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

		assert.Equal(t, "2020-02", body.Month)
		assert.Equal(t, "2020-01", body.PrevMonth)
		assert.Equal(t, "2020-03", body.NextMonth)
		require.Len(t, body.Occurrences, 3)
		assert.Equal(t, "2020-02-03 10:00:00", body.Occurrences[0].Start)
		assert.Equal(t, event.UID.String(), body.Occurrences[0].EventUID)
		assert.Equal(t, "meetings", body.Occurrences[0].Category)
	})

	t.Run("should default the window to the clock's month", func(t *testing.T) {
		router, repo := setupHandler(t)
		storedRecurringEvent(t, repo)

		req := httptest.NewRequest("GET", "/api/event", nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)

		require.Equal(t, http.StatusOK, resp.Code)
		var body ListResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "2020-02", body.Month)
		assert.Len(t, body.Occurrences, 3)
	})

	t.Run("should return whole series when expansion is disabled", func(t *testing.T) {
		router, repo := setupHandler(t)
		storedRecurringEvent(t, repo)

		req := httptest.NewRequest("GET", "/api/event?expand_recurrences=false", nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)

		require.Equal(t, http.StatusOK, resp.Code)
		var body ListResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Empty(t, body.Occurrences)
		require.Len(t, body.Events, 1)
		assert.Equal(t, "Weekly Standup", body.Events[0].Title)
		require.NotNil(t, body.Events[0].Recurrence)
		assert.Equal(t, "weekly", body.Events[0].Recurrence.Frequency)
	})

	t.Run("should reject invalid date parameters", func(t *testing.T) {
		router, _ := setupHandler(t)

		req := httptest.NewRequest("GET", "/api/event?start_date=whenever", nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)

		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})
}

func TestEventHandler_CreateEvent(t *testing.T) {
	t.Run("should create an event from a valid payload", func(t *testing.T) {
		router, repo := setupHandler(t)

		payload := `{
			"title": "Gallery Opening",
			"category": "exhibits",
			"start": "2020-02-21 18:00:00",
			"end": "2020-02-21 21:00:00"
		}`
		req := httptest.NewRequest("POST", "/api/event", strings.NewReader(payload))
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)

		require.Equal(t, http.StatusCreated, resp.Code)
		var body EventDTO
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "Gallery Opening", body.Title)
		assert.NotEmpty(t, body.UID)
		assert.Len(t, repo.Events, 1)
	})

	t.Run("should create a recurring event", func(t *testing.T) {
		router, repo := setupHandler(t)

		payload := `{
			"title": "Weekly Standup",
			"start": "2020-02-03 10:00:00",
			"end": "2020-02-03 10:30:00",
			"recurrence": {
				"frequency": "weekly",
				"until": "2020-02-17 10:00:00",
				"exceptions": ["2020-02-10"]
			}
		}`
		req := httptest.NewRequest("POST", "/api/event", strings.NewReader(payload))
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)

		require.Equal(t, http.StatusCreated, resp.Code)
		require.Len(t, repo.Events, 1)
		assert.True(t, repo.Events[0].Recurring())
		assert.Equal(t, []string{"2020-02-10"}, repo.Events[0].Exceptions)
	})

	t.Run("should reject malformed JSON", func(t *testing.T) {
		router, _ := setupHandler(t)

		req := httptest.NewRequest("POST", "/api/event", strings.NewReader("{nope"))
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)

		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("should reject invalid events with a 400", func(t *testing.T) {
		router, _ := setupHandler(t)

		payload := `{
			"title": "",
			"start": "2020-02-21 18:00:00",
			"end": "2020-02-21 21:00:00"
		}`
		req := httptest.NewRequest("POST", "/api/event", strings.NewReader(payload))
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)

		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})
}

func TestEventHandler_DeleteEvent(t *testing.T) {
	t.Run("should delete an existing event", func(t *testing.T) {
		router, repo := setupHandler(t)
		event := storedRecurringEvent(t, repo)

		req := httptest.NewRequest("DELETE", "/api/event/"+event.UID.String(), nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)

		assert.Equal(t, http.StatusNoContent, resp.Code)
		assert.Empty(t, repo.Events)
	})

	t.Run("should return 404 for an unknown uid", func(t *testing.T) {
		router, _ := setupHandler(t)

		req := httptest.NewRequest("DELETE", "/api/event/"+uuid.NewString(), nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)

		assert.Equal(t, http.StatusNotFound, resp.Code)
	})

	t.Run("should return 400 for a malformed uid", func(t *testing.T) {
		router, _ := setupHandler(t)

		req := httptest.NewRequest("DELETE", "/api/event/not-a-uuid", nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)

		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})
}

func TestEventHandler_GetFeed(t *testing.T) {
	router, repo := setupHandler(t)
	storedRecurringEvent(t, repo)

	req := httptest.NewRequest("GET", "/api/event/feed.ics?event_month=2020-02", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Header().Get("Content-Type"), "text/calendar")

	feed := resp.Body.String()
	assert.Contains(t, feed, "BEGIN:VCALENDAR")
	assert.Contains(t, feed, "SUMMARY:Weekly Standup")
	assert.Equal(t, 3, strings.Count(feed, "BEGIN:VEVENT"))
}

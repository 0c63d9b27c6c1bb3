package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/guestlist/internal/service"
)

// EventHandler serves /api/events and the per-event stats dashboard.
type EventHandler struct {
	events *service.EventService
	stats  *service.StatsService
	logger *slog.Logger
}

func NewEventHandler(events *service.EventService, stats *service.StatsService, logger *slog.Logger) *EventHandler {
	return &EventHandler{events: events, stats: stats, logger: logger}
}

// HandleList returns the caller's events.
//
// HTTP: GET /api/events
func (h *EventHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.List(r.Context(), callerID(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// HandleCreate creates an event owned by the caller.
//
// HTTP: POST /api/events
// Body: {"name": "...", "date": "2030-06-01T22:00:00Z", "duration": 6, "description": "..."}
func (h *EventHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in service.EventInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	event, err := h.events.Create(r.Context(), callerID(r), in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

// HTTP: GET /api/events/{eventId}
func (h *EventHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "eventId")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	event, err := h.events.Get(r.Context(), callerID(r), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// HTTP: PUT /api/events/{eventId}
func (h *EventHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "eventId")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var in service.EventInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	event, err := h.events.Update(r.Context(), callerID(r), id, in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// HandleDelete removes an event with all its ticket types and guests.
//
// HTTP: DELETE /api/events/{eventId}
func (h *EventHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "eventId")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.events.Delete(r.Context(), callerID(r), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleStats returns the check-in dashboard of an event.
//
// HTTP: GET /api/events/{eventId}/stats
// Response: {"totalGuests": 3, "enteredGuests": 2,
//
//	"ticketTypeCounts": {"VIP": 2, "Pista": 1},
//	"entryTimeline": [{"hour": 22, "count": 1}, {"hour": 23, "count": 1}]}
func (h *EventHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "eventId")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	stats, err := h.stats.EventStats(r.Context(), callerID(r), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

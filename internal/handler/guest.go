package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/sakif/guestlist/internal/apperror"
	"github.com/sakif/guestlist/internal/model"
	"github.com/sakif/guestlist/internal/service"
)

type GuestHandler struct {
	guests *service.GuestService
	logger *slog.Logger
}

func NewGuestHandler(guests *service.GuestService, logger *slog.Logger) *GuestHandler {
	return &GuestHandler{guests: guests, logger: logger}
}

// HandleList returns an event's guests, newest first.
//
// HTTP: GET /api/events/{eventId}/guests?entered=false&ticketTypeId=3&q=ana
func (h *GuestHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	eventID, err := idParam(r, "eventId")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	filter, err := parseGuestFilter(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	guests, err := h.guests.List(r.Context(), callerID(r), eventID, filter)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, guests)
}

func parseGuestFilter(r *http.Request) (model.GuestFilter, error) {
	q := r.URL.Query()
	filter := model.GuestFilter{Query: strings.TrimSpace(q.Get("q"))}

	if v := q.Get("entered"); v != "" {
		entered, err := strconv.ParseBool(v)
		if err != nil {
			return filter, apperror.ValidationFailed("entered", "entered must be true or false")
		}
		filter.Entered = model.Some(entered)
	}

	if v := q.Get("ticketTypeId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			return filter, apperror.ValidationFailed("ticketTypeId", "ticketTypeId must be a positive integer")
		}
		filter.TicketTypeID = model.Some(id)
	}

	return filter, nil
}

// HTTP: POST /api/events/{eventId}/guests
// Body: {"name": "Ana", "ticketTypeId": 3, "observations": "+1"}
func (h *GuestHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	eventID, err := idParam(r, "eventId")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var in service.GuestInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	guest, err := h.guests.Create(r.Context(), callerID(r), eventID, in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, guest)
}

// HTTP: GET /api/guests/{id}
func (h *GuestHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	guest, err := h.guests.Get(r.Context(), callerID(r), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, guest)
}

// HTTP: PUT /api/guests/{id}
func (h *GuestHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var in service.GuestInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	guest, err := h.guests.Update(r.Context(), callerID(r), id, in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, guest)
}

// HTTP: DELETE /api/guests/{id}
func (h *GuestHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.guests.Delete(r.Context(), callerID(r), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleCheckIn marks a guest as entered. A repeated check-in answers 409
// with error type "already_entered".
//
// HTTP: POST /api/guests/{id}/check-in
func (h *GuestHandler) HandleCheckIn(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	guest, err := h.guests.CheckIn(r.Context(), callerID(r), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, guest)
}

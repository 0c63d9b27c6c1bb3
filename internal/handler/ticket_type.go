package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/guestlist/internal/service"
)

type TicketTypeHandler struct {
	ticketTypes *service.TicketTypeService
	logger      *slog.Logger
}

func NewTicketTypeHandler(ticketTypes *service.TicketTypeService, logger *slog.Logger) *TicketTypeHandler {
	return &TicketTypeHandler{ticketTypes: ticketTypes, logger: logger}
}

// HTTP: GET /api/events/{eventId}/ticket-types
func (h *TicketTypeHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	eventID, err := idParam(r, "eventId")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	tts, err := h.ticketTypes.List(r.Context(), callerID(r), eventID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, tts)
}

// HTTP: POST /api/events/{eventId}/ticket-types
// Body: {"name": "VIP", "description": null, "price": 120.0, "limit": 50}
func (h *TicketTypeHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	eventID, err := idParam(r, "eventId")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var in service.TicketTypeInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	tt, err := h.ticketTypes.Create(r.Context(), callerID(r), eventID, in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, tt)
}

// HTTP: PUT /api/ticket-types/{id}
func (h *TicketTypeHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var in service.TicketTypeInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	tt, err := h.ticketTypes.Update(r.Context(), callerID(r), id, in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, tt)
}

// HandleDelete answers 409 while guests still hold the ticket type.
//
// HTTP: DELETE /api/ticket-types/{id}
func (h *TicketTypeHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.ticketTypes.Delete(r.Context(), callerID(r), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

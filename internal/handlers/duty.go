package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ilng/roster/internal/services"
)

// DutyHandler serves the caller's duty sessions.
type DutyHandler struct {
	duty *services.DutyService
}

func NewDutyHandler(duty *services.DutyService) *DutyHandler {
	return &DutyHandler{duty: duty}
}

// DutyRouter registers /duty routes.
func DutyRouter(r chi.Router, handler *DutyHandler) {
	r.Post("/on", handler.Start)
	r.Post("/off", handler.End)
	r.Get("/current", handler.Current)
	r.Get("/history", handler.History)
	r.Get("/stats", handler.Stats)
	r.Get("/active", handler.Active)
}

func (h *DutyHandler) Start(w http.ResponseWriter, r *http.Request) {
	session, err := h.duty.Start(r.Context(), callerFromContext(r.Context()))
	respond(w, r, http.StatusCreated, session, err)
}

func (h *DutyHandler) End(w http.ResponseWriter, r *http.Request) {
	session, err := h.duty.End(r.Context(), callerFromContext(r.Context()))
	respond(w, r, http.StatusOK, session, err)
}

// Current answers null when the caller is off duty.
func (h *DutyHandler) Current(w http.ResponseWriter, r *http.Request) {
	session, err := h.duty.Current(r.Context(), callerFromContext(r.Context()))
	respond(w, r, http.StatusOK, session, err)
}

func (h *DutyHandler) History(w http.ResponseWriter, r *http.Request) {
	logs, err := h.duty.History(r.Context(), callerFromContext(r.Context()))
	respond(w, r, http.StatusOK, logs, err)
}

func (h *DutyHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.duty.Stats(r.Context(), callerFromContext(r.Context()))
	respond(w, r, http.StatusOK, stats, err)
}

func (h *DutyHandler) Active(w http.ResponseWriter, r *http.Request) {
	active, err := h.duty.Active(r.Context(), callerFromContext(r.Context()))
	respond(w, r, http.StatusOK, active, err)
}

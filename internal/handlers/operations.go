package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ilng/roster/internal/services"
)

// OperationsHandler serves mission reports and units.
type OperationsHandler struct {
	missions *services.MissionService
	units    *services.UnitService
}

func NewOperationsHandler(missions *services.MissionService, units *services.UnitService) *OperationsHandler {
	return &OperationsHandler{missions: missions, units: units}
}

// OperationsRouter registers /missions and /units.
func OperationsRouter(r chi.Router, handler *OperationsHandler) {
	r.Get("/missions", handler.ListMissions)
	r.Post("/missions", handler.CreateMission)
	r.Get("/units", handler.ListUnits)
	r.Post("/units", handler.CreateUnit)
}

func (h *OperationsHandler) ListMissions(w http.ResponseWriter, r *http.Request) {
	missions, err := h.missions.List(r.Context(), callerFromContext(r.Context()))
	respond(w, r, http.StatusOK, missions, err)
}

func (h *OperationsHandler) CreateMission(w http.ResponseWriter, r *http.Request) {
	var req services.CreateMissionInput
	if !decodeJSON(w, r, &req, maxBodyBytes) {
		return
	}
	mission, err := h.missions.Create(r.Context(), callerFromContext(r.Context()), req)
	respond(w, r, http.StatusCreated, mission, err)
}

func (h *OperationsHandler) ListUnits(w http.ResponseWriter, r *http.Request) {
	units, err := h.units.List(r.Context(), callerFromContext(r.Context()))
	respond(w, r, http.StatusOK, units, err)
}

func (h *OperationsHandler) CreateUnit(w http.ResponseWriter, r *http.Request) {
	var req services.CreateUnitInput
	if !decodeJSON(w, r, &req, maxBodyBytes) {
		return
	}
	unit, err := h.units.Create(r.Context(), callerFromContext(r.Context()), req)
	respond(w, r, http.StatusCreated, unit, err)
}

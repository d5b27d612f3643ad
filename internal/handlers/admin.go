package handlers

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ilng/roster/internal/ranks"
	"github.com/ilng/roster/internal/services"
	"github.com/ilng/roster/internal/store"
)

// AdminHandler serves the audit trail, dashboards and whole-document
// operations.
type AdminHandler struct {
	audit     *services.AuditService
	dashboard *services.DashboardService
	admin     *services.AdminService
}

func NewAdminHandler(audit *services.AuditService, dashboard *services.DashboardService, admin *services.AdminService) *AdminHandler {
	return &AdminHandler{audit: audit, dashboard: dashboard, admin: admin}
}

// AdminRouter registers /audit, /dashboard and /admin.
func AdminRouter(r chi.Router, handler *AdminHandler) {
	r.Get("/audit", handler.ListAudit)
	r.Get("/dashboard/stats", handler.DashboardStats)
	r.Get("/dashboard/activity", handler.DashboardActivity)
	r.Route("/admin", func(r chi.Router) {
		r.Get("/stats", handler.AdminStats)
		r.Get("/export", handler.Export)
		r.Post("/import", handler.Import)
		r.Post("/backup", handler.Backup)
	})
}

// Ranks lists the rank table. It needs no authentication.
func Ranks(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, ranks.All())
}

func (h *AdminHandler) ListAudit(w http.ResponseWriter, r *http.Request) {
	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, total, err := h.audit.List(r.Context(), callerFromContext(r.Context()), offset, limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ListResponse[services.AuditView]{
		Items: items,
		Page:  page,
		Limit: limit,
		Total: total,
	})
}

func (h *AdminHandler) DashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dashboard.Stats(r.Context(), callerFromContext(r.Context()))
	respond(w, r, http.StatusOK, stats, err)
}

func (h *AdminHandler) DashboardActivity(w http.ResponseWriter, r *http.Request) {
	items, err := h.dashboard.Activity(r.Context(), callerFromContext(r.Context()))
	respond(w, r, http.StatusOK, items, err)
}

func (h *AdminHandler) AdminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.admin.Stats(r.Context(), callerFromContext(r.Context()))
	respond(w, r, http.StatusOK, stats, err)
}

func (h *AdminHandler) Export(w http.ResponseWriter, r *http.Request) {
	snap, err := h.admin.Export(r.Context(), callerFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="roster-export.json"`)
	writeJSON(w, http.StatusOK, snap)
}

func (h *AdminHandler) Import(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	snap, err := store.Decode(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid document")
		return
	}
	if err := h.admin.Import(r.Context(), callerFromContext(r.Context()), snap); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *AdminHandler) Backup(w http.ResponseWriter, r *http.Request) {
	key, err := h.admin.Backup(r.Context(), callerFromContext(r.Context()))
	respond(w, r, http.StatusCreated, map[string]string{"key": key}, err)
}

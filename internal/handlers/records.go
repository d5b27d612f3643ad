package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ilng/roster/internal/services"
)

// RecordHandler serves disciplinary records, promotions and the merit
// ledger.
type RecordHandler struct {
	disciplinary *services.DisciplinaryService
	promotions   *services.PromotionService
	merit        *services.MeritService
}

func NewRecordHandler(d *services.DisciplinaryService, p *services.PromotionService, m *services.MeritService) *RecordHandler {
	return &RecordHandler{disciplinary: d, promotions: p, merit: m}
}

// RecordRouter registers /disciplinary, /promotions and /merit-points.
func RecordRouter(r chi.Router, handler *RecordHandler) {
	r.Route("/disciplinary", func(r chi.Router) {
		r.Get("/", handler.ListDisciplinary)
		r.Post("/", handler.CreateDisciplinary)
		r.Get("/mine", handler.ListOwnDisciplinary)
		r.Patch("/{recordID}", handler.UpdateDisciplinary)
	})
	r.Route("/promotions", func(r chi.Router) {
		r.Get("/", handler.ListPromotions)
		r.Post("/", handler.Promote)
		r.Get("/mine", handler.ListOwnPromotions)
		r.Get("/eligibility/{userID}", handler.Eligibility)
	})
	r.Route("/merit-points", func(r chi.Router) {
		r.Get("/", handler.ListMerit)
		r.Post("/", handler.AwardMerit)
		r.Get("/leaderboard", handler.Leaderboard)
		r.Post("/reconcile", handler.Reconcile)
	})
}

func (h *RecordHandler) ListDisciplinary(w http.ResponseWriter, r *http.Request) {
	records, err := h.disciplinary.List(r.Context(), callerFromContext(r.Context()))
	respond(w, r, http.StatusOK, records, err)
}

func (h *RecordHandler) ListOwnDisciplinary(w http.ResponseWriter, r *http.Request) {
	records, err := h.disciplinary.ListOwn(r.Context(), callerFromContext(r.Context()))
	respond(w, r, http.StatusOK, records, err)
}

func (h *RecordHandler) CreateDisciplinary(w http.ResponseWriter, r *http.Request) {
	var req services.CreateDisciplinaryInput
	if !decodeJSON(w, r, &req, maxBodyBytes) {
		return
	}
	record, err := h.disciplinary.Create(r.Context(), callerFromContext(r.Context()), req)
	respond(w, r, http.StatusCreated, record, err)
}

func (h *RecordHandler) UpdateDisciplinary(w http.ResponseWriter, r *http.Request) {
	var req services.DisciplinaryPatch
	if !decodeJSON(w, r, &req, maxBodyBytes) {
		return
	}
	record, err := h.disciplinary.Update(r.Context(), callerFromContext(r.Context()), chi.URLParam(r, "recordID"), req)
	respond(w, r, http.StatusOK, record, err)
}

func (h *RecordHandler) ListPromotions(w http.ResponseWriter, r *http.Request) {
	promotions, err := h.promotions.List(r.Context(), callerFromContext(r.Context()))
	respond(w, r, http.StatusOK, promotions, err)
}

func (h *RecordHandler) ListOwnPromotions(w http.ResponseWriter, r *http.Request) {
	promotions, err := h.promotions.ListOwn(r.Context(), callerFromContext(r.Context()))
	respond(w, r, http.StatusOK, promotions, err)
}

func (h *RecordHandler) Promote(w http.ResponseWriter, r *http.Request) {
	var req services.PromoteInput
	if !decodeJSON(w, r, &req, maxBodyBytes) {
		return
	}
	promotion, err := h.promotions.Promote(r.Context(), callerFromContext(r.Context()), req)
	respond(w, r, http.StatusCreated, promotion, err)
}

func (h *RecordHandler) Eligibility(w http.ResponseWriter, r *http.Request) {
	result, err := h.promotions.Eligibility(r.Context(), callerFromContext(r.Context()), chi.URLParam(r, "userID"))
	respond(w, r, http.StatusOK, result, err)
}

func (h *RecordHandler) ListMerit(w http.ResponseWriter, r *http.Request) {
	txns, err := h.merit.List(r.Context(), callerFromContext(r.Context()))
	respond(w, r, http.StatusOK, txns, err)
}

func (h *RecordHandler) AwardMerit(w http.ResponseWriter, r *http.Request) {
	var req services.AwardMeritInput
	if !decodeJSON(w, r, &req, maxBodyBytes) {
		return
	}
	txn, err := h.merit.Award(r.Context(), callerFromContext(r.Context()), req)
	respond(w, r, http.StatusCreated, txn, err)
}

func (h *RecordHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	board, err := h.merit.Leaderboard(r.Context(), callerFromContext(r.Context()))
	respond(w, r, http.StatusOK, board, err)
}

func (h *RecordHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	corrections, err := h.merit.Reconcile(r.Context(), callerFromContext(r.Context()))
	respond(w, r, http.StatusOK, corrections, err)
}

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ilng/roster/internal/services"
)

// UserHandler serves member records and their decorations.
type UserHandler struct {
	users  *services.UserService
	awards *services.AwardService
}

func NewUserHandler(users *services.UserService, awards *services.AwardService) *UserHandler {
	return &UserHandler{users: users, awards: awards}
}

// UserRouter registers /users routes. Callers must be authenticated.
func UserRouter(r chi.Router, handler *UserHandler) {
	r.Get("/", handler.ListUsers)
	r.Post("/", handler.CreateUser)
	r.Route("/{userID}", func(r chi.Router) {
		r.Put("/", handler.UpdateUser)
		r.Get("/awards", handler.ListUserAwards)
		r.Post("/awards", handler.GrantAward)
	})
}

// AwardRouter registers the award catalog and user-award removal.
func AwardRouter(r chi.Router, handler *UserHandler) {
	r.Get("/awards", handler.ListAwards)
	r.Post("/awards", handler.CreateAward)
	r.Delete("/user-awards/{userAwardID}", handler.RevokeAward)
}

func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context(), callerFromContext(r.Context()))
	respond(w, r, http.StatusOK, users, err)
}

func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req services.CreateUserInput
	if !decodeJSON(w, r, &req, maxBodyBytes) {
		return
	}
	user, err := h.users.Create(r.Context(), callerFromContext(r.Context()), req)
	respond(w, r, http.StatusCreated, user, err)
}

func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req services.UserPatch
	if !decodeJSON(w, r, &req, maxBodyBytes) {
		return
	}
	user, err := h.users.Update(r.Context(), callerFromContext(r.Context()), chi.URLParam(r, "userID"), req)
	respond(w, r, http.StatusOK, user, err)
}

func (h *UserHandler) ListUserAwards(w http.ResponseWriter, r *http.Request) {
	awards, err := h.awards.ListForUser(r.Context(), callerFromContext(r.Context()), chi.URLParam(r, "userID"))
	respond(w, r, http.StatusOK, awards, err)
}

func (h *UserHandler) GrantAward(w http.ResponseWriter, r *http.Request) {
	var req services.GrantAwardInput
	if !decodeJSON(w, r, &req, maxBodyBytes) {
		return
	}
	granted, err := h.awards.Grant(r.Context(), callerFromContext(r.Context()), chi.URLParam(r, "userID"), req)
	respond(w, r, http.StatusCreated, granted, err)
}

func (h *UserHandler) ListAwards(w http.ResponseWriter, r *http.Request) {
	awards, err := h.awards.Catalog(r.Context(), callerFromContext(r.Context()))
	respond(w, r, http.StatusOK, awards, err)
}

func (h *UserHandler) CreateAward(w http.ResponseWriter, r *http.Request) {
	var req services.CreateAwardInput
	if !decodeJSON(w, r, &req, maxBodyBytes) {
		return
	}
	award, err := h.awards.CreateAward(r.Context(), callerFromContext(r.Context()), req)
	respond(w, r, http.StatusCreated, award, err)
}

func (h *UserHandler) RevokeAward(w http.ResponseWriter, r *http.Request) {
	if err := h.awards.Revoke(r.Context(), callerFromContext(r.Context()), chi.URLParam(r, "userAwardID")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

package handlers

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ilng/roster/internal/logging"
	"github.com/ilng/roster/internal/ratelimit"
	"github.com/ilng/roster/internal/services"
)

const requestTimeout = 60 * time.Second

// NewRouter mounts every route under /api behind the shared middleware
// stack. Routes other than login, ranks and healthz require a token.
func NewRouter(svc *services.Services, limiter ratelimit.Policy, jwtSecret string) *chi.Mux {
	auth := NewAuthHandler(svc.Auth, limiter, jwtSecret)
	users := NewUserHandler(svc.Users, svc.Awards)
	duty := NewDutyHandler(svc.Duty)
	records := NewRecordHandler(svc.Disciplinary, svc.Promotions, svc.Merit)
	ops := NewOperationsHandler(svc.Missions, svc.Units)
	admin := NewAdminHandler(svc.Audit, svc.Dashboard, svc.Admin)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		logging.Middleware,
		middleware.Recoverer,
		middleware.Timeout(requestTimeout),
	)
	router.Get("/healthz", Healthz)
	router.Route("/api", func(r chi.Router) {
		r.Get("/ranks", Ranks)
		r.Route("/auth", func(r chi.Router) {
			AuthRouter(r, auth)
		})
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth)
			r.Route("/users", func(r chi.Router) {
				UserRouter(r, users)
			})
			r.Route("/duty", func(r chi.Router) {
				DutyRouter(r, duty)
			})
			AwardRouter(r, users)
			RecordRouter(r, records)
			OperationsRouter(r, ops)
			AdminRouter(r, admin)
		})
	})
	return router
}

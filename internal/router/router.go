package router

import (
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/parisxmas/icpform/internal/auth"
	"github.com/parisxmas/icpform/internal/handler"
	"github.com/parisxmas/icpform/internal/metrics"
	mw "github.com/parisxmas/icpform/internal/middleware"
)

// New builds the route table. With an empty jwtSecret the login route is
// not mounted and the listing is public.
func New(
	jwtSecret string,
	m *metrics.Metrics,
	subH *handler.SubmissionHandler,
	authH *handler.AuthHandler,
	healthH *handler.HealthHandler,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.RequestID)
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS)
	r.Use(mw.Metrics(m))

	r.Get("/healthz", healthH.Health)
	r.Handle("/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Post("/submit-form", subH.Submit)

		if jwtSecret == "" {
			r.Get("/submissions", subH.List)
			return
		}

		r.Post("/auth/login", authH.Login)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAdmin(jwtSecret))
			r.Get("/submissions", subH.List)
		})
	})

	return r
}

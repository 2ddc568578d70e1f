/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for tooling
  5. Rate limit: Per-IP request ceiling; a run is a full recomputation
                 and must not be triggerable in a tight loop

ROUTE GROUPS:
  /api/runs/*        Trigger and inspect batch runs
  /api/jobs/*        Computed job reports from the last run
  /api/materials/*   Receipt rollup from the last run

SECURITY NOTE:
  No authentication middleware. The API is an internal read surface
  over batch output, deploy it behind the network boundary.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/laborgen/main.go: Server startup
*/
package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))
	r.Use(httprate.LimitByIP(60, time.Minute))

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Route("/runs", func(r chi.Router) {
			r.Post("/", h.TriggerRun)
			r.Get("/last", h.LastRun)
		})

		r.Route("/jobs", func(r chi.Router) {
			r.Get("/", h.ListJobs)
			r.Get("/{address}", h.GetJob)
			r.Get("/{address}/csv", h.GetJobCSV)
		})

		r.Get("/materials/csv", h.GetMaterialsCSV)
	})

	return r
}

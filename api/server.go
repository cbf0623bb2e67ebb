/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. RealIP:     Client IP for rate limiting
  3. Logger:     Request logging
  4. Recoverer:  Panic recovery (500 instead of crash)
  5. CORS:       Cross-origin requests for frontend
  6. httprate:   Per-IP limit on POST /api/accruals/post only

ROUTE GROUPS:
  /api/methods          Supported methods
  /api/depreciation/*   Stateless calculator
  /api/assets/*         Asset register, ledger, expiry
  /api/accruals/*       Year-end plan, post, run history
  /api/scenarios/*      Demo scenarios
  /healthz              Liveness

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
)

// RouterOptions configures NewRouter. Zero values get defaults.
type RouterOptions struct {
	AllowedOrigins []string
	// PostRateLimit is requests per minute per IP on the posting endpoint.
	PostRateLimit int
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"http://localhost:5173", "http://localhost:8080"}
	}
	if opts.PostRateLimit <= 0 {
		opts.PostRateLimit = 10
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/methods", h.ListMethods)

		// Calculator routes
		r.Route("/depreciation", func(r chi.Router) {
			r.Post("/compute", h.ComputeDepreciation)
			r.Post("/schedule", h.GetSchedule)
		})

		// Asset routes
		r.Route("/assets", func(r chi.Router) {
			r.Get("/", h.ListAssets)
			r.Post("/", h.CreateAsset)
			r.Get("/{id}", h.GetAsset)
			r.Get("/{id}/postings", h.GetPostings)
			r.Get("/{id}/expiry", h.GetExpiry)
		})

		// Accrual routes
		r.Route("/accruals", func(r chi.Router) {
			r.Post("/plan", h.PlanAccruals)
			r.With(httprate.Limit(opts.PostRateLimit, time.Minute,
				httprate.WithKeyFuncs(httprate.KeyByIP))).Post("/post", h.PostAccruals)
			r.Get("/runs", h.ListRuns)
		})

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	return r
}

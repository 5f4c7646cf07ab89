package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes configures the router: standard middleware, CORS restricted to
// the configured origins, the health endpoint and the verification API.
func SetupRoutes(h *Handlers, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	// Health check
	r.Get("/health", h.HealthCheck)

	// Verification API
	r.Route("/api", func(r chi.Router) {
		r.Post("/verify", h.HandleVerify)
		r.Get("/verify/jobs", h.HandleListJobs)

		r.Route("/verify/bulk", func(r chi.Router) {
			r.Post("/", h.HandleBulkVerify)
			r.Get("/{jobID}", h.HandleJobStatus)
			r.Get("/{jobID}/events", h.HandleJobEvents)
			r.Get("/{jobID}/results", h.HandleJobResults)
		})
	})

	return r
}

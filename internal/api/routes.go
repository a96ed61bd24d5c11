package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter creates a new router with all routes configured
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware (all routes)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes (no auth required)
		r.Get("/health", h.Health)
		r.Get("/events", h.Events)

		// Protected routes (auth required)
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(h.apiKey))
			r.Post("/interactions", h.CreateInteraction)
			r.Get("/interactions/stats", h.Stats)
			r.Get("/session", h.SessionState)
			r.Post("/interpret", h.Interpret)
			r.Get("/preferences", h.Preferences)
			r.Get("/preferences/categories", h.PreferredCategories)
			r.Post("/preferences/interactions", h.RecordPreference)
			r.Post("/preferences/toggle", h.ToggleCollection)
			r.Delete("/preferences", h.ClearPreferences)
		})
	})

	return r
}

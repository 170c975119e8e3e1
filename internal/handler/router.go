package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/Shivanand-hulikatti/eventhub/internal/auth"
)

// RouterConfig collects what NewRouter needs besides the handler.
type RouterConfig struct {
	Verifier       *auth.Verifier
	AllowedOrigins []string
	Log            zerolog.Logger
}

// NewRouter builds the chi router for the events API.
func NewRouter(h *EventHandler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware stack
	r.Use(chimiddleware.Recoverer) // recover from panics, return 500
	r.Use(chimiddleware.RequestID) // attach request IDs
	r.Use(chimiddleware.RealIP)    // trust X-Forwarded-For
	r.Use(Logger(cfg.Log))
	r.Use(CORS(cfg.AllowedOrigins))

	r.Get("/health", HealthCheck)

	r.Group(func(r chi.Router) {
		r.Use(Authenticate(cfg.Verifier))

		r.Route("/events", func(r chi.Router) {
			r.Post("/", h.CreateEvent)
			r.Get("/", h.ListOwnedEvents)
			r.Get("/public", h.ListPublicEvents)
			r.Get("/joined", h.ListJoinedEvents)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetEvent)
				r.Patch("/", h.UpdateEvent)
				r.Delete("/", h.DeleteEvent)
				r.Post("/join", h.JoinEvent)
				r.Post("/leave", h.LeaveEvent)
				r.Post("/sessions", h.AddSession)
			})
		})

		r.Route("/sessions/{sessionId}", func(r chi.Router) {
			r.Patch("/", h.UpdateSession)
			r.Delete("/", h.RemoveSession)
		})
	})

	return r
}

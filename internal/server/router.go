package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/oraculo-ai/oraculo/internal/api"
	"github.com/oraculo-ai/oraculo/internal/api/handlers"
	"github.com/oraculo-ai/oraculo/internal/api/middleware"
)

// Pinger reports whether the backing database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type RouterConfig struct {
	APIToken        string
	DB              Pinger
	ChatHandler     *handlers.ChatHandler
	SessionHandler  *handlers.SessionHandler
	DocumentHandler *handlers.DocumentHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 25 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if cfg.DB != nil {
			if err := cfg.DB.Ping(req.Context()); err != nil {
				api.Error(w, http.StatusServiceUnavailable, "database unreachable")
				return
			}
		}
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.BearerAuth(cfg.APIToken))

		r.Post("/chat/completions", cfg.ChatHandler.Completions)
		r.Get("/models", cfg.ChatHandler.Models)

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", cfg.SessionHandler.List)
			r.Get("/{id}/messages", cfg.SessionHandler.Messages)
		})

		// Document uploads require object storage; without it the routes
		// stay unmounted and return 404.
		if cfg.DocumentHandler != nil {
			r.Route("/documents", func(r chi.Router) {
				r.Post("/", cfg.DocumentHandler.Upload)
				r.Get("/{id}", cfg.DocumentHandler.Status)
			})
		}
	})

	return r
}

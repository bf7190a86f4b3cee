package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/plugdex/plugdex/internal/config"
	"github.com/plugdex/plugdex/internal/middleware"
)

// NewRouter creates and configures the API router
func NewRouter(cfg *config.Config, handler *Handler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))

	// CORS (if enabled)
	if cfg.CORS.Enabled {
		r.Use(middleware.CORS(
			cfg.CORS.AllowedOrigins,
			cfg.CORS.AllowedMethods,
			cfg.CORS.AllowedHeaders,
			cfg.CORS.MaxAgeSeconds,
		))
	}

	r.Get("/health", handler.Health)
	r.Get("/ready", handler.Ready)

	// Trigger and inspection routes live at the root so existing callers
	// keep working unchanged.
	r.Get("/index", handler.Index)
	r.Post("/index/{owner}/{repo}", handler.IndexRepository)
	r.Get("/stats", handler.Stats)
	r.Get("/rate-limit", handler.RateLimit)

	return r
}

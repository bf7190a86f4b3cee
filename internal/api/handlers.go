// Package api exposes the operational HTTP surface of the indexer: trigger
// endpoints, registry statistics, and health probes.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/plugdex/plugdex/internal/database"
	"github.com/plugdex/plugdex/internal/github"
	"github.com/plugdex/plugdex/internal/indexer"
)

// IndexerService triggers indexing work on behalf of HTTP callers.
type IndexerService interface {
	Run(ctx context.Context) (indexer.Summary, error)
	IndexRepository(ctx context.Context, owner, name string) (string, error)
}

// StatsProvider reads registry counts.
type StatsProvider interface {
	GetPluginStats(ctx context.Context) (database.Stats, error)
}

// RateLimitProvider reads the remote API quota window.
type RateLimitProvider interface {
	GetRateLimit(ctx context.Context) (github.RateLimit, error)
}

// Pinger verifies the database connection for readiness probes.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler bundles the dependencies of all route handlers.
type Handler struct {
	indexer   IndexerService
	stats     StatsProvider
	rateLimit RateLimitProvider
	db        Pinger
}

// NewHandler creates a Handler.
func NewHandler(indexer IndexerService, stats StatsProvider, rateLimit RateLimitProvider, db Pinger) *Handler {
	return &Handler{
		indexer:   indexer,
		stats:     stats,
		rateLimit: rateLimit,
		db:        db,
	}
}

// Health reports process liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "plugdex-indexer",
	})
}

// Ready reports whether the service can do useful work, which for the
// indexer means the database answers.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		sendError(w, r, http.StatusServiceUnavailable, "NOT_READY", "Database unavailable", nil)
		return
	}
	sendJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// Index runs a full batch pass synchronously and returns its summary.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	summary, err := h.indexer.Run(r.Context())
	if err != nil {
		sendError(w, r, http.StatusInternalServerError, "INDEX_FAILED", "Indexing run failed", err.Error())
		return
	}
	sendJSON(w, http.StatusOK, summary)
}

// IndexRepository indexes one repository synchronously and returns the
// resulting plugin id.
func (h *Handler) IndexRepository(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")
	name := chi.URLParam(r, "repo")
	if owner == "" || name == "" {
		sendError(w, r, http.StatusBadRequest, "INVALID_PARAMS", "Owner and repo are required", nil)
		return
	}

	pluginID, err := h.indexer.IndexRepository(r.Context(), owner, name)
	if err != nil {
		h.sendIndexError(w, r, owner+"/"+name, err)
		return
	}

	sendJSON(w, http.StatusOK, map[string]string{
		"pluginId": pluginID,
		"repo":     owner + "/" + name,
		"status":   "indexed",
	})
}

// sendIndexError maps pipeline failures onto HTTP statuses: a rejected
// manifest is a 400 carrying the field diagnostics, a missing repository
// or manifest is 404, everything remote-side is a 500.
func (h *Handler) sendIndexError(w http.ResponseWriter, r *http.Request, repo string, err error) {
	var vErr *indexer.ValidationError
	switch {
	case errors.As(err, &vErr):
		sendError(w, r, http.StatusBadRequest, "INVALID_MANIFEST", "Plugin manifest failed validation", vErr.Errors)
	case errors.Is(err, indexer.ErrNoManifest):
		sendError(w, r, http.StatusNotFound, "NO_MANIFEST", "Repository has no plugin manifest", repo)
	case github.IsNotFound(err):
		sendError(w, r, http.StatusNotFound, "REPO_NOT_FOUND", "Repository not found", repo)
	default:
		sendError(w, r, http.StatusInternalServerError, "INDEX_FAILED", "Failed to index repository", err.Error())
	}
}

// Stats returns registry-wide plugin counts.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.GetPluginStats(r.Context())
	if err != nil {
		sendError(w, r, http.StatusInternalServerError, "DB_ERROR", "Failed to collect stats", err.Error())
		return
	}
	sendJSON(w, http.StatusOK, stats)
}

// RateLimit returns the remote API quota window.
func (h *Handler) RateLimit(w http.ResponseWriter, r *http.Request) {
	rl, err := h.rateLimit.GetRateLimit(r.Context())
	if err != nil {
		sendError(w, r, http.StatusBadGateway, "UPSTREAM_ERROR", "Failed to query rate limit", err.Error())
		return
	}
	sendJSON(w, http.StatusOK, rl)
}

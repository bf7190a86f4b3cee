// Package indexer drives the end-to-end discovery batch: search for
// candidate repositories, then per repository validate, parse, persist and
// mark, aggregating indexed/failed/skipped counts. No single repository's
// failure aborts a batch.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/plugdex/plugdex/internal/cache"
	"github.com/plugdex/plugdex/internal/github"
	"github.com/plugdex/plugdex/internal/manifest"
	"github.com/plugdex/plugdex/internal/parser"
)

// ErrNoManifest marks a repository that does not publish a plugin manifest.
// In batch mode this is a skip, not a failure.
var ErrNoManifest = errors.New("no plugin manifest found")

// ValidationError carries the field-path diagnostics of a rejected manifest
// or parsed plugin. Single-repository imports surface it to the caller.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Errors, "; ")
}

// Summary aggregates the outcome counts of one batch run.
type Summary struct {
	Indexed int `json:"indexed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
	Total   int `json:"total"`
}

// outcome is the terminal state of one repository within a pass.
type outcome int

const (
	outcomeIndexed outcome = iota
	outcomeFailed
	outcomeSkipped
)

// repoSource is the slice of the GitHub client the orchestrator uses.
type repoSource interface {
	SearchRepositories(ctx context.Context, query string, page, perPage int) ([]github.Repo, error)
	GetRepository(ctx context.Context, fullName string) (github.Repo, error)
	GetManifest(ctx context.Context, fullName string) ([]byte, bool, error)
}

// store is the slice of the database updater the orchestrator uses.
type store interface {
	UpsertPlugin(ctx context.Context, parsed *parser.ParsedPlugin) (string, error)
	GetLastIndexed(ctx context.Context, repoURL string) (time.Time, error)
}

// markerCache records "indexed recently" markers. Advisory only.
type markerCache interface {
	Has(key string) bool
	Set(key string, value any, ttl time.Duration)
}

// LegacyParser is the optional markdown fallback for repositories without
// a manifest.
type LegacyParser interface {
	ParseRepository(ctx context.Context, repo github.Repo, now time.Time) (*parser.ParsedPlugin, error)
}

// Options tunes one Indexer.
type Options struct {
	Query          string
	PageSize       int
	Cooldown       time.Duration
	Retry          github.RetryPolicy
	LegacyFallback bool
}

// Indexer is the orchestrator. Repositories within a batch are processed
// strictly sequentially, which bounds outbound concurrency against the
// rate-limited remote API to one by construction.
type Indexer struct {
	source repoSource
	store  store
	cache  markerCache
	legacy LegacyParser
	logger *slog.Logger
	opts   Options
	now    func() time.Time
}

// New creates an Indexer. legacy may be nil when the markdown fallback is
// disabled.
func New(source repoSource, store store, cache markerCache, legacy LegacyParser, logger *slog.Logger, opts Options) *Indexer {
	if opts.Query == "" {
		opts.Query = "topic:claude-code OR topic:claude-plugin"
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 100
	}
	if opts.Cooldown <= 0 {
		opts.Cooldown = 6 * time.Hour
	}
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = github.DefaultRetryPolicy()
	}
	return &Indexer{
		source: source,
		store:  store,
		cache:  cache,
		legacy: legacy,
		logger: logger.With("component", "indexer"),
		opts:   opts,
		now:    time.Now,
	}
}

// Run executes one batch pass over a single search page.
func (ix *Indexer) Run(ctx context.Context) (Summary, error) {
	ix.logger.Info("starting indexing run", "query", ix.opts.Query, "page_size", ix.opts.PageSize)

	repos, err := github.WithRetry(ctx, ix.opts.Retry, ix.logger, func(ctx context.Context) ([]github.Repo, error) {
		return ix.source.SearchRepositories(ctx, ix.opts.Query, 1, ix.opts.PageSize)
	})
	if err != nil {
		return Summary{}, fmt.Errorf("search repositories: %w", err)
	}

	ix.logger.Info("search complete", "candidates", len(repos))

	summary := Summary{Total: len(repos)}
	for _, repo := range repos {
		switch ix.processRepository(ctx, repo) {
		case outcomeIndexed:
			summary.Indexed++
		case outcomeFailed:
			summary.Failed++
		case outcomeSkipped:
			summary.Skipped++
		}
	}

	ix.logger.Info("indexing run complete",
		"indexed", summary.Indexed,
		"failed", summary.Failed,
		"skipped", summary.Skipped,
		"total", summary.Total,
	)

	return summary, nil
}

// processRepository runs the per-repository pipeline. Every failure is
// contained here; the batch loop only ever sees a terminal outcome.
func (ix *Indexer) processRepository(ctx context.Context, repo github.Repo) outcome {
	logger := ix.logger.With("repo", repo.FullName)

	// Cooldown: a cache hit alone is not enough, the persisted last-indexed
	// time decides. The marker is best-effort, not mutual exclusion.
	key := cache.RepoKey(repo.Owner.Login, repo.Name)
	if ix.cache.Has(key) {
		lastIndexed, err := ix.store.GetLastIndexed(ctx, repo.HTMLURL)
		if err != nil {
			logger.Warn("failed to read last-indexed time", "error", err)
		} else if !lastIndexed.IsZero() && ix.now().Sub(lastIndexed) < ix.opts.Cooldown {
			logger.Info("skipping recently indexed repository", "last_indexed", lastIndexed)
			return outcomeSkipped
		}
	}

	parsed, outcome := ix.extract(ctx, repo, logger)
	if parsed == nil {
		return outcome
	}

	if errs := parsed.Validate(); errs != nil {
		logger.Error("parsed plugin failed schema validation", "errors", errs)
		return outcomeFailed
	}

	pluginID, err := ix.store.UpsertPlugin(ctx, parsed)
	if err != nil {
		logger.Error("failed to upsert plugin", "error", err)
		return outcomeFailed
	}

	ix.cache.Set(key, map[string]any{"indexed": true}, ix.opts.Cooldown)

	logger.Info("repository indexed", "plugin_id", pluginID)
	return outcomeIndexed
}

// manifestResult carries the manifest bytes and the absent-vs-present
// distinction through the single-value retry wrapper.
type manifestResult struct {
	raw   []byte
	found bool
}

// extract fetches and parses the repository's plugin declaration. A nil
// ParsedPlugin means terminal: the second return value says whether the
// repository was skipped (no manifest) or failed (invalid one).
func (ix *Indexer) extract(ctx context.Context, repo github.Repo, logger *slog.Logger) (*parser.ParsedPlugin, outcome) {
	res, err := github.WithRetry(ctx, ix.opts.Retry, logger, func(ctx context.Context) (manifestResult, error) {
		raw, found, err := ix.source.GetManifest(ctx, repo.FullName)
		return manifestResult{raw: raw, found: found}, err
	})
	if err != nil {
		logger.Error("failed to fetch manifest", "error", err)
		return nil, outcomeFailed
	}

	if !res.found {
		if ix.opts.LegacyFallback && ix.legacy != nil {
			return ix.extractLegacy(ctx, repo, logger)
		}
		logger.Info("skipping repository without manifest")
		return nil, outcomeSkipped
	}

	m, errs := manifest.Parse(res.raw)
	if errs != nil {
		logger.Error("invalid manifest", "errors", errs)
		return nil, outcomeFailed
	}

	return parser.FromManifest(m, repo, ix.now()), outcomeIndexed
}

// extractLegacy applies the lower-confidence markdown heuristics when the
// manifest is absent and the fallback is enabled.
func (ix *Indexer) extractLegacy(ctx context.Context, repo github.Repo, logger *slog.Logger) (*parser.ParsedPlugin, outcome) {
	logger.Info("no manifest, applying legacy markdown heuristics")

	parsed, err := ix.legacy.ParseRepository(ctx, repo, ix.now())
	if err != nil {
		logger.Error("legacy parse failed", "error", err)
		return nil, outcomeFailed
	}
	return parsed, outcomeIndexed
}

// IndexRepository runs the same pipeline for one caller-specified
// repository, surfacing the first failure as a typed error instead of
// aggregating. Used for interactive imports where a human is waiting.
func (ix *Indexer) IndexRepository(ctx context.Context, owner, name string) (string, error) {
	fullName := owner + "/" + name
	logger := ix.logger.With("repo", fullName)
	logger.Info("indexing single repository")

	repo, err := github.WithRetry(ctx, ix.opts.Retry, logger, func(ctx context.Context) (github.Repo, error) {
		return ix.source.GetRepository(ctx, fullName)
	})
	if err != nil {
		return "", fmt.Errorf("get repository %s: %w", fullName, err)
	}

	raw, found, err := ix.source.GetManifest(ctx, fullName)
	if err != nil {
		return "", fmt.Errorf("fetch manifest for %s: %w", fullName, err)
	}

	var parsed *parser.ParsedPlugin
	switch {
	case found:
		m, errs := manifest.Parse(raw)
		if errs != nil {
			return "", &ValidationError{Errors: errs}
		}
		parsed = parser.FromManifest(m, repo, ix.now())
	case ix.opts.LegacyFallback && ix.legacy != nil:
		parsed, err = ix.legacy.ParseRepository(ctx, repo, ix.now())
		if err != nil {
			return "", fmt.Errorf("legacy parse of %s: %w", fullName, err)
		}
	default:
		return "", ErrNoManifest
	}

	if errs := parsed.Validate(); errs != nil {
		return "", &ValidationError{Errors: errs}
	}

	pluginID, err := ix.store.UpsertPlugin(ctx, parsed)
	if err != nil {
		return "", fmt.Errorf("upsert %s: %w", fullName, err)
	}

	logger.Info("repository indexed", "plugin_id", pluginID)
	return pluginID, nil
}

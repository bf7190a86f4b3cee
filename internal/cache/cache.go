// Package cache is a write-through key/value store backed by a local
// bucket directory. It records "this repository was indexed recently"
// markers and other short-lived artifacts. Caching is advisory: write
// failures are logged and swallowed, never surfaced to the pipeline.
package cache

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

// envelope wraps every stored value with its expiry bookkeeping.
// Timestamps are epoch milliseconds.
type envelope struct {
	Data      json.RawMessage `json:"data"`
	CachedAt  int64           `json:"cachedAt"`
	ExpiresAt int64           `json:"expiresAt"`
}

// Cache stores JSON envelopes under a bucket directory, one file per key.
type Cache struct {
	dir    string
	logger *slog.Logger
	now    func() time.Time
}

// New creates the bucket directory if needed.
func New(dir string, logger *slog.Logger) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory %s: %w", dir, err)
	}
	return &Cache{
		dir:    dir,
		logger: logger.With("component", "cache"),
		now:    time.Now,
	}, nil
}

// Get reads the value for key into out and reports whether it was present.
// Entries past their expiry are treated as absent and deleted on the spot
// (lazy expiry, no background sweep). Read errors are logged and reported
// as absent.
func (c *Cache) Get(key string, out any) bool {
	raw, err := os.ReadFile(c.path(key))
	if err != nil {
		if !os.IsNotExist(err) {
			c.logger.Warn("cache read failed", "key", key, "error", err)
		}
		return false
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.logger.Warn("cache entry corrupt, dropping", "key", key, "error", err)
		c.Delete(key)
		return false
	}

	if env.ExpiresAt > 0 && c.now().UnixMilli() > env.ExpiresAt {
		c.Delete(key)
		return false
	}

	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			c.logger.Warn("cache entry undecodable", "key", key, "error", err)
			return false
		}
	}
	return true
}

// Set stores value under key with the given TTL. Failures are logged only.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("cache set failed to encode", "key", key, "error", err)
		return
	}

	now := c.now()
	env := envelope{
		Data:      data,
		CachedAt:  now.UnixMilli(),
		ExpiresAt: now.Add(ttl).UnixMilli(),
	}

	raw, err := json.Marshal(env)
	if err != nil {
		c.logger.Warn("cache set failed to encode envelope", "key", key, "error", err)
		return
	}

	if err := os.WriteFile(c.path(key), raw, 0o644); err != nil {
		c.logger.Warn("cache write failed", "key", key, "error", err)
	}
}

// Delete removes the entry for key. Missing entries are not an error.
func (c *Cache) Delete(key string) {
	if err := os.Remove(c.path(key)); err != nil && !os.IsNotExist(err) {
		c.logger.Warn("cache delete failed", "key", key, "error", err)
	}
}

// Has reports whether a live entry exists for key.
func (c *Cache) Has(key string) bool {
	return c.Get(key, nil)
}

// path maps a namespaced key to a file inside the bucket directory. Keys
// are escaped so namespace separators cannot traverse paths.
func (c *Cache) path(key string) string {
	return filepath.Join(c.dir, url.QueryEscape(key))
}

// RepoKey namespaces the indexed-recently marker for one repository.
func RepoKey(owner, repo string) string {
	return fmt.Sprintf("github:repo:%s:%s", owner, repo)
}

// ContentsKey namespaces cached file contents.
func ContentsKey(owner, repo, path string) string {
	return fmt.Sprintf("github:contents:%s:%s:%s", owner, repo, path)
}

// SearchKey namespaces cached search result pages.
func SearchKey(query string, page int) string {
	return fmt.Sprintf("github:search:%s:%d", query, page)
}

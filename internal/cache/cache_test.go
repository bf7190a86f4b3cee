package cache

import (
	"io"
	"log/slog"
	"os"
	"testing"
	"time"
)

func testCache(t *testing.T) *Cache {
	t.Helper()
	c, err := New(t.TempDir(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestSetGetRoundtrip(t *testing.T) {
	c := testCache(t)

	type marker struct {
		Indexed bool `json:"indexed"`
	}

	key := RepoKey("alice", "toolkit")
	c.Set(key, marker{Indexed: true}, time.Hour)

	var got marker
	if !c.Get(key, &got) {
		t.Fatal("expected cache hit")
	}
	if !got.Indexed {
		t.Error("expected indexed marker to roundtrip")
	}
}

func TestGetMissingKey(t *testing.T) {
	c := testCache(t)

	var out map[string]any
	if c.Get("github:repo:nobody:nothing", &out) {
		t.Error("expected miss for unknown key")
	}
}

func TestLazyExpiry(t *testing.T) {
	c := testCache(t)

	key := RepoKey("alice", "toolkit")
	c.Set(key, map[string]any{"indexed": true}, time.Hour)

	// Advance the clock past the TTL.
	c.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	if c.Get(key, nil) {
		t.Error("expected expired entry to read as absent")
	}

	// Expiry is lazy but physical: the failed read must have removed the
	// entry from disk.
	if _, err := os.Stat(c.path(key)); !os.IsNotExist(err) {
		t.Errorf("expected entry file to be deleted, stat err: %v", err)
	}
}

func TestEntrySurvivesWithinTTL(t *testing.T) {
	c := testCache(t)

	key := RepoKey("alice", "toolkit")
	c.Set(key, map[string]any{"indexed": true}, time.Hour)

	c.now = func() time.Time { return time.Now().Add(30 * time.Minute) }

	if !c.Has(key) {
		t.Error("expected entry to survive within its TTL")
	}
}

func TestCorruptEntryDropped(t *testing.T) {
	c := testCache(t)

	key := RepoKey("alice", "toolkit")
	if err := os.WriteFile(c.path(key), []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	if c.Has(key) {
		t.Error("expected corrupt entry to read as absent")
	}
	if _, err := os.Stat(c.path(key)); !os.IsNotExist(err) {
		t.Error("expected corrupt entry to be deleted")
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	c := testCache(t)

	key := RepoKey("alice", "toolkit")
	c.Set(key, "x", time.Hour)
	c.Delete(key)
	c.Delete(key)

	if c.Has(key) {
		t.Error("expected entry to be gone after delete")
	}
}

func TestKeysAreFilesystemSafe(t *testing.T) {
	c := testCache(t)

	// Namespace separators must not become path separators.
	key := ContentsKey("alice", "toolkit", ".claude/skills/lint.md")
	c.Set(key, "content", time.Hour)

	var got string
	if !c.Get(key, &got) || got != "content" {
		t.Errorf("expected roundtrip through escaped key, got %q", got)
	}
}

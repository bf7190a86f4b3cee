package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const testConfigYAML = `
server:
  host: "127.0.0.1"
  port: 9090
  read_timeout_ms: 5000
  write_timeout_ms: 60000

database:
  host: "db.internal"
  port: 5432
  user: "plugdex"
  password: "secret"
  dbname: "plugdex"
  ssl_mode: "disable"

github:
  token: "ghp_test"
  search_query: "topic:claude-code"
  page_size: 50
  retry_attempts: 3
  retry_base_wait_ms: 1000

cache:
  directory: "/tmp/plugdex-cache"
  ttl_hours: 6

indexer:
  cooldown_hours: 6
  schedule_hours: 24
  legacy_fallback: true

logging:
  level: "debug"
  format: "json"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, testConfigYAML))
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.GitHub.SearchQuery != "topic:claude-code" {
		t.Errorf("unexpected search query %q", cfg.GitHub.SearchQuery)
	}
	if !cfg.Indexer.LegacyFallback {
		t.Error("expected legacy fallback enabled")
	}

	if got := cfg.Server.GetReadTimeout(); got != 5*time.Second {
		t.Errorf("unexpected read timeout %v", got)
	}
	if got := cfg.Indexer.GetCooldown(); got != 6*time.Hour {
		t.Errorf("unexpected cooldown %v", got)
	}
	if got := cfg.Indexer.GetSchedule(); got != 24*time.Hour {
		t.Errorf("unexpected schedule %v", got)
	}

	wantDSN := "host=db.internal port=5432 user=plugdex password=secret dbname=plugdex sslmode=disable"
	if got := cfg.Database.GetDSN(); got != wantDSN {
		t.Errorf("unexpected DSN %q", got)
	}
}

func TestLoadRequiresToken(t *testing.T) {
	path := writeConfig(t, strings.Replace(testConfigYAML, `token: "ghp_test"`, `token: ""`, 1))
	if _, err := Load(path); err == nil {
		t.Fatal("expected missing token to fail validation")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PLUGDEX_GITHUB_TOKEN", "ghp_from_env")
	t.Setenv("PLUGDEX_DATABASE_HOST", "other-db")

	cfg, err := Load(writeConfig(t, testConfigYAML))
	if err != nil {
		t.Fatal(err)
	}

	if cfg.GitHub.Token != "ghp_from_env" {
		t.Errorf("expected env token override, got %q", cfg.GitHub.Token)
	}
	if cfg.Database.Host != "other-db" {
		t.Errorf("expected env host override, got %q", cfg.Database.Host)
	}
}

package parser

import (
	"testing"
	"time"

	"github.com/plugdex/plugdex/internal/github"
	"github.com/plugdex/plugdex/internal/manifest"
)

func testRepo() github.Repo {
	return github.Repo{
		FullName:      "alice/code-review-toolkit",
		Name:          "code-review-toolkit",
		Description:   "Review tooling",
		HTMLURL:       "https://github.com/alice/code-review-toolkit",
		Stars:         42,
		Owner:         github.Owner{Login: "alice"},
		Topics:        []string{"claude-code", "review"},
		Language:      "TypeScript",
		DefaultBranch: "main",
		CreatedAt:     "2024-01-01T00:00:00Z",
		UpdatedAt:     "2025-06-01T00:00:00Z",
		PushedAt:      "2025-06-02T00:00:00Z",
	}
}

func testManifest() *manifest.Manifest {
	return &manifest.Manifest{
		Name:        "code-review-toolkit",
		Version:     "1.2.0",
		Description: "A toolkit of review skills and agents",
		Author:      manifest.Author{Name: "Alice", Email: "alice@example.com"},
		Repository:  manifest.Repository{Type: "git", URL: "https://github.com/alice/code-review-toolkit"},
		Keywords:    []string{"review", "claude-code"},
		Skills: []manifest.Skill{
			{Name: "lint", Description: "Run the linter", FilePath: "skills/lint.md"},
		},
		Agents: []manifest.Agent{
			{Name: "reviewer", Description: "Reviews pull requests"},
		},
		MCPServers: []manifest.MCPServer{
			{Name: "fs", Description: "Filesystem access", Transport: manifest.TransportStdio},
		},
	}
}

func TestFromManifest(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	parsed := FromManifest(testManifest(), testRepo(), now)

	if parsed.Plugin.Name != "code-review-toolkit" {
		t.Errorf("expected name code-review-toolkit, got %s", parsed.Plugin.Name)
	}
	if parsed.Plugin.Author != "Alice" {
		t.Errorf("expected author Alice, got %s", parsed.Plugin.Author)
	}
	if parsed.Plugin.Stars != 42 {
		t.Errorf("expected 42 stars, got %d", parsed.Plugin.Stars)
	}
	if parsed.Plugin.Downloads != 0 {
		t.Errorf("expected 0 downloads, got %d", parsed.Plugin.Downloads)
	}

	if len(parsed.Skills) != 1 || len(parsed.Agents) != 1 || len(parsed.MCPServers) != 1 {
		t.Fatalf("unexpected component counts: %d skills, %d agents, %d mcp servers",
			len(parsed.Skills), len(parsed.Agents), len(parsed.MCPServers))
	}
	if parsed.Commands == nil || len(parsed.Commands) != 0 {
		t.Errorf("expected empty non-nil commands, got %#v", parsed.Commands)
	}

	// Agents carry no role or file path in the manifest; description and
	// name stand in.
	agent := parsed.Agents[0]
	if agent.Role != "Reviews pull requests" {
		t.Errorf("expected role from description, got %s", agent.Role)
	}
	if agent.FilePath != "reviewer" {
		t.Errorf("expected file path from name, got %s", agent.FilePath)
	}
	if agent.Config == nil {
		t.Error("expected non-nil agent config")
	}

	if parsed.MCPServers[0].Endpoint != "stdio" {
		t.Errorf("expected endpoint stdio, got %s", parsed.MCPServers[0].Endpoint)
	}

	if got := parsed.Plugin.Metadata["lastIndexed"]; got != "2025-06-15T12:00:00Z" {
		t.Errorf("unexpected lastIndexed: %v", got)
	}
	if got := parsed.Plugin.Metadata["version"]; got != "1.2.0" {
		t.Errorf("unexpected metadata version: %v", got)
	}
	if got := parsed.Plugin.Metadata["authorEmail"]; got != "alice@example.com" {
		t.Errorf("unexpected authorEmail: %v", got)
	}

	if errs := parsed.Validate(); errs != nil {
		t.Errorf("expected parsed plugin to validate, got %v", errs)
	}
}

func TestFromManifestFallbacks(t *testing.T) {
	m := testManifest()
	m.Author = manifest.Author{}
	m.Repository = manifest.Repository{}

	parsed := FromManifest(m, testRepo(), time.Now())

	if parsed.Plugin.Author != "alice" {
		t.Errorf("expected owner login fallback, got %s", parsed.Plugin.Author)
	}
	if parsed.Plugin.RepoURL != "https://github.com/alice/code-review-toolkit" {
		t.Errorf("expected html_url fallback, got %s", parsed.Plugin.RepoURL)
	}
}

func TestMergeTags(t *testing.T) {
	parsed := FromManifest(testManifest(), testRepo(), time.Now())

	// Keywords first, then topics, then lower-cased language, no duplicates.
	want := []string{"review", "claude-code", "typescript"}
	if len(parsed.Plugin.Tags) != len(want) {
		t.Fatalf("expected tags %v, got %v", want, parsed.Plugin.Tags)
	}
	for i, tag := range want {
		if parsed.Plugin.Tags[i] != tag {
			t.Errorf("tag %d: expected %s, got %s", i, tag, parsed.Plugin.Tags[i])
		}
	}
}

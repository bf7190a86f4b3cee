package parser

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/plugdex/plugdex/internal/github"
)

// contentFetcher is the slice of the GitHub client the heuristic parser
// needs: file and directory retrieval with the absent-on-404 contract.
type contentFetcher interface {
	GetFileContent(ctx context.Context, fullName, path, ref string) (string, bool, error)
	GetDirectoryContents(ctx context.Context, fullName, path, ref string) ([]github.Content, bool, error)
}

const noDescription = "No description available"

// Heuristic is the legacy extraction strategy for repositories that do not
// publish a manifest: plugin identity guessed from CLAUDE.md, components
// scanned from the .claude/ directory tree. Secondary and lower-confidence;
// the manifest path is authoritative.
type Heuristic struct {
	client contentFetcher
	logger *slog.Logger
}

// NewHeuristic creates the legacy parser.
func NewHeuristic(client contentFetcher, logger *slog.Logger) *Heuristic {
	return &Heuristic{
		client: client,
		logger: logger.With("component", "heuristic-parser"),
	}
}

// ParseRepository builds a ParsedPlugin from markdown conventions alone.
// Unlike the manifest path, the author always defaults to the repository
// owner and name/description fall back to the repository's own metadata.
func (h *Heuristic) ParseRepository(ctx context.Context, repo github.Repo, now time.Time) (*ParsedPlugin, error) {
	claudeMd, err := h.fetchFirst(ctx, repo.FullName, "CLAUDE.md", "claude.md")
	if err != nil {
		return nil, fmt.Errorf("fetch CLAUDE.md for %s: %w", repo.FullName, err)
	}

	meta := docMeta{Config: map[string]any{}}
	if claudeMd != "" {
		meta = parseMarkdownDoc(claudeMd)
	}

	name := meta.Name
	if name == "" {
		name = repo.Name
	}
	description := meta.Description
	if description == "" {
		description = repo.Description
	}
	if description == "" {
		description = "No description provided"
	}

	parsed := &ParsedPlugin{
		Plugin: Plugin{
			Name:        name,
			Description: description,
			Author:      repo.Owner.Login,
			RepoURL:     repo.HTMLURL,
			Stars:       repo.Stars,
			Downloads:   0,
			Tags:        mergeTags(meta.Tags, repo),
			Metadata: map[string]any{
				"topics":        repo.Topics,
				"language":      repo.Language,
				"defaultBranch": repo.DefaultBranch,
				"createdAt":     repo.CreatedAt,
				"updatedAt":     repo.UpdatedAt,
				"pushedAt":      repo.PushedAt,
				"lastIndexed":   now.UTC().Format(time.RFC3339),
				"hasClaudeMd":   claudeMd != "",
				"source":        "heuristic",
			},
		},
		Skills:     []Skill{},
		Agents:     []Agent{},
		Commands:   []Command{},
		MCPServers: []MCPServer{},
	}

	h.scanComponents(ctx, repo, parsed)

	return parsed, nil
}

// scanComponents walks the .claude/ component directories. Per-file parse
// failures are logged and the file dropped; the scan never fails the whole
// repository.
func (h *Heuristic) scanComponents(ctx context.Context, repo github.Repo, parsed *ParsedPlugin) {
	if _, ok, err := h.client.GetDirectoryContents(ctx, repo.FullName, ".claude", ""); err != nil || !ok {
		if err != nil {
			h.logger.Warn("failed to list .claude directory", "repo", repo.FullName, "error", err)
		}
		return
	}

	for _, f := range h.listMarkdown(ctx, repo.FullName, ".claude/skills") {
		meta, ok := h.fileMeta(ctx, repo.FullName, f)
		if !ok {
			continue
		}
		parsed.Skills = append(parsed.Skills, Skill{
			Name:        componentName(f.Name),
			Description: orDefault(meta.Description),
			FilePath:    f.Path,
			Config:      meta.Config,
		})
	}

	for _, f := range h.listMarkdown(ctx, repo.FullName, ".claude/agents") {
		meta, ok := h.fileMeta(ctx, repo.FullName, f)
		if !ok {
			continue
		}
		role := meta.Role
		if role == "" {
			role = "General Agent"
		}
		parsed.Agents = append(parsed.Agents, Agent{
			Name:        componentName(f.Name),
			Description: orDefault(meta.Description),
			Role:        role,
			FilePath:    f.Path,
			Config:      meta.Config,
		})
	}

	for _, f := range h.listMarkdown(ctx, repo.FullName, ".claude/commands") {
		meta, ok := h.fileMeta(ctx, repo.FullName, f)
		if !ok {
			continue
		}
		parsed.Commands = append(parsed.Commands, Command{
			Name:        componentName(f.Name),
			Description: orDefault(meta.Description),
			Handler:     f.Path,
			Options:     meta.Config,
		})
	}

	for _, f := range h.listEntries(ctx, repo.FullName, ".claude/mcp-servers", ".md", ".json") {
		meta, ok := h.fileMeta(ctx, repo.FullName, f)
		if !ok {
			continue
		}
		endpoint, _ := meta.Config["endpoint"].(string)
		if endpoint == "" {
			endpoint = "stdio"
		}
		name, _ := meta.Config["name"].(string)
		if name == "" {
			name = componentName(f.Name)
		}
		parsed.MCPServers = append(parsed.MCPServers, MCPServer{
			Name:        name,
			Description: orDefault(meta.Description),
			Endpoint:    endpoint,
			Config:      meta.Config,
		})
	}
}

func (h *Heuristic) listMarkdown(ctx context.Context, fullName, dir string) []github.Content {
	return h.listEntries(ctx, fullName, dir, ".md")
}

func (h *Heuristic) listEntries(ctx context.Context, fullName, dir string, exts ...string) []github.Content {
	entries, ok, err := h.client.GetDirectoryContents(ctx, fullName, dir, "")
	if err != nil {
		h.logger.Warn("failed to list directory", "repo", fullName, "path", dir, "error", err)
		return nil
	}
	if !ok {
		return nil
	}

	var files []github.Content
	for _, e := range entries {
		if e.Type != "file" {
			continue
		}
		for _, ext := range exts {
			if strings.HasSuffix(e.Name, ext) {
				files = append(files, e)
				break
			}
		}
	}
	return files
}

// fileMeta fetches one component file and extracts its metadata. JSON files
// are taken as raw config; markdown goes through the document heuristics.
func (h *Heuristic) fileMeta(ctx context.Context, fullName string, f github.Content) (docMeta, bool) {
	content, ok, err := h.client.GetFileContent(ctx, fullName, f.Path, "")
	if err != nil {
		h.logger.Warn("failed to fetch component file", "repo", fullName, "path", f.Path, "error", err)
		return docMeta{}, false
	}
	if !ok {
		return docMeta{}, false
	}

	if strings.HasSuffix(f.Name, ".json") {
		meta := docMeta{Config: map[string]any{}}
		cfg := parseJSONConfig(content)
		if cfg == nil {
			h.logger.Warn("invalid JSON component file", "repo", fullName, "path", f.Path)
			return docMeta{}, false
		}
		meta.Config = cfg
		if d, _ := cfg["description"].(string); d != "" {
			meta.Description = d
		}
		return meta, true
	}

	return parseMarkdownDoc(content), true
}

func componentName(filename string) string {
	name := strings.TrimSuffix(filename, ".md")
	return strings.TrimSuffix(name, ".json")
}

func orDefault(desc string) string {
	if desc == "" {
		return noDescription
	}
	return desc
}

// fetchFirst returns the first of the given paths that exists, or "".
func (h *Heuristic) fetchFirst(ctx context.Context, fullName string, paths ...string) (string, error) {
	for _, p := range paths {
		content, ok, err := h.client.GetFileContent(ctx, fullName, p, "")
		if err != nil {
			return "", err
		}
		if ok {
			return content, nil
		}
	}
	return "", nil
}

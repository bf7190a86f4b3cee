// Package parser transforms validated manifests (or, in the legacy path,
// heuristically parsed markdown) plus repository metadata into the
// normalized intermediate representation of one plugin.
package parser

import (
	"strings"
	"time"

	"github.com/plugdex/plugdex/internal/github"
	"github.com/plugdex/plugdex/internal/manifest"
	"github.com/plugdex/plugdex/internal/validation"
)

// Plugin is the normalized top-level plugin record.
type Plugin struct {
	Name        string         `json:"name" validate:"required,min=1"`
	Description string         `json:"description" validate:"required,min=10"`
	Author      string         `json:"author" validate:"required,min=1"`
	RepoURL     string         `json:"repoUrl" validate:"required,url"`
	Stars       int            `json:"stars" validate:"gte=0"`
	Downloads   int            `json:"downloads" validate:"gte=0"`
	Tags        []string       `json:"tags"`
	Metadata    map[string]any `json:"metadata"`
}

// Skill is a normalized skill component.
type Skill struct {
	Name        string         `json:"name" validate:"required,min=1"`
	Description string         `json:"description" validate:"required,min=1"`
	FilePath    string         `json:"filePath" validate:"required,min=1"`
	Config      map[string]any `json:"config"`
}

// Agent is a normalized agent component.
type Agent struct {
	Name        string         `json:"name" validate:"required,min=1"`
	Description string         `json:"description" validate:"required,min=1"`
	Role        string         `json:"role" validate:"required,min=1"`
	FilePath    string         `json:"filePath" validate:"required,min=1"`
	Config      map[string]any `json:"config"`
}

// Command is a normalized command component.
type Command struct {
	Name        string         `json:"name" validate:"required,min=1"`
	Description string         `json:"description" validate:"required,min=1"`
	Handler     string         `json:"handler" validate:"required,min=1"`
	Options     map[string]any `json:"options"`
}

// MCPServer is a normalized MCP server component.
type MCPServer struct {
	Name        string         `json:"name" validate:"required,min=1"`
	Description string         `json:"description" validate:"required,min=1"`
	Endpoint    string         `json:"endpoint" validate:"required,min=1"`
	Config      map[string]any `json:"config"`
}

// ParsedPlugin is the in-memory representation handed to the database
// updater. All four component slices are non-nil even when empty.
type ParsedPlugin struct {
	Plugin     Plugin      `json:"plugin"`
	Skills     []Skill     `json:"skills" validate:"dive"`
	Agents     []Agent     `json:"agents" validate:"dive"`
	Commands   []Command   `json:"commands" validate:"dive"`
	MCPServers []MCPServer `json:"mcpServers" validate:"dive"`
}

// Validate re-checks the parsed representation against its own schema.
// Defense in depth: a parser bug must not silently corrupt the store.
func (p *ParsedPlugin) Validate() []string {
	return validation.Struct(p)
}

// FromManifest maps a validated manifest plus repository metadata into the
// normalized representation. Deterministic apart from the indexing
// timestamp, which the caller supplies.
func FromManifest(m *manifest.Manifest, repo github.Repo, now time.Time) *ParsedPlugin {
	author := m.Author.Name
	if author == "" {
		author = repo.Owner.Login
	}

	repoURL := m.Repository.URL
	if repoURL == "" {
		repoURL = repo.HTMLURL
	}

	meta := map[string]any{
		"version":       m.Version,
		"topics":        repo.Topics,
		"language":      repo.Language,
		"defaultBranch": repo.DefaultBranch,
		"createdAt":     repo.CreatedAt,
		"updatedAt":     repo.UpdatedAt,
		"pushedAt":      repo.PushedAt,
		"lastIndexed":   now.UTC().Format(time.RFC3339),
	}
	if m.Author.Email != "" {
		meta["authorEmail"] = m.Author.Email
	}
	if m.Author.URL != "" {
		meta["authorUrl"] = m.Author.URL
	}

	parsed := &ParsedPlugin{
		Plugin: Plugin{
			Name:        m.Name,
			Description: m.Description,
			Author:      author,
			RepoURL:     repoURL,
			Stars:       repo.Stars,
			Downloads:   0,
			Tags:        mergeTags(m.Keywords, repo),
			Metadata:    meta,
		},
		Skills:     make([]Skill, 0, len(m.Skills)),
		Agents:     make([]Agent, 0, len(m.Agents)),
		Commands:   make([]Command, 0, len(m.Commands)),
		MCPServers: make([]MCPServer, 0, len(m.MCPServers)),
	}

	for _, s := range m.Skills {
		parsed.Skills = append(parsed.Skills, Skill{
			Name:        s.Name,
			Description: s.Description,
			FilePath:    s.FilePath,
			Config:      orEmpty(s.Config),
		})
	}

	for _, a := range m.Agents {
		// The manifest declares no role or file path for agents; the
		// description and name stand in for them.
		parsed.Agents = append(parsed.Agents, Agent{
			Name:        a.Name,
			Description: a.Description,
			Role:        a.Description,
			FilePath:    a.Name,
			Config:      orEmpty(a.Config),
		})
	}

	for _, c := range m.Commands {
		parsed.Commands = append(parsed.Commands, Command{
			Name:        c.Name,
			Description: c.Description,
			Handler:     c.Handler,
			Options:     orEmpty(c.Options),
		})
	}

	for _, srv := range m.MCPServers {
		parsed.MCPServers = append(parsed.MCPServers, MCPServer{
			Name:        srv.Name,
			Description: srv.Description,
			Endpoint:    srv.Transport,
			Config:      orEmpty(srv.Config),
		})
	}

	return parsed
}

// mergeTags unions manifest keywords, repository topics and the primary
// language (lower-cased), dropping duplicates while keeping first-seen
// order.
func mergeTags(keywords []string, repo github.Repo) []string {
	tags := make([]string, 0, len(keywords)+len(repo.Topics)+1)
	seen := make(map[string]struct{})

	add := func(t string) {
		if t == "" {
			return
		}
		if _, ok := seen[t]; ok {
			return
		}
		seen[t] = struct{}{}
		tags = append(tags, t)
	}

	for _, k := range keywords {
		add(k)
	}
	for _, t := range repo.Topics {
		add(t)
	}
	if repo.Language != "" {
		add(strings.ToLower(repo.Language))
	}

	return tags
}

func orEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

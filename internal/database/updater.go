package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/plugdex/plugdex/internal/parser"
)

// Stats summarizes the registry for operational dashboards: total plugins
// and the number of distinct plugins referenced by each component table.
type Stats struct {
	Total          int64 `json:"total"`
	WithSkills     int64 `json:"withSkills"`
	WithAgents     int64 `json:"withAgents"`
	WithCommands   int64 `json:"withCommands"`
	WithMCPServers int64 `json:"withMcpServers"`
}

// Updater reconciles parsed plugins against persisted rows. Writes for one
// plugin are not wrapped in a single transaction; a partially applied
// upsert is corrected by the next indexing pass, which the deterministic
// plugin id makes idempotent.
type Updater struct {
	q      Querier
	logger *slog.Logger
	now    func() time.Time
}

// NewUpdater creates an Updater over the given Querier.
func NewUpdater(q Querier, logger *slog.Logger) *Updater {
	return &Updater{
		q:      q,
		logger: logger.With("component", "updater"),
		now:    time.Now,
	}
}

var idSeparators = regexp.MustCompile(`[^a-z0-9-]+`)

// GeneratePluginID derives the stable plugin identifier from a repository
// URL: owner and repository name joined with "-", lower-cased, ".git"
// trimmed, remaining non-alphanumerics collapsed to "-". The same
// repository always maps to the same id, which is what makes re-indexing
// an upsert instead of a duplicate insert.
func GeneratePluginID(repoURL string) (string, error) {
	u, err := url.Parse(repoURL)
	if err != nil {
		return "", fmt.Errorf("invalid repository URL %q: %w", repoURL, err)
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", fmt.Errorf("repository URL %q has no owner/repo path", repoURL)
	}

	owner := parts[0]
	repo := strings.TrimSuffix(parts[1], ".git")

	id := strings.ToLower(owner + "-" + repo)
	return idSeparators.ReplaceAllString(id, "-"), nil
}

// UpsertPlugin reconciles one parsed plugin and its components, returning
// the derived plugin id. The plugin row is updated in place (downloads and
// createdAt untouched) or inserted fresh; each component kind is replaced
// wholesale by delete-all-then-bulk-insert.
func (u *Updater) UpsertPlugin(ctx context.Context, parsed *parser.ParsedPlugin) (string, error) {
	pluginID, err := GeneratePluginID(parsed.Plugin.RepoURL)
	if err != nil {
		return "", err
	}

	if err := u.upsertPluginRow(ctx, pluginID, parsed.Plugin); err != nil {
		return "", fmt.Errorf("upsert plugin %s: %w", pluginID, err)
	}

	if err := u.replaceSkills(ctx, pluginID, parsed.Skills); err != nil {
		return "", fmt.Errorf("replace skills for %s: %w", pluginID, err)
	}
	if err := u.replaceAgents(ctx, pluginID, parsed.Agents); err != nil {
		return "", fmt.Errorf("replace agents for %s: %w", pluginID, err)
	}
	if err := u.replaceCommands(ctx, pluginID, parsed.Commands); err != nil {
		return "", fmt.Errorf("replace commands for %s: %w", pluginID, err)
	}
	if err := u.replaceMCPServers(ctx, pluginID, parsed.MCPServers); err != nil {
		return "", fmt.Errorf("replace mcp servers for %s: %w", pluginID, err)
	}

	u.logger.Info("plugin upserted",
		"plugin_id", pluginID,
		"skills", len(parsed.Skills),
		"agents", len(parsed.Agents),
		"commands", len(parsed.Commands),
		"mcp_servers", len(parsed.MCPServers),
	)

	return pluginID, nil
}

func (u *Updater) upsertPluginRow(ctx context.Context, pluginID string, p parser.Plugin) error {
	now := u.now()

	_, err := u.q.GetPlugin(ctx, pluginID)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return u.q.InsertPlugin(ctx, Plugin{
			ID:          pluginID,
			Name:        p.Name,
			Description: p.Description,
			Author:      p.Author,
			RepoURL:     p.RepoURL,
			Stars:       p.Stars,
			Downloads:   p.Downloads,
			Tags:        p.Tags,
			Metadata:    p.Metadata,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	case err != nil:
		return err
	default:
		return u.q.UpdatePlugin(ctx, UpdatePluginParams{
			ID:          pluginID,
			Name:        p.Name,
			Description: p.Description,
			Author:      p.Author,
			RepoURL:     p.RepoURL,
			Stars:       p.Stars,
			Tags:        p.Tags,
			Metadata:    p.Metadata,
			UpdatedAt:   now,
		})
	}
}

// The replace helpers skip both the delete and the insert when the new
// component set is empty, to avoid a write when nothing was declared. Known
// consequence: a plugin that drops its last skill keeps its stale skill
// rows until it declares at least one again. Downstream consumers depend
// on the current behavior, so it is preserved rather than fixed here.

func (u *Updater) replaceSkills(ctx context.Context, pluginID string, skills []parser.Skill) error {
	if len(skills) == 0 {
		return nil
	}
	if err := u.q.DeleteSkillsByPlugin(ctx, pluginID); err != nil {
		return err
	}
	now := u.now()
	rows := make([]SkillRow, len(skills))
	for i, s := range skills {
		rows[i] = SkillRow{
			ID:          componentID(pluginID, "skill", i),
			PluginID:    pluginID,
			Name:        s.Name,
			Description: s.Description,
			FilePath:    s.FilePath,
			Config:      s.Config,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
	}
	return u.q.InsertSkills(ctx, rows)
}

func (u *Updater) replaceAgents(ctx context.Context, pluginID string, agents []parser.Agent) error {
	if len(agents) == 0 {
		return nil
	}
	if err := u.q.DeleteAgentsByPlugin(ctx, pluginID); err != nil {
		return err
	}
	now := u.now()
	rows := make([]AgentRow, len(agents))
	for i, a := range agents {
		rows[i] = AgentRow{
			ID:          componentID(pluginID, "agent", i),
			PluginID:    pluginID,
			Name:        a.Name,
			Description: a.Description,
			Role:        a.Role,
			FilePath:    a.FilePath,
			Config:      a.Config,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
	}
	return u.q.InsertAgents(ctx, rows)
}

func (u *Updater) replaceCommands(ctx context.Context, pluginID string, commands []parser.Command) error {
	if len(commands) == 0 {
		return nil
	}
	if err := u.q.DeleteCommandsByPlugin(ctx, pluginID); err != nil {
		return err
	}
	now := u.now()
	rows := make([]CommandRow, len(commands))
	for i, c := range commands {
		rows[i] = CommandRow{
			ID:          componentID(pluginID, "command", i),
			PluginID:    pluginID,
			Name:        c.Name,
			Description: c.Description,
			Handler:     c.Handler,
			Options:     c.Options,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
	}
	return u.q.InsertCommands(ctx, rows)
}

func (u *Updater) replaceMCPServers(ctx context.Context, pluginID string, servers []parser.MCPServer) error {
	if len(servers) == 0 {
		return nil
	}
	if err := u.q.DeleteMCPServersByPlugin(ctx, pluginID); err != nil {
		return err
	}
	now := u.now()
	rows := make([]MCPServerRow, len(servers))
	for i, s := range servers {
		rows[i] = MCPServerRow{
			ID:          componentID(pluginID, "mcp", i),
			PluginID:    pluginID,
			Name:        s.Name,
			Description: s.Description,
			Endpoint:    s.Endpoint,
			Config:      s.Config,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
	}
	return u.q.InsertMCPServers(ctx, rows)
}

// componentID derives a component row id from the plugin id, the component
// kind, and the ordinal position in the parsed array. Ids are therefore
// not stable across re-indexes and must not be referenced across passes.
func componentID(pluginID, kind string, index int) string {
	return fmt.Sprintf("%s-%s-%d", pluginID, kind, index)
}

// PluginExists reports whether the repository already has a persisted row.
func (u *Updater) PluginExists(ctx context.Context, repoURL string) (bool, error) {
	pluginID, err := GeneratePluginID(repoURL)
	if err != nil {
		return false, err
	}
	_, err = u.q.GetPlugin(ctx, pluginID)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetLastIndexed returns when the repository was last successfully indexed,
// reading metadata.lastIndexed and falling back to the row's own updatedAt.
// The zero time means the repository has never been indexed.
func (u *Updater) GetLastIndexed(ctx context.Context, repoURL string) (time.Time, error) {
	pluginID, err := GeneratePluginID(repoURL)
	if err != nil {
		return time.Time{}, err
	}

	p, err := u.q.GetPlugin(ctx, pluginID)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}

	if raw, ok := p.Metadata["lastIndexed"].(string); ok {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			return ts, nil
		}
	}
	return p.UpdatedAt, nil
}

// GetPluginStats collects registry counts for the stats endpoint.
func (u *Updater) GetPluginStats(ctx context.Context) (Stats, error) {
	var (
		stats Stats
		err   error
	)

	if stats.Total, err = u.q.CountPlugins(ctx); err != nil {
		return Stats{}, fmt.Errorf("count plugins: %w", err)
	}
	if stats.WithSkills, err = u.q.CountPluginsWithSkills(ctx); err != nil {
		return Stats{}, fmt.Errorf("count plugins with skills: %w", err)
	}
	if stats.WithAgents, err = u.q.CountPluginsWithAgents(ctx); err != nil {
		return Stats{}, fmt.Errorf("count plugins with agents: %w", err)
	}
	if stats.WithCommands, err = u.q.CountPluginsWithCommands(ctx); err != nil {
		return Stats{}, fmt.Errorf("count plugins with commands: %w", err)
	}
	if stats.WithMCPServers, err = u.q.CountPluginsWithMCPServers(ctx); err != nil {
		return Stats{}, fmt.Errorf("count plugins with mcp servers: %w", err)
	}

	return stats, nil
}

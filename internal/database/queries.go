package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Plugin is one persisted plugin row.
type Plugin struct {
	ID          string
	Name        string
	Description string
	Author      string
	RepoURL     string
	Stars       int
	Downloads   int
	Tags        []string
	Metadata    map[string]any
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// UpdatePluginParams carries the mutable fields overwritten on re-index.
// Downloads and the creation timestamp are deliberately absent.
type UpdatePluginParams struct {
	ID          string
	Name        string
	Description string
	Author      string
	RepoURL     string
	Stars       int
	Tags        []string
	Metadata    map[string]any
	UpdatedAt   time.Time
}

// SkillRow is one persisted skill component row.
type SkillRow struct {
	ID          string
	PluginID    string
	Name        string
	Description string
	FilePath    string
	Config      map[string]any
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AgentRow is one persisted agent component row.
type AgentRow struct {
	ID          string
	PluginID    string
	Name        string
	Description string
	Role        string
	FilePath    string
	Config      map[string]any
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CommandRow is one persisted command component row.
type CommandRow struct {
	ID          string
	PluginID    string
	Name        string
	Description string
	Handler     string
	Options     map[string]any
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// MCPServerRow is one persisted MCP server component row.
type MCPServerRow struct {
	ID          string
	PluginID    string
	Name        string
	Description string
	Endpoint    string
	Config      map[string]any
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Querier is the set of row-level operations the Updater needs. The pgx
// implementation is Queries; tests substitute an in-memory mock.
type Querier interface {
	GetPlugin(ctx context.Context, id string) (Plugin, error)
	InsertPlugin(ctx context.Context, p Plugin) error
	UpdatePlugin(ctx context.Context, arg UpdatePluginParams) error
	CountPlugins(ctx context.Context) (int64, error)

	DeleteSkillsByPlugin(ctx context.Context, pluginID string) error
	InsertSkills(ctx context.Context, rows []SkillRow) error
	CountPluginsWithSkills(ctx context.Context) (int64, error)

	DeleteAgentsByPlugin(ctx context.Context, pluginID string) error
	InsertAgents(ctx context.Context, rows []AgentRow) error
	CountPluginsWithAgents(ctx context.Context) (int64, error)

	DeleteCommandsByPlugin(ctx context.Context, pluginID string) error
	InsertCommands(ctx context.Context, rows []CommandRow) error
	CountPluginsWithCommands(ctx context.Context) (int64, error)

	DeleteMCPServersByPlugin(ctx context.Context, pluginID string) error
	InsertMCPServers(ctx context.Context, rows []MCPServerRow) error
	CountPluginsWithMCPServers(ctx context.Context) (int64, error)
}

// Queries is the pgx-backed Querier.
type Queries struct {
	db *pgxpool.Pool
}

// New creates a Queries over the given pool.
func New(db *pgxpool.Pool) *Queries {
	return &Queries{db: db}
}

const getPluginSQL = `
SELECT id, name, description, author, repo_url, stars, downloads, tags, metadata, created_at, updated_at
FROM plugins WHERE id = $1`

func (q *Queries) GetPlugin(ctx context.Context, id string) (Plugin, error) {
	var p Plugin
	err := q.db.QueryRow(ctx, getPluginSQL, id).Scan(
		&p.ID, &p.Name, &p.Description, &p.Author, &p.RepoURL,
		&p.Stars, &p.Downloads, &p.Tags, &p.Metadata, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

const insertPluginSQL = `
INSERT INTO plugins (id, name, description, author, repo_url, stars, downloads, tags, metadata, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

func (q *Queries) InsertPlugin(ctx context.Context, p Plugin) error {
	_, err := q.db.Exec(ctx, insertPluginSQL,
		p.ID, p.Name, p.Description, p.Author, p.RepoURL,
		p.Stars, p.Downloads, p.Tags, p.Metadata, p.CreatedAt, p.UpdatedAt,
	)
	return err
}

const updatePluginSQL = `
UPDATE plugins
SET name = $2, description = $3, author = $4, repo_url = $5, stars = $6, tags = $7, metadata = $8, updated_at = $9
WHERE id = $1`

func (q *Queries) UpdatePlugin(ctx context.Context, arg UpdatePluginParams) error {
	_, err := q.db.Exec(ctx, updatePluginSQL,
		arg.ID, arg.Name, arg.Description, arg.Author, arg.RepoURL,
		arg.Stars, arg.Tags, arg.Metadata, arg.UpdatedAt,
	)
	return err
}

func (q *Queries) CountPlugins(ctx context.Context) (int64, error) {
	return q.count(ctx, `SELECT COUNT(*) FROM plugins`)
}

func (q *Queries) DeleteSkillsByPlugin(ctx context.Context, pluginID string) error {
	_, err := q.db.Exec(ctx, `DELETE FROM skills WHERE plugin_id = $1`, pluginID)
	return err
}

const insertSkillSQL = `
INSERT INTO skills (id, plugin_id, name, description, file_path, config, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

func (q *Queries) InsertSkills(ctx context.Context, rows []SkillRow) error {
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(insertSkillSQL, r.ID, r.PluginID, r.Name, r.Description, r.FilePath, r.Config, r.CreatedAt, r.UpdatedAt)
	}
	return q.db.SendBatch(ctx, batch).Close()
}

func (q *Queries) CountPluginsWithSkills(ctx context.Context) (int64, error) {
	return q.count(ctx, `SELECT COUNT(DISTINCT plugin_id) FROM skills`)
}

func (q *Queries) DeleteAgentsByPlugin(ctx context.Context, pluginID string) error {
	_, err := q.db.Exec(ctx, `DELETE FROM agents WHERE plugin_id = $1`, pluginID)
	return err
}

const insertAgentSQL = `
INSERT INTO agents (id, plugin_id, name, description, role, file_path, config, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

func (q *Queries) InsertAgents(ctx context.Context, rows []AgentRow) error {
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(insertAgentSQL, r.ID, r.PluginID, r.Name, r.Description, r.Role, r.FilePath, r.Config, r.CreatedAt, r.UpdatedAt)
	}
	return q.db.SendBatch(ctx, batch).Close()
}

func (q *Queries) CountPluginsWithAgents(ctx context.Context) (int64, error) {
	return q.count(ctx, `SELECT COUNT(DISTINCT plugin_id) FROM agents`)
}

func (q *Queries) DeleteCommandsByPlugin(ctx context.Context, pluginID string) error {
	_, err := q.db.Exec(ctx, `DELETE FROM commands WHERE plugin_id = $1`, pluginID)
	return err
}

const insertCommandSQL = `
INSERT INTO commands (id, plugin_id, name, description, handler, options, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

func (q *Queries) InsertCommands(ctx context.Context, rows []CommandRow) error {
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(insertCommandSQL, r.ID, r.PluginID, r.Name, r.Description, r.Handler, r.Options, r.CreatedAt, r.UpdatedAt)
	}
	return q.db.SendBatch(ctx, batch).Close()
}

func (q *Queries) CountPluginsWithCommands(ctx context.Context) (int64, error) {
	return q.count(ctx, `SELECT COUNT(DISTINCT plugin_id) FROM commands`)
}

func (q *Queries) DeleteMCPServersByPlugin(ctx context.Context, pluginID string) error {
	_, err := q.db.Exec(ctx, `DELETE FROM mcp_servers WHERE plugin_id = $1`, pluginID)
	return err
}

const insertMCPServerSQL = `
INSERT INTO mcp_servers (id, plugin_id, name, description, endpoint, config, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

func (q *Queries) InsertMCPServers(ctx context.Context, rows []MCPServerRow) error {
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(insertMCPServerSQL, r.ID, r.PluginID, r.Name, r.Description, r.Endpoint, r.Config, r.CreatedAt, r.UpdatedAt)
	}
	return q.db.SendBatch(ctx, batch).Close()
}

func (q *Queries) CountPluginsWithMCPServers(ctx context.Context) (int64, error) {
	return q.count(ctx, `SELECT COUNT(DISTINCT plugin_id) FROM mcp_servers`)
}

func (q *Queries) count(ctx context.Context, sql string) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, sql).Scan(&n)
	return n, err
}

// Package manifest defines the plugin manifest document published by
// repositories and its validation rules. The manifest is the authoritative
// declaration of a plugin's identity and components.
package manifest

// Path is the fixed repository path the manifest is fetched from.
const Path = ".claude-plugin/marketplace.json"

// Transport values accepted for MCP server declarations.
const (
	TransportStdio     = "stdio"
	TransportHTTP      = "http"
	TransportWebsocket = "websocket"
)

// Manifest represents the marketplace.json structure
type Manifest struct {
	Name        string      `json:"name" validate:"required,min=1"`
	Version     string      `json:"version" validate:"required,plugin_version"`
	Description string      `json:"description" validate:"required,min=10"`
	Author      Author      `json:"author"`
	Repository  Repository  `json:"repository"`
	Keywords    []string    `json:"keywords,omitempty"`
	Skills      []Skill     `json:"skills,omitempty" validate:"omitempty,dive"`
	Agents      []Agent     `json:"agents,omitempty" validate:"omitempty,dive"`
	Commands    []Command   `json:"commands,omitempty" validate:"omitempty,dive"`
	MCPServers  []MCPServer `json:"mcpServers,omitempty" validate:"omitempty,dive"`
}

// Author identifies the plugin author. Only the name is required.
type Author struct {
	Name  string `json:"name" validate:"required,min=1"`
	Email string `json:"email,omitempty" validate:"omitempty,email"`
	URL   string `json:"url,omitempty" validate:"omitempty,url"`
}

// Repository points at the source repository. The type must be "git".
type Repository struct {
	Type string `json:"type" validate:"required,eq=git"`
	URL  string `json:"url" validate:"required,url"`
}

// Skill declares one skill shipped by the plugin.
type Skill struct {
	Name        string         `json:"name" validate:"required,min=1"`
	Description string         `json:"description" validate:"required,min=1"`
	FilePath    string         `json:"filePath" validate:"required,min=1"`
	Config      map[string]any `json:"config,omitempty"`
}

// Agent declares one agent shipped by the plugin.
type Agent struct {
	Name        string         `json:"name" validate:"required,min=1"`
	Description string         `json:"description" validate:"required,min=1"`
	Config      map[string]any `json:"config,omitempty"`
}

// Command declares one command shipped by the plugin.
type Command struct {
	Name        string         `json:"name" validate:"required,min=1"`
	Description string         `json:"description" validate:"required,min=1"`
	Handler     string         `json:"handler" validate:"required,min=1"`
	Options     map[string]any `json:"options,omitempty"`
}

// MCPServer declares one MCP server shipped by the plugin. The transport
// is a closed set; anything else fails validation.
type MCPServer struct {
	Name        string         `json:"name" validate:"required,min=1"`
	Description string         `json:"description" validate:"required,min=1"`
	Transport   string         `json:"transport" validate:"required,oneof=stdio http websocket"`
	Config      map[string]any `json:"config,omitempty"`
}

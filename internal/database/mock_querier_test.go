package database

import (
	"context"
)

// MockQuerier is a mock implementation of Querier
type MockQuerier struct {
	// Add hooks for methods we need to test
	GetPluginFunc                  func(ctx context.Context, id string) (Plugin, error)
	InsertPluginFunc               func(ctx context.Context, p Plugin) error
	UpdatePluginFunc               func(ctx context.Context, arg UpdatePluginParams) error
	CountPluginsFunc               func(ctx context.Context) (int64, error)
	DeleteSkillsByPluginFunc       func(ctx context.Context, pluginID string) error
	InsertSkillsFunc               func(ctx context.Context, rows []SkillRow) error
	CountPluginsWithSkillsFunc     func(ctx context.Context) (int64, error)
	DeleteAgentsByPluginFunc       func(ctx context.Context, pluginID string) error
	InsertAgentsFunc               func(ctx context.Context, rows []AgentRow) error
	CountPluginsWithAgentsFunc     func(ctx context.Context) (int64, error)
	DeleteCommandsByPluginFunc     func(ctx context.Context, pluginID string) error
	InsertCommandsFunc             func(ctx context.Context, rows []CommandRow) error
	CountPluginsWithCommandsFunc   func(ctx context.Context) (int64, error)
	DeleteMCPServersByPluginFunc   func(ctx context.Context, pluginID string) error
	InsertMCPServersFunc           func(ctx context.Context, rows []MCPServerRow) error
	CountPluginsWithMCPServersFunc func(ctx context.Context) (int64, error)
}

func (m *MockQuerier) GetPlugin(ctx context.Context, id string) (Plugin, error) {
	if m.GetPluginFunc != nil {
		return m.GetPluginFunc(ctx, id)
	}
	return Plugin{}, nil
}

func (m *MockQuerier) InsertPlugin(ctx context.Context, p Plugin) error {
	if m.InsertPluginFunc != nil {
		return m.InsertPluginFunc(ctx, p)
	}
	return nil
}

func (m *MockQuerier) UpdatePlugin(ctx context.Context, arg UpdatePluginParams) error {
	if m.UpdatePluginFunc != nil {
		return m.UpdatePluginFunc(ctx, arg)
	}
	return nil
}

func (m *MockQuerier) CountPlugins(ctx context.Context) (int64, error) {
	if m.CountPluginsFunc != nil {
		return m.CountPluginsFunc(ctx)
	}
	return 0, nil
}

func (m *MockQuerier) DeleteSkillsByPlugin(ctx context.Context, pluginID string) error {
	if m.DeleteSkillsByPluginFunc != nil {
		return m.DeleteSkillsByPluginFunc(ctx, pluginID)
	}
	return nil
}

func (m *MockQuerier) InsertSkills(ctx context.Context, rows []SkillRow) error {
	if m.InsertSkillsFunc != nil {
		return m.InsertSkillsFunc(ctx, rows)
	}
	return nil
}

func (m *MockQuerier) CountPluginsWithSkills(ctx context.Context) (int64, error) {
	if m.CountPluginsWithSkillsFunc != nil {
		return m.CountPluginsWithSkillsFunc(ctx)
	}
	return 0, nil
}

func (m *MockQuerier) DeleteAgentsByPlugin(ctx context.Context, pluginID string) error {
	if m.DeleteAgentsByPluginFunc != nil {
		return m.DeleteAgentsByPluginFunc(ctx, pluginID)
	}
	return nil
}

func (m *MockQuerier) InsertAgents(ctx context.Context, rows []AgentRow) error {
	if m.InsertAgentsFunc != nil {
		return m.InsertAgentsFunc(ctx, rows)
	}
	return nil
}

func (m *MockQuerier) CountPluginsWithAgents(ctx context.Context) (int64, error) {
	if m.CountPluginsWithAgentsFunc != nil {
		return m.CountPluginsWithAgentsFunc(ctx)
	}
	return 0, nil
}

func (m *MockQuerier) DeleteCommandsByPlugin(ctx context.Context, pluginID string) error {
	if m.DeleteCommandsByPluginFunc != nil {
		return m.DeleteCommandsByPluginFunc(ctx, pluginID)
	}
	return nil
}

func (m *MockQuerier) InsertCommands(ctx context.Context, rows []CommandRow) error {
	if m.InsertCommandsFunc != nil {
		return m.InsertCommandsFunc(ctx, rows)
	}
	return nil
}

func (m *MockQuerier) CountPluginsWithCommands(ctx context.Context) (int64, error) {
	if m.CountPluginsWithCommandsFunc != nil {
		return m.CountPluginsWithCommandsFunc(ctx)
	}
	return 0, nil
}

func (m *MockQuerier) DeleteMCPServersByPlugin(ctx context.Context, pluginID string) error {
	if m.DeleteMCPServersByPluginFunc != nil {
		return m.DeleteMCPServersByPluginFunc(ctx, pluginID)
	}
	return nil
}

func (m *MockQuerier) InsertMCPServers(ctx context.Context, rows []MCPServerRow) error {
	if m.InsertMCPServersFunc != nil {
		return m.InsertMCPServersFunc(ctx, rows)
	}
	return nil
}

func (m *MockQuerier) CountPluginsWithMCPServers(ctx context.Context) (int64, error) {
	if m.CountPluginsWithMCPServersFunc != nil {
		return m.CountPluginsWithMCPServersFunc(ctx)
	}
	return 0, nil
}

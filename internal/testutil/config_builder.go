package testutil

import (
	"github.com/tmatup/olliebot/core"
)

// ConfigBuilder provides a fluent helper for constructing agent configs in
// tests. Example:
//
//	cfg := NewConfigBuilder().Name("Supervisor").Spawner().Tools("*").Build()
type ConfigBuilder struct {
	cfg core.Config
}

// NewConfigBuilder creates a builder with a generated id, role "agent" and
// channel access "*".
func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{cfg: core.Config{
		Identity: core.Identity{
			ID:   core.NewID(),
			Name: "TestAgent",
			Role: "agent",
		},
		Capabilities: core.Capabilities{
			CanUseChannels:     []string{"*"},
			MaxConcurrentTasks: 1,
		},
	}}
}

// ID overrides the auto-generated agent id (chainable).
func (b *ConfigBuilder) ID(id string) *ConfigBuilder { b.cfg.Identity.ID = id; return b }

// Name sets the agent display name (chainable).
func (b *ConfigBuilder) Name(name string) *ConfigBuilder { b.cfg.Identity.Name = name; return b }

// Role sets the agent role tag (chainable).
func (b *ConfigBuilder) Role(role string) *ConfigBuilder { b.cfg.Identity.Role = role; return b }

// Spawner grants the can-spawn-agents capability (chainable).
func (b *ConfigBuilder) Spawner() *ConfigBuilder {
	b.cfg.Capabilities.CanSpawnAgents = true
	return b
}

// Tools sets the tool-access pattern list (chainable).
func (b *ConfigBuilder) Tools(patterns ...string) *ConfigBuilder {
	b.cfg.Capabilities.CanAccessTools = patterns
	return b
}

// Channels sets the channel allowlist (chainable).
func (b *ConfigBuilder) Channels(ids ...string) *ConfigBuilder {
	b.cfg.Capabilities.CanUseChannels = ids
	return b
}

// Prompt sets the base system prompt (chainable).
func (b *ConfigBuilder) Prompt(p string) *ConfigBuilder { b.cfg.SystemPrompt = p; return b }

// Mission sets the agent mission (chainable).
func (b *ConfigBuilder) Mission(m string) *ConfigBuilder { b.cfg.Mission = m; return b }

// Parent sets the delegating parent's id (chainable).
func (b *ConfigBuilder) Parent(id string) *ConfigBuilder { b.cfg.ParentID = id; return b }

// Build returns the assembled config.
func (b *ConfigBuilder) Build() core.Config { return b.cfg }

package core

import "github.com/google/uuid"

// Identity carries the immutable description of an agent. ID is unique within
// a run and is the addressing key for inter-agent communications.
type Identity struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Emoji       string `json:"emoji,omitempty"`
	Role        string `json:"role"`
	Description string `json:"description,omitempty"`
}

// NewID generates a unique identifier for agents, tasks, tool requests and
// streams.
func NewID() string { return uuid.NewString() }

// Capabilities describes the policy attached to an agent: whether it may
// spawn sub-agents, which tools it may access (ordered pattern list, see
// tool.FilterDefinitions for the matching rules), which channels it may
// deliver to, and how many tasks it may run concurrently.
//
// An empty CanAccessTools list grants access to zero tools. Absence of a
// restriction is never treated as unrestricted access.
type Capabilities struct {
	CanSpawnAgents     bool     `json:"can_spawn_agents"`
	CanAccessTools     []string `json:"can_access_tools"`
	CanUseChannels     []string `json:"can_use_channels"`
	MaxConcurrentTasks int      `json:"max_concurrent_tasks"`
}

// CanUseChannel reports whether delivery to the named channel is permitted.
// The wildcard entry "*" permits every channel.
func (c Capabilities) CanUseChannel(id string) bool {
	for _, ch := range c.CanUseChannels {
		if ch == "*" || ch == id {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers can derive new capability sets without
// aliasing the pattern slices.
func (c Capabilities) Clone() Capabilities {
	out := c
	out.CanAccessTools = append([]string(nil), c.CanAccessTools...)
	out.CanUseChannels = append([]string(nil), c.CanUseChannels...)
	return out
}

// Config is the immutable construction-time description of an agent. Mission
// may be set at construction only; ParentID is a back-reference used for
// addressing task results, never an ownership relation.
type Config struct {
	Identity     Identity
	Capabilities Capabilities
	SystemPrompt string
	Mission      string
	ParentID     string
}

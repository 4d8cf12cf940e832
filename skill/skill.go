// Package skill provides the skill catalog collaborator. Skills are reusable
// prompt-level instructions (how to write a changelog, how to triage a bug
// report) injected into an agent's system prompt; they carry no executable
// behavior of their own.
package skill

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Skill is a named instruction block an agent can be told to follow.
type Skill struct {
	Name        string
	Description string
	Instructions string
}

// Provider supplies the skill block for an agent's system prompt. An empty
// string means the agent has no skills and the section is omitted.
type Provider interface {
	FormatSkills(ctx context.Context, agentID string) (string, error)
}

// StaticCatalog is a Provider backed by a fixed per-agent skill list.
type StaticCatalog struct {
	mu     sync.RWMutex
	skills map[string][]Skill // agentID -> skills
}

// NewStaticCatalog creates an empty catalog.
func NewStaticCatalog() *StaticCatalog {
	return &StaticCatalog{skills: make(map[string][]Skill)}
}

// Grant assigns a skill to an agent.
func (c *StaticCatalog) Grant(agentID string, s Skill) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.skills[agentID] = append(c.skills[agentID], s)
}

// FormatSkills renders the agent's skills as a prompt block.
func (c *StaticCatalog) FormatSkills(_ context.Context, agentID string) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	skills := c.skills[agentID]
	if len(skills) == 0 {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString("You have the following skills. Apply them when the task calls for it:\n")
	for _, s := range skills {
		fmt.Fprintf(&sb, "\n### %s\n%s\n%s\n", s.Name, s.Description, s.Instructions)
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

// Package memory provides the memory collaborator consulted while composing
// an agent's system prompt. The agent treats the formatted block as opaque
// text; what counts as memory (key/value facts, prior task notes, a vector
// index) is entirely the provider's business.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Provider supplies the memory block for an agent's system prompt. An empty
// string means nothing worth remembering; the agent omits the section.
type Provider interface {
	FormatContext(ctx context.Context, agentID string) (string, error)
}

// Note is a single remembered item scoped to an agent.
type Note struct {
	ID      string
	Content string
}

// InMemoryStore is a process-local Provider holding agent-scoped key/value
// facts and append-only notes. Suitable for tests and single-process runs;
// swap for a persistent or semantic store for anything long-lived.
type InMemoryStore struct {
	mu    sync.RWMutex
	facts map[string]map[string]string // agentID -> key -> value
	notes map[string][]Note            // agentID -> notes in insertion order
}

// NewInMemoryStore creates an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		facts: make(map[string]map[string]string),
		notes: make(map[string][]Note),
	}
}

// PutFact merges a key/value fact into the agent's memory.
func (s *InMemoryStore) PutFact(agentID, key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.facts[agentID]; !ok {
		s.facts[agentID] = make(map[string]string)
	}
	s.facts[agentID][key] = value
}

// AddNote appends a note to the agent's memory.
func (s *InMemoryStore) AddNote(agentID string, note Note) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes[agentID] = append(s.notes[agentID], note)
}

// Search performs a case-insensitive substring match over the agent's notes.
func (s *InMemoryStore) Search(agentID, query string, limit int) []Note {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(query)
	results := make([]Note, 0, limit)
	for _, n := range s.notes[agentID] {
		if strings.Contains(strings.ToLower(n.Content), needle) {
			results = append(results, n)
			if limit > 0 && len(results) >= limit {
				break
			}
		}
	}
	return results
}

// FormatContext renders the agent's facts and notes as a prompt block. Facts
// are sorted by key so the block is stable across calls.
func (s *InMemoryStore) FormatContext(_ context.Context, agentID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	facts := s.facts[agentID]
	notes := s.notes[agentID]
	if len(facts) == 0 && len(notes) == 0 {
		return "", nil
	}

	var sb strings.Builder
	if len(facts) > 0 {
		keys := make([]string, 0, len(facts))
		for k := range facts {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&sb, "- %s: %s\n", k, facts[k])
		}
	}
	for _, n := range notes {
		fmt.Fprintf(&sb, "- %s\n", n.Content)
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

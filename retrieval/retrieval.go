// Package retrieval provides the knowledge retrieval collaborator: the source
// of the (potentially expensive) knowledge block injected into an agent's
// system prompt. The agent caches the formatted block; providers should not
// cache internally.
package retrieval

import (
	"context"
	"strings"
	"sync"
)

// Provider supplies the retrieval knowledge block for an agent's system
// prompt. Implementations may hit disk, a search index, or a remote service;
// an empty string means no relevant knowledge and the section is omitted.
type Provider interface {
	FormatKnowledge(ctx context.Context, agentID string) (string, error)
}

// StaticProvider is a Provider backed by fixed per-agent document snippets.
// Useful for tests and for small curated knowledge sets.
type StaticProvider struct {
	mu   sync.RWMutex
	docs map[string][]string // agentID -> snippets
}

// NewStaticProvider creates an empty provider.
func NewStaticProvider() *StaticProvider {
	return &StaticProvider{docs: make(map[string][]string)}
}

// Add appends a knowledge snippet for an agent.
func (p *StaticProvider) Add(agentID, snippet string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.docs[agentID] = append(p.docs[agentID], snippet)
}

// FormatKnowledge joins the agent's snippets into a single block.
func (p *StaticProvider) FormatKnowledge(_ context.Context, agentID string) (string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	docs := p.docs[agentID]
	if len(docs) == 0 {
		return "", nil
	}
	return strings.Join(docs, "\n\n"), nil
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context, agentID string) (string, error)

// FormatKnowledge calls f.
func (f ProviderFunc) FormatKnowledge(ctx context.Context, agentID string) (string, error) {
	return f(ctx, agentID)
}

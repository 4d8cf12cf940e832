package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticProvider(t *testing.T) {
	p := NewStaticProvider()

	block, err := p.FormatKnowledge(context.Background(), "agent-1")
	require.NoError(t, err)
	assert.Empty(t, block)

	p.Add("agent-1", "The API rate limit is 60 requests per minute.")
	p.Add("agent-1", "Auth tokens expire after 24 hours.")

	block, err = p.FormatKnowledge(context.Background(), "agent-1")
	require.NoError(t, err)
	assert.Equal(t, "The API rate limit is 60 requests per minute.\n\nAuth tokens expire after 24 hours.", block)
}

func TestProviderFunc(t *testing.T) {
	calls := 0
	p := ProviderFunc(func(_ context.Context, agentID string) (string, error) {
		calls++
		return "knowledge for " + agentID, nil
	})

	block, err := p.FormatKnowledge(context.Background(), "agent-1")
	require.NoError(t, err)
	assert.Equal(t, "knowledge for agent-1", block)
	assert.Equal(t, 1, calls)
}

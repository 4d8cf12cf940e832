package channel

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterChannelSendAndStream(t *testing.T) {
	var buf bytes.Buffer
	ch := NewWriterChannel("terminal", &buf)
	ctx := context.Background()

	require.NoError(t, ch.Send(ctx, "hello"))

	streamID, err := ch.StartStream(ctx)
	require.NoError(t, err)
	require.NoError(t, ch.SendStreamChunk(ctx, streamID, "chunk1"))
	require.NoError(t, ch.SendStreamChunk(ctx, streamID, "chunk2"))
	require.NoError(t, ch.EndStream(ctx, streamID))

	require.NoError(t, ch.SendError(ctx, "task failed", "model unavailable"))

	out := buf.String()
	assert.Contains(t, out, "hello\n")
	assert.Contains(t, out, "chunk1chunk2\n")
	assert.Contains(t, out, "error: task failed (model unavailable)")
}

func TestMemoryChannelRecords(t *testing.T) {
	ch := NewMemoryChannel("test")
	ctx := context.Background()

	require.NoError(t, ch.Send(ctx, "one"))
	require.NoError(t, ch.Send(ctx, "two"))
	require.NoError(t, ch.SendError(ctx, "oops", "detail"))

	streamID, err := ch.StartStream(ctx)
	require.NoError(t, err)
	require.NoError(t, ch.SendStreamChunk(ctx, streamID, "a"))
	require.NoError(t, ch.SendStreamChunk(ctx, streamID, "b"))
	require.NoError(t, ch.EndStream(ctx, streamID))

	assert.Equal(t, []string{"one", "two"}, ch.Messages())
	assert.Equal(t, []string{"oops: detail"}, ch.Errors())
	assert.Equal(t, "ab", ch.StreamContent(streamID))
}

func TestMemoryChannelUnknownStream(t *testing.T) {
	ch := NewMemoryChannel("test")
	err := ch.SendStreamChunk(context.Background(), "missing", "x")
	assert.Error(t, err)
}

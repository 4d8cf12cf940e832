// Package channel defines the delivery sink agents write user-facing text
// to. The core treats a channel purely as a sink: it never persists messages
// and owns no transport framing. WriterChannel adapts any io.Writer (demos,
// CLIs); MemoryChannel records everything for tests.
package channel

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/tmatup/olliebot/core"
)

// SendOptions carries optional delivery metadata.
type SendOptions struct {
	// Citations attached to the delivered text, if any.
	Citations []core.CitationSource
}

// Channel is the delivery collaborator contract.
type Channel interface {
	// ID identifies the channel for capability checks (Capabilities.CanUseChannels).
	ID() string

	// Send delivers a complete message.
	Send(ctx context.Context, text string, optFns ...func(o *SendOptions)) error

	// SendError delivers a short human-readable error plus optional detail.
	SendError(ctx context.Context, text, details string) error

	// StartStream opens an incremental text stream and returns its id.
	StartStream(ctx context.Context) (string, error)

	// SendStreamChunk appends a chunk to an open stream.
	SendStreamChunk(ctx context.Context, streamID, chunk string) error

	// EndStream closes an open stream.
	EndStream(ctx context.Context, streamID string) error
}

// WriterChannel delivers to an io.Writer. Streams are written inline as
// chunks arrive, which suits terminal-style consumers.
type WriterChannel struct {
	id string
	mu sync.Mutex
	w  io.Writer
}

// NewWriterChannel wraps a writer as a channel with the given id.
func NewWriterChannel(id string, w io.Writer) *WriterChannel {
	return &WriterChannel{id: id, w: w}
}

// ID implements Channel.
func (c *WriterChannel) ID() string { return c.id }

// Send implements Channel.
func (c *WriterChannel) Send(_ context.Context, text string, _ ...func(o *SendOptions)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprintln(c.w, text)
	return err
}

// SendError implements Channel.
func (c *WriterChannel) SendError(_ context.Context, text, details string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if details != "" {
		_, err := fmt.Fprintf(c.w, "error: %s (%s)\n", text, details)
		return err
	}
	_, err := fmt.Fprintf(c.w, "error: %s\n", text)
	return err
}

// StartStream implements Channel.
func (c *WriterChannel) StartStream(context.Context) (string, error) {
	return core.NewID(), nil
}

// SendStreamChunk implements Channel.
func (c *WriterChannel) SendStreamChunk(_ context.Context, _ string, chunk string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := io.WriteString(c.w, chunk)
	return err
}

// EndStream implements Channel.
func (c *WriterChannel) EndStream(context.Context, string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := io.WriteString(c.w, "\n")
	return err
}

// MemoryChannel records every delivery for later inspection. Safe for
// concurrent use; intended for tests.
type MemoryChannel struct {
	id string

	mu       sync.Mutex
	messages []string
	errors   []string
	streams  map[string][]string
}

// NewMemoryChannel constructs an empty recording channel.
func NewMemoryChannel(id string) *MemoryChannel {
	return &MemoryChannel{id: id, streams: map[string][]string{}}
}

// ID implements Channel.
func (c *MemoryChannel) ID() string { return c.id }

// Send implements Channel.
func (c *MemoryChannel) Send(_ context.Context, text string, _ ...func(o *SendOptions)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, text)
	return nil
}

// SendError implements Channel.
func (c *MemoryChannel) SendError(_ context.Context, text, details string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	msg := text
	if details != "" {
		msg = text + ": " + details
	}
	c.errors = append(c.errors, msg)
	return nil
}

// StartStream implements Channel.
func (c *MemoryChannel) StartStream(context.Context) (string, error) {
	id := core.NewID()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.streams[id] = []string{}
	return id, nil
}

// SendStreamChunk implements Channel.
func (c *MemoryChannel) SendStreamChunk(_ context.Context, streamID, chunk string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.streams[streamID]; !ok {
		return fmt.Errorf("unknown stream %s", streamID)
	}
	c.streams[streamID] = append(c.streams[streamID], chunk)
	return nil
}

// EndStream implements Channel.
func (c *MemoryChannel) EndStream(_ context.Context, streamID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.streams[streamID]; !ok {
		return fmt.Errorf("unknown stream %s", streamID)
	}
	return nil
}

// Messages returns a copy of the delivered messages.
func (c *MemoryChannel) Messages() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.messages...)
}

// Errors returns a copy of the delivered errors.
func (c *MemoryChannel) Errors() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.errors...)
}

// StreamContent joins the chunks of the given stream.
func (c *MemoryChannel) StreamContent(streamID string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out string
	for _, chunk := range c.streams[streamID] {
		out += chunk
	}
	return out
}

// Streams returns the ids of every opened stream.
func (c *MemoryChannel) Streams() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.streams))
	for id := range c.streams {
		out = append(out, id)
	}
	return out
}

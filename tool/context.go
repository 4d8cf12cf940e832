package tool

import (
	"context"
	"sync"
	"time"

	"github.com/tmatup/olliebot/core"
	"github.com/tmatup/olliebot/logging"
)

// Context is the per-call scope handed to a Tool. It carries the ambient
// cancellation context, the originating request id (for provenance
// correlation), a logger, and collects citation sources the tool records
// while producing its output.
type Context struct {
	ctx       context.Context
	requestID string
	logger    logging.Logger

	mu        sync.Mutex
	citations []core.CitationSource
}

// NewContext builds a tool Context. A nil logger is replaced with NoOpLogger.
func NewContext(ctx context.Context, requestID string, logger logging.Logger) *Context {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Context{ctx: ctx, requestID: requestID, logger: logger}
}

// Context returns the ambient cancellation context.
func (c *Context) Context() context.Context { return c.ctx }

// RequestID returns the tool request id this call executes under.
func (c *Context) RequestID() string { return c.requestID }

// Logger returns the logger attached to this call.
func (c *Context) Logger() logging.Logger { return c.logger }

// AddCitation records a provenance source produced by this call. Missing id,
// request id and timestamp fields are filled in.
func (c *Context) AddCitation(cs core.CitationSource) {
	if cs.ID == "" {
		cs.ID = core.NewID()
	}
	if cs.ToolRequestID == "" {
		cs.ToolRequestID = c.requestID
	}
	if cs.Timestamp.IsZero() {
		cs.Timestamp = time.Now().UTC()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.citations = append(c.citations, cs)
}

// Citations returns a copy of the recorded citation sources.
func (c *Context) Citations() []core.CitationSource {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]core.CitationSource, len(c.citations))
	copy(out, c.citations)
	return out
}

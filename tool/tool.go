// Package tool implements the tool-execution side of the orchestration
// engine: the Tool interface agents call through, schema-validated function
// tools, the capability pattern filter that decides which tools an agent may
// offer to the model, and an in-process Runtime that executes request batches
// with bounded parallelism and citation collection.
package tool

import (
	"context"
	"fmt"
	"time"

	"github.com/tmatup/olliebot/core"
	"github.com/tmatup/olliebot/internal/util"
)

// Tool defines the interface for extending agent capabilities with external
// functions.
//
// Tool implementations should:
//   - Provide clear, descriptive names and descriptions
//   - Define proper JSON schema for parameters
//   - Handle errors gracefully
//   - Be safe for concurrent use
type Tool interface {
	// Name returns the unique identifier for this tool. Names follow the
	// "<category>__<name>" convention (e.g. "native__search") so capability
	// patterns and prompt summaries can group by category.
	Name() string

	// Description returns a human-readable description provided to the model.
	Description() string

	// Parameters returns a JSON schema describing the expected input format.
	Parameters() map[string]any

	// Call executes the tool. The Context gives access to the cancellation
	// context, the originating request id, a logger and citation recording.
	Call(toolCtx *Context, args map[string]any) (any, error)
}

// Definition declaratively exposes a callable tool to the model.
type Definition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Category returns the tool's category prefix ("native" for "native__search")
// or "general" when the name carries no category separator.
func (d Definition) Category() string {
	if cat, _, ok := splitCategory(d.Name); ok {
		return cat
	}
	return "general"
}

// Request is one tool invocation handed to an Executor.
type Request struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Input map[string]any `json:"input,omitempty"`
}

// Result is the per-call outcome of an executed Request. A failed call is a
// Result with Success=false and Error set, never a batch-level error.
type Result struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Success  bool          `json:"success"`
	Output   any           `json:"output,omitempty"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Batch is the outcome of executing a request batch: one Result per Request
// in the original order, plus all citation sources recorded during the batch.
type Batch struct {
	Results   []Result              `json:"results"`
	Citations []core.CitationSource `json:"citations,omitempty"`
}

// Executor is the tool-execution collaborator consumed by agents. The tool
// set it reports may grow at runtime, so callers must re-read Definitions per
// request rather than caching them for an agent's lifetime.
type Executor interface {
	// Definitions lists every tool currently known to the executor.
	Definitions() []Definition

	// NewRequest builds a Request, generating an id when none is supplied.
	NewRequest(id, name string, input map[string]any) Request

	// Execute runs the batch. Individual call failures are folded into their
	// Result slots; the returned error is reserved for context cancellation.
	Execute(ctx context.Context, requests []Request) (*Batch, error)
}

// ValidationError represents parameter validation errors with detailed
// information.
type ValidationError = util.ValidationError

// ToolError represents errors that occur during tool execution.
type ToolError struct {
	Tool    string `json:"tool"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{Tool: tool, Message: message, Code: code}
}

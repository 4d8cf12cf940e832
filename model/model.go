// Package model defines the language-model collaborator contract consumed by
// the agent loop, normalized across providers: a Request carrying the system
// prompt, conversation turns and tool definitions, and a stream of Response
// chunks where partial responses carry text deltas and the final response
// carries the full text, any requested tool calls and the stop reason.
package model

import (
	"context"
	"fmt"
	"sync"
)

// ToolCall is a function call request surfaced by a model provider, unified
// across vendors so downstream logic needs no per-provider branching.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // JSON-encoded argument payload
}

// ToolResult is the outcome of a previously requested tool call, folded back
// into the conversation for the next model turn.
type ToolResult struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Content string `json:"content"`
	IsError bool   `json:"is_error,omitempty"`
}

// Message is one normalized conversation turn.
type Message struct {
	Role        string       `json:"role"` // system, user, assistant, tool
	Text        string       `json:"text,omitempty"`
	ToolCalls   []ToolCall   `json:"tool_calls,omitempty"`   // assistant turns
	ToolResults []ToolResult `json:"tool_results,omitempty"` // tool turns
}

// ToolDefinition declaratively exposes a callable tool to the model.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"` // JSON schema
}

// Request captures the normalized model input produced by the agent loop.
type Request struct {
	System   string           `json:"system,omitempty"`
	Messages []Message        `json:"messages"`
	Tools    []ToolDefinition `json:"tools,omitempty"`
	Stream   bool             `json:"stream,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a (partial or final) chunk emitted by a model. Partial chunks
// carry the incremental Text delta; the final chunk carries the complete
// accumulated text plus any tool calls and the stop reason.
type Response struct {
	Partial    bool        `json:"partial"`
	Text       string      `json:"text,omitempty"`
	ToolCalls  []ToolCall  `json:"tool_calls,omitempty"`
	StopReason string      `json:"stop_reason,omitempty"` // "stop", "tool_calls", "length", ...
	Usage      *TokenUsage `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "mock", ...
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface required to drive generation. Generate
// returns a response channel and an error channel; both are closed when the
// turn completes. No retry or backoff policy is implied here.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// mockTurn is one scripted Generate outcome.
type mockTurn struct {
	resp Response
	err  error
}

// MockModel is a lightweight in-memory Model for tests and examples. Turns
// enqueued with AddTurn / AddError are consumed one per Generate call; when
// the script is exhausted it echoes the last user message.
type MockModel struct {
	mu       sync.Mutex
	info     Info
	turns    []mockTurn
	requests []Request
}

// NewMockModel constructs a MockModel with tool support enabled.
func NewMockModel(name string) *MockModel {
	return &MockModel{
		info: Info{Name: name, Provider: "mock", SupportsTools: true},
	}
}

// AddTurn enqueues a scripted final response for the next unscripted
// Generate call.
func (m *MockModel) AddTurn(resp Response) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	resp.Partial = false
	if resp.StopReason == "" {
		if len(resp.ToolCalls) > 0 {
			resp.StopReason = "tool_calls"
		} else {
			resp.StopReason = "stop"
		}
	}
	m.turns = append(m.turns, mockTurn{resp: resp})
	return m
}

// AddTextTurn enqueues a plain text final response.
func (m *MockModel) AddTextTurn(text string) *MockModel {
	return m.AddTurn(Response{Text: text})
}

// AddToolCallTurn enqueues a final response requesting the given tool calls.
func (m *MockModel) AddToolCallTurn(calls ...ToolCall) *MockModel {
	return m.AddTurn(Response{ToolCalls: calls})
}

// AddError enqueues a Generate failure.
func (m *MockModel) AddError(err error) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = append(m.turns, mockTurn{err: err})
	return m
}

// Requests returns a copy of every Request received so far.
func (m *MockModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// CallCount returns the number of Generate calls received.
func (m *MockModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

func (m *MockModel) nextTurn(req Request) mockTurn {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	if len(m.turns) > 0 {
		turn := m.turns[0]
		m.turns = m.turns[1:]
		return turn
	}
	var lastUser string
	for _, msg := range req.Messages {
		if msg.Role == "user" {
			lastUser = msg.Text
		}
	}
	return mockTurn{resp: Response{
		Text:       fmt.Sprintf("Mock response to: %s", lastUser),
		StopReason: "stop",
	}}
}

// Generate implements Model; emits optional streaming chunks then the final
// response.
func (m *MockModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 16)
	errCh := make(chan error, 1)

	turn := m.nextTurn(req)

	go func() {
		defer close(respCh)
		defer close(errCh)

		if turn.err != nil {
			errCh <- turn.err
			return
		}

		if req.Stream && turn.resp.Text != "" {
			for _, r := range turn.resp.Text {
				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				case respCh <- Response{Partial: true, Text: string(r)}:
				}
			}
		}

		select {
		case <-ctx.Done():
			errCh <- ctx.Err()
		case respCh <- turn.resp:
		}
	}()

	return respCh, errCh
}

// Info implements Model.
func (m *MockModel) Info() Info { return m.info }

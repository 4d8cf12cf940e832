package agent

import (
	"context"
	"sync"

	"github.com/tmatup/olliebot/core"
	"github.com/tmatup/olliebot/internal/testutil"
	"github.com/tmatup/olliebot/model"
	"github.com/tmatup/olliebot/tool"
)

// handlerModel scripts Generate behavior as a single function of the request,
// which keeps concurrent sub-agent calls deterministic (dispatch by content,
// not by call order).
type handlerModel struct {
	mu       sync.Mutex
	requests []model.Request
	fn       func(ctx context.Context, req model.Request) (model.Response, error)
}

func newHandlerModel(fn func(ctx context.Context, req model.Request) (model.Response, error)) *handlerModel {
	return &handlerModel{fn: fn}
}

func (m *handlerModel) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	respCh := make(chan model.Response, 1)
	errCh := make(chan error, 1)
	go func() {
		defer close(respCh)
		defer close(errCh)
		resp, err := m.fn(ctx, req)
		if err != nil {
			errCh <- err
			return
		}
		resp.Partial = false
		if resp.StopReason == "" {
			if len(resp.ToolCalls) > 0 {
				resp.StopReason = "tool_calls"
			} else {
				resp.StopReason = "stop"
			}
		}
		respCh <- resp
	}()
	return respCh, errCh
}

func (m *handlerModel) Info() model.Info {
	return model.Info{Name: "handler", Provider: "mock", SupportsTools: true}
}

func (m *handlerModel) Requests() []model.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Request, len(m.requests))
	copy(out, m.requests)
	return out
}

func lastUserText(req model.Request) string {
	var text string
	for _, msg := range req.Messages {
		if msg.Role == "user" {
			text = msg.Text
		}
	}
	return text
}

func supervisorConfig() core.Config {
	return testutil.NewConfigBuilder().
		Name("Supervisor").
		Role("supervisor").
		Spawner().
		Tools("*", "!native__delegate").
		Prompt("You are a helpful supervisor.").
		Build()
}

func registerCitingTool(rt *tool.Runtime, name, uri string) {
	rt.Register(tool.NewFunctionTool(name, "Produce a cited answer",
		map[string]any{"type": "object", "properties": map[string]any{}},
		func(toolCtx *tool.Context, _ map[string]any) (any, error) {
			toolCtx.AddCitation(core.CitationSource{
				Type:     "web",
				ToolName: name,
				URI:      uri,
				Title:    "Example document",
			})
			return "cited content", nil
		}))
}

func newEchoRuntime(names ...string) *tool.Runtime {
	rt := tool.NewRuntime()
	for _, name := range names {
		rt.Register(tool.NewFunctionTool(name, "Echo input",
			map[string]any{
				"type":       "object",
				"properties": map[string]any{"text": map[string]any{"type": "string"}},
			},
			func(_ *tool.Context, args map[string]any) (any, error) {
				return args["text"], nil
			}))
	}
	return rt
}

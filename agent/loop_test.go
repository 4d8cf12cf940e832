package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmatup/olliebot/channel"
	"github.com/tmatup/olliebot/model"
)

func TestProcessMessagePlainAnswer(t *testing.T) {
	m := model.NewMockModel("m").AddTextTurn("Paris is the capital of France.")
	ch := channel.NewMemoryChannel("general")

	a := New(supervisorConfig(), m, func(o *Options) { o.Channel = ch })

	res, err := a.ProcessMessage(context.Background(), "Capital of France?")
	require.NoError(t, err)
	assert.Equal(t, "Paris is the capital of France.", res.Text)
	assert.Equal(t, 1, res.Iterations)
	assert.False(t, res.CapHit)

	require.Len(t, ch.Messages(), 1)
	assert.Equal(t, "Paris is the capital of France.", ch.Messages()[0])
}

func TestProcessMessageStreamsToChannel(t *testing.T) {
	m := model.NewMockModel("m").AddTextTurn("hello")
	ch := channel.NewMemoryChannel("general")

	a := New(supervisorConfig(), m, func(o *Options) { o.Channel = ch })

	_, err := a.ProcessMessage(context.Background(), "hi")
	require.NoError(t, err)

	streams := ch.Streams()
	require.Len(t, streams, 1)
	assert.Equal(t, "hello", ch.StreamContent(streams[0]))
}

func TestProcessMessageToolRoundTrip(t *testing.T) {
	m := model.NewMockModel("m").
		AddToolCallTurn(model.ToolCall{ID: "c1", Name: "native__search", Arguments: `{"text":"go"}`}).
		AddTextTurn("Found it.")
	rt := newEchoRuntime("native__search")

	a := New(supervisorConfig(), m, func(o *Options) { o.Tools = rt })

	res, err := a.ProcessMessage(context.Background(), "search go")
	require.NoError(t, err)
	assert.Equal(t, "Found it.", res.Text)
	assert.Equal(t, 2, res.Iterations)

	reqs := m.Requests()
	require.Len(t, reqs, 2)
	msgs := reqs[1].Messages
	require.Len(t, msgs, 3) // user, assistant tool-call record, tool results
	assert.Equal(t, "assistant", msgs[1].Role)
	require.Len(t, msgs[1].ToolCalls, 1)
	assert.Equal(t, "tool", msgs[2].Role)
	require.Len(t, msgs[2].ToolResults, 1)
	assert.Equal(t, "go", msgs[2].ToolResults[0].Content)
	assert.False(t, msgs[2].ToolResults[0].IsError)
}

func TestProcessMessagePartialToolFailureContinues(t *testing.T) {
	m := model.NewMockModel("m").
		AddToolCallTurn(
			model.ToolCall{ID: "c1", Name: "native__search", Arguments: `{"text":"one"}`},
			model.ToolCall{ID: "c2", Name: "native__missing", Arguments: `{}`},
			model.ToolCall{ID: "c3", Name: "native__search", Arguments: `{"text":"three"}`},
		).
		AddTextTurn("Done despite the failure.")
	rt := newEchoRuntime("native__search")

	a := New(supervisorConfig(), m, func(o *Options) { o.Tools = rt })

	res, err := a.ProcessMessage(context.Background(), "go")
	require.NoError(t, err)
	assert.Equal(t, "Done despite the failure.", res.Text)

	reqs := m.Requests()
	require.Len(t, reqs, 2)
	results := reqs[1].Messages[2].ToolResults
	require.Len(t, results, 3)
	assert.False(t, results[0].IsError)
	assert.True(t, results[1].IsError)
	assert.False(t, results[2].IsError)
	assert.Equal(t, "one", results[0].Content)
	assert.Equal(t, "three", results[2].Content)
}

func TestProcessMessageIterationCap(t *testing.T) {
	m := model.NewMockModel("m")
	for i := 0; i < maxGenerateCalls+5; i++ {
		m.AddTurn(model.Response{
			Text:      "still working",
			ToolCalls: []model.ToolCall{{ID: "c", Name: "native__search", Arguments: `{"text":"x"}`}},
		})
	}
	rt := newEchoRuntime("native__search")

	a := New(supervisorConfig(), m, func(o *Options) { o.Tools = rt })

	res, err := a.ProcessMessage(context.Background(), "loop forever")
	require.NoError(t, err)
	assert.True(t, res.CapHit)
	assert.Equal(t, maxGenerateCalls, res.Iterations)
	assert.Equal(t, maxGenerateCalls, m.CallCount())
	assert.Equal(t, "still working", res.Text)
}

func TestProcessMessageModelFailureIsFatal(t *testing.T) {
	m := model.NewMockModel("m").AddError(errors.New("provider unavailable"))
	ch := channel.NewMemoryChannel("general")

	a := New(supervisorConfig(), m, func(o *Options) { o.Channel = ch })

	_, err := a.ProcessMessage(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider unavailable")

	require.Len(t, ch.Errors(), 1)
	assert.Empty(t, ch.Messages())
}

func TestProcessMessageCollectsCitations(t *testing.T) {
	m := model.NewMockModel("m").
		AddToolCallTurn(model.ToolCall{ID: "c1", Name: "native__cite", Arguments: `{}`}).
		AddTextTurn("Cited.")

	rt := newEchoRuntime()
	registerCitingTool(rt, "native__cite", "https://example.com/doc")

	a := New(supervisorConfig(), m, func(o *Options) { o.Tools = rt })

	res, err := a.ProcessMessage(context.Background(), "cite something")
	require.NoError(t, err)
	require.Len(t, res.Citations, 1)
	assert.Equal(t, "https://example.com/doc", res.Citations[0].URI)
	assert.Equal(t, "c1", res.Citations[0].ToolRequestID)
}

func TestChannelDeliveryRequiresCapability(t *testing.T) {
	m := model.NewMockModel("m").AddTextTurn("secret")
	ch := channel.NewMemoryChannel("ops")

	cfg := supervisorConfig()
	cfg.Capabilities.CanUseChannels = []string{"general"}
	a := New(cfg, m, func(o *Options) { o.Channel = ch })

	res, err := a.ProcessMessage(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "secret", res.Text)
	assert.Empty(t, ch.Messages())
	assert.Empty(t, ch.Streams())
}

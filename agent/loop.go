package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tmatup/olliebot/model"
	"github.com/tmatup/olliebot/tool"
)

// runLoop drives the generate/execute/fold-back cycle for one task. Within an
// iteration Generate, Execute and Fold-back are strictly sequential; tool
// failures fold back as error results and only model failure aborts the task.
func (a *Agent) runLoop(ctx context.Context, message, additionalContext string) (*TaskResult, error) {
	citations := NewCitationSet()
	conversation := []model.Message{{Role: "user", Text: message}}

	var (
		finalText  string
		iterations int
		done       bool
	)

	for i := 0; i < maxGenerateCalls; i++ {
		// Recomputed per call: the tool set can grow and capability filtering
		// must track it.
		defs := a.filteredDefinitions()
		prompt, err := a.composeSystemPrompt(ctx, additionalContext, defs)
		if err != nil {
			return nil, err
		}

		req := model.Request{
			System:   prompt,
			Messages: conversation,
			Tools:    a.modelTools(defs),
			Stream:   a.channelAllowed(),
		}

		iterations++
		resp, err := a.generate(ctx, req)
		if err != nil {
			return nil, err
		}
		if resp.Text != "" {
			finalText = resp.Text
		}

		if len(resp.ToolCalls) == 0 || resp.StopReason == "stop" {
			done = true
			break
		}

		toolResults, err := a.executeToolCalls(ctx, resp.ToolCalls, citations)
		if err != nil {
			return nil, err
		}

		conversation = append(conversation,
			model.Message{Role: "assistant", Text: resp.Text, ToolCalls: resp.ToolCalls},
			model.Message{Role: "tool", ToolResults: toolResults},
		)
	}

	if !done {
		a.logger.Warn("iteration cap reached", "max_generate_calls", maxGenerateCalls)
	}

	return &TaskResult{
		Text:       finalText,
		Citations:  citations.List(),
		Iterations: iterations,
		CapHit:     !done,
	}, nil
}

// modelTools converts the filtered definitions for the model, appending the
// delegate tool when the agent may spawn sub-agents.
func (a *Agent) modelTools(defs []tool.Definition) []model.ToolDefinition {
	out := make([]model.ToolDefinition, 0, len(defs)+1)
	for _, d := range defs {
		out = append(out, model.ToolDefinition{
			Name:        d.Name,
			Description: d.Description,
			Parameters:  d.Parameters,
		})
	}
	if a.cfg.Capabilities.CanSpawnAgents && a.registry != nil {
		d := delegateDefinition()
		out = append(out, model.ToolDefinition{
			Name:        d.Name,
			Description: d.Description,
			Parameters:  d.Parameters,
		})
	}
	return out
}

// generate performs one model call, streaming partial text to the channel
// when one is attached and returning the final response.
func (a *Agent) generate(ctx context.Context, req model.Request) (model.Response, error) {
	start := time.Now()

	var streamID string
	if req.Stream {
		id, err := a.channel.StartStream(ctx)
		if err != nil {
			a.logger.Debug("stream start failed, continuing unstreamed", "error", err.Error())
			req.Stream = false
		} else {
			streamID = id
		}
	}

	respCh, errCh := a.model.Generate(ctx, req)

	var final model.Response
	var genErr error
	for respCh != nil || errCh != nil {
		select {
		case resp, ok := <-respCh:
			if !ok {
				respCh = nil
				continue
			}
			if resp.Partial {
				if streamID != "" {
					_ = a.channel.SendStreamChunk(ctx, streamID, resp.Text)
				}
				continue
			}
			final = resp
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil && genErr == nil {
				genErr = err
			}
		}
	}

	if streamID != "" {
		_ = a.channel.EndStream(ctx, streamID)
	}

	tokens := 0
	if final.Usage != nil {
		tokens = final.Usage.TotalTokens
	}
	a.logger.LogModelCall(a.model.Info().Name, tokens, time.Since(start), genErr == nil, genErr)

	if genErr != nil {
		return model.Response{}, fmt.Errorf("model generate: %w", genErr)
	}
	return final, nil
}

// executeToolCalls runs one turn's tool calls: delegate calls are pulled out
// and handled concurrently with the ordinary batch, and every outcome is
// folded back into its originating call's result slot so the model sees one
// result per request, in order.
func (a *Agent) executeToolCalls(ctx context.Context, calls []model.ToolCall, citations *CitationSet) ([]model.ToolResult, error) {
	results := make([]model.ToolResult, len(calls))

	var execCalls []model.ToolCall
	var execSlots []int

	g, gctx := errgroup.WithContext(ctx)
	for i, tc := range calls {
		if isDelegateCall(tc.Name) {
			i, tc := i, tc
			g.Go(func() error {
				results[i] = a.handleDelegateCall(gctx, tc, citations)
				return nil
			})
			continue
		}
		execCalls = append(execCalls, tc)
		execSlots = append(execSlots, i)
	}

	if len(execCalls) > 0 {
		if a.tools == nil {
			for idx, tc := range execCalls {
				results[execSlots[idx]] = model.ToolResult{
					ID:      tc.ID,
					Name:    tc.Name,
					Content: "no tool executor attached",
					IsError: true,
				}
			}
		} else {
			reqs := make([]tool.Request, len(execCalls))
			for idx, tc := range execCalls {
				reqs[idx] = a.tools.NewRequest(tc.ID, tc.Name, parseToolArguments(tc.Arguments))
			}
			batch, err := a.tools.Execute(ctx, reqs)
			if err != nil {
				// Execute errors only on context cancellation; wait for any
				// in-flight delegations before bailing.
				_ = g.Wait()
				return nil, fmt.Errorf("execute tools: %w", err)
			}
			citations.Add(batch.Citations...)
			for idx, res := range batch.Results {
				a.logger.LogToolCall(res.Name, res.ID, res.Duration, res.Success, nil)
				results[execSlots[idx]] = toModelResult(res)
			}
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// parseToolArguments decodes a model tool call's JSON arguments. Malformed
// payloads become a nil input; schema validation downstream reports the miss.
func parseToolArguments(raw string) map[string]any {
	if raw == "" {
		return nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil
	}
	return args
}

func toModelResult(res tool.Result) model.ToolResult {
	if !res.Success {
		return model.ToolResult{ID: res.ID, Name: res.Name, Content: res.Error, IsError: true}
	}
	return model.ToolResult{ID: res.ID, Name: res.Name, Content: stringifyOutput(res.Output)}
}

func stringifyOutput(output any) string {
	switch v := output.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	}
}

package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/tmatup/olliebot/core"
	"github.com/tmatup/olliebot/model"
	"github.com/tmatup/olliebot/tool"
)

// DelegateToolName is the canonical name of the delegation pseudo-tool.
const DelegateToolName = "delegate"

// isDelegateCall recognizes delegation requests by name: the bare tool name
// or a category-qualified variant like "native__delegate".
func isDelegateCall(name string) bool {
	return name == DelegateToolName || strings.HasSuffix(name, "__"+DelegateToolName)
}

func delegateDefinition() tool.Definition {
	return tool.Definition{
		Name:        DelegateToolName,
		Description: "Delegate a sub-task to a specialist sub-agent and wait for its result.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"specialist_type": map[string]any{
					"type":        "string",
					"description": "Specialist to spawn: researcher, coder, writer, planner, or a custom type tag.",
				},
				"task": map[string]any{
					"type":        "string",
					"description": "What the specialist should accomplish.",
				},
				"custom_name": map[string]any{
					"type":        "string",
					"description": "Optional display name for the spawned specialist.",
				},
			},
			"required": []string{"specialist_type", "task"},
		},
	}
}

// delegationOutcome is what a settled delegation resolves to.
type delegationOutcome struct {
	Result    string
	Citations []core.CitationSource
	Err       error
}

// pendingDelegation is the settlement handle for one awaited delegation. The
// deadline timer and the task_result communication race to settle it; settle
// wins exactly once.
type pendingDelegation struct {
	subagentID     string
	specialistType string

	once    sync.Once
	outcome delegationOutcome
	done    chan struct{}
}

func newPendingDelegation(subagentID, specialistType string) *pendingDelegation {
	return &pendingDelegation{
		subagentID:     subagentID,
		specialistType: specialistType,
		done:           make(chan struct{}),
	}
}

// settle resolves the handle if still pending. Returns whether this call won.
func (p *pendingDelegation) settle(out delegationOutcome) bool {
	won := false
	p.once.Do(func() {
		p.outcome = out
		won = true
		close(p.done)
	})
	return won
}

// handleDelegateCall turns one delegate tool call into a spawned sub-agent
// and blocks until its result settles, folding the outcome into the
// originating call's result slot.
func (a *Agent) handleDelegateCall(ctx context.Context, tc model.ToolCall, citations *CitationSet) model.ToolResult {
	args := parseToolArguments(tc.Arguments)
	specialistType, _ := args["specialist_type"].(string)
	task, _ := args["task"].(string)
	customName, _ := args["custom_name"].(string)

	if specialistType == "" || task == "" {
		return model.ToolResult{
			ID: tc.ID, Name: tc.Name, IsError: true,
			Content: "delegate requires specialist_type and task",
		}
	}

	start := time.Now()
	out := a.delegate(ctx, specialistType, customName, task)
	a.logger.LogDelegation(specialistType, "", time.Since(start), out.Err == nil, out.Err)

	if out.Err != nil {
		return model.ToolResult{ID: tc.ID, Name: tc.Name, Content: out.Err.Error(), IsError: true}
	}
	citations.AbsorbSubagent(out.Citations)
	return model.ToolResult{ID: tc.ID, Name: tc.Name, Content: out.Result}
}

// delegate runs the full delegation lifecycle: policy check, spawn, register,
// await with deadline, teardown. Teardown runs on every exit path.
func (a *Agent) delegate(ctx context.Context, specialistType, customName, task string) delegationOutcome {
	if !a.cfg.Capabilities.CanSpawnAgents {
		return delegationOutcome{Err: fmt.Errorf("agent %s may not spawn sub-agents", a.ID())}
	}
	if a.registry == nil {
		return delegationOutcome{Err: fmt.Errorf("no registry attached, cannot delegate")}
	}
	if err := a.registry.CanDelegate(a.cfg.Identity.Role, specialistType, a.workflowID); err != nil {
		return delegationOutcome{Err: fmt.Errorf("delegation rejected: %w", err)}
	}

	// The parent must be addressable so the sub-agent's task_result can route
	// back. Registering twice across concurrent delegations is harmless.
	if _, ok := a.registry.GetAgent(a.ID()); !ok {
		_ = a.registry.RegisterAgent(a)
	}

	sub := a.spawnSubAgent(specialistType, customName, task)

	// Register before starting so task_result communications can address the
	// parent while the sub-agent is already running.
	if err := a.registry.RegisterAgent(sub); err != nil {
		return delegationOutcome{Err: fmt.Errorf("register sub-agent: %w", err)}
	}

	p := newPendingDelegation(sub.ID(), specialistType)
	a.pendingMu.Lock()
	a.pending[sub.ID()] = p
	a.subAgents[sub.ID()] = sub
	a.pendingMu.Unlock()

	defer a.teardownSubAgent(ctx, sub)

	timer := time.AfterFunc(a.delegationTimeout, func() {
		if p.settle(delegationOutcome{Err: fmt.Errorf("delegation to %s timed out after %s", specialistType, a.delegationTimeout)}) {
			// The sub-agent keeps running; only the await is abandoned.
			a.removePending(p.subagentID)
			a.logger.Warn("delegation timed out", "subagent_id", p.subagentID, "specialist_type", specialistType)
		}
	})
	defer timer.Stop()

	assignment := core.NewCommunication(core.CommTaskAssignment, a.ID(), sub.ID(), core.TaskAssignmentPayload{
		TaskID:     core.NewID(),
		Mission:    task,
		Message:    task,
		WorkflowID: a.workflowID,
	})
	if err := a.registry.RouteCommunication(ctx, assignment); err != nil {
		p.settle(delegationOutcome{Err: fmt.Errorf("start sub-agent task: %w", err)})
		a.removePending(p.subagentID)
	}

	select {
	case <-p.done:
	case <-ctx.Done():
		if p.settle(delegationOutcome{Err: ctx.Err()}) {
			a.removePending(p.subagentID)
		}
		<-p.done
	}
	return p.outcome
}

// spawnSubAgent builds a sub-agent from the specialist template (or a generic
// custom identity when no template matches). Sub-agents can never themselves
// delegate: the delegation tree is depth one.
func (a *Agent) spawnSubAgent(specialistType, customName, task string) *Agent {
	var identity core.Identity
	var patterns []string

	if tpl, ok := a.registry.Template(specialistType); ok {
		identity = tpl.Identity
		patterns = tpl.ToolAccessPatterns
	} else {
		identity = core.Identity{
			Name:        "Custom Specialist",
			Role:        specialistType,
			Description: "Custom specialist spawned without a registered template.",
		}
		patterns = append(a.cfg.Capabilities.Clone().CanAccessTools, "!"+DelegateToolName)
	}
	identity.ID = core.NewID()
	if customName != "" {
		identity.Name = customName
	}

	cfg := core.Config{
		Identity: identity,
		Capabilities: core.Capabilities{
			CanSpawnAgents:     false,
			CanAccessTools:     patterns,
			MaxConcurrentTasks: 1,
		},
		SystemPrompt: a.registry.PromptFor(specialistType),
		Mission:      task,
		ParentID:     a.ID(),
	}

	return New(cfg, a.model, func(o *Options) {
		o.Tools = a.tools
		o.Registry = a.registry
		o.Retrieval = a.retrieval
		o.WorkflowID = a.workflowID
		o.Logger = a.logger
		o.DelegationTimeout = a.delegationTimeout
	})
}

func (a *Agent) removePending(subagentID string) {
	a.pendingMu.Lock()
	delete(a.pending, subagentID)
	a.pendingMu.Unlock()
}

// teardownSubAgent shuts down and unregisters a sub-agent. Runs on every
// delegation exit path so no registered agent leaks.
func (a *Agent) teardownSubAgent(ctx context.Context, sub *Agent) {
	sub.Shutdown(ctx)
	a.registry.UnregisterAgent(sub.ID())
	a.pendingMu.Lock()
	delete(a.subAgents, sub.ID())
	delete(a.pending, sub.ID())
	a.pendingMu.Unlock()
}

package agent

import (
	"context"
	"fmt"

	"github.com/tmatup/olliebot/core"
)

// HandleCommunication dispatches an inter-agent communication by type. It is
// the registry's entry point into this agent; unknown or stale messages are
// logged and dropped, never surfaced as errors to the sender.
func (a *Agent) HandleCommunication(ctx context.Context, comm core.Communication) error {
	a.logger.LogCommunication(string(comm.Type), comm.FromAgent, comm.ToAgent)

	switch comm.Type {
	case core.CommTaskAssignment:
		payload, ok := comm.Payload.(core.TaskAssignmentPayload)
		if !ok {
			return fmt.Errorf("task_assignment with unexpected payload %T", comm.Payload)
		}
		// The delegated task outlives the sender's call; its lifetime is not
		// tied to the parent's context.
		go a.runDelegatedTask(context.WithoutCancel(ctx), payload)
		return nil

	case core.CommTaskResult:
		payload, ok := comm.Payload.(core.TaskResultPayload)
		if !ok {
			return fmt.Errorf("task_result with unexpected payload %T", comm.Payload)
		}
		a.settleDelegation(comm.FromAgent, payload)
		return nil

	case core.CommStatusUpdate:
		a.logger.Debug("status update received", "from_agent", comm.FromAgent)
		return nil

	case core.CommRequestHelp:
		a.logger.Info("help requested", "from_agent", comm.FromAgent)
		return nil

	case core.CommTerminate:
		a.Shutdown(ctx)
		return nil

	default:
		a.logger.Debug("unknown communication type dropped", "comm_type", string(comm.Type))
		return nil
	}
}

// runDelegatedTask executes an assigned task. The task result is reported to
// the parent inside ProcessMessage on both the success and failure paths.
func (a *Agent) runDelegatedTask(ctx context.Context, payload core.TaskAssignmentPayload) {
	_, err := a.ProcessMessage(ctx, payload.Message, func(o *ProcessOptions) {
		o.TaskID = payload.TaskID
	})
	if err != nil {
		a.logger.Warn("delegated task failed", "task_id", payload.TaskID, "error", err.Error())
	}
}

// settleDelegation resolves the pending delegation keyed by the sender. A
// result with no pending entry is a duplicate or arrived after the deadline;
// it is dropped with a log note.
func (a *Agent) settleDelegation(fromAgent string, payload core.TaskResultPayload) {
	a.pendingMu.Lock()
	p, ok := a.pending[fromAgent]
	if ok {
		delete(a.pending, fromAgent)
	}
	a.pendingMu.Unlock()

	if !ok {
		a.logger.Debug("task_result with no pending delegation dropped", "from_agent", fromAgent, "task_id", payload.TaskID)
		return
	}

	out := delegationOutcome{Result: payload.Result, Citations: payload.Citations}
	if payload.Status == core.TaskFailed {
		out = delegationOutcome{Err: fmt.Errorf("sub-agent task failed: %s", payload.Error)}
	}
	if !p.settle(out) {
		a.logger.Debug("task_result raced an already settled delegation", "from_agent", fromAgent)
	}
}

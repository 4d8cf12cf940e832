// Package agent implements the orchestration core: agents that converse with
// a language model through a bounded tool-call loop, delegate sub-tasks to
// specialist sub-agents, exchange typed communications through the shared
// registry, and aggregate citation provenance per task.
package agent

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/tmatup/olliebot/channel"
	"github.com/tmatup/olliebot/core"
	"github.com/tmatup/olliebot/logging"
	"github.com/tmatup/olliebot/memory"
	"github.com/tmatup/olliebot/model"
	"github.com/tmatup/olliebot/registry"
	"github.com/tmatup/olliebot/retrieval"
	"github.com/tmatup/olliebot/skill"
	"github.com/tmatup/olliebot/tool"
)

const (
	// maxGenerateCalls bounds the generate/execute round-trips per task.
	maxGenerateCalls = 10

	// defaultDelegationTimeout bounds how long a parent awaits one
	// delegation's task_result before settling it as failed.
	defaultDelegationTimeout = 5 * time.Minute
)

// Options configures an Agent beyond its core.Config.
type Options struct {
	Tools     tool.Executor
	Channel   channel.Channel
	Registry  *registry.Registry
	Memory    memory.Provider
	Skills    skill.Provider
	Retrieval retrieval.Provider

	Logger     *logging.OllieLogger
	WorkflowID string

	// DelegationTimeout overrides the 5-minute await deadline. Zero keeps
	// the default.
	DelegationTimeout time.Duration
}

// Agent is one identity + capability + running state that converses with a
// model, calls tools, and may delegate to specialist sub-agents. All state
// mutations go through the agent's own mutexes; external readers only ever
// see snapshots.
type Agent struct {
	cfg core.Config

	stateMu sync.Mutex
	state   core.State

	model     model.Model
	tools     tool.Executor
	channel   channel.Channel
	registry  *registry.Registry
	memory    memory.Provider
	skills    skill.Provider
	retrieval retrieval.Provider

	workflowID        string
	delegationTimeout time.Duration

	pendingMu sync.Mutex
	pending   map[string]*pendingDelegation // keyed by sub-agent id
	subAgents map[string]*Agent             // live sub-agents owned by this parent

	retrievalCache retrievalCache

	shutdownOnce sync.Once
	closed       chan struct{}

	logger *logging.OllieLogger
}

// New constructs an Agent. The identity id is generated when absent so every
// agent is addressable from birth.
func New(cfg core.Config, m model.Model, optFns ...func(o *Options)) *Agent {
	opts := Options{DelegationTimeout: defaultDelegationTimeout}
	for _, fn := range optFns {
		fn(&opts)
	}

	if cfg.Identity.ID == "" {
		cfg.Identity.ID = core.NewID()
	}
	if opts.DelegationTimeout <= 0 {
		opts.DelegationTimeout = defaultDelegationTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewLogger(&logging.LoggerConfig{
			Level:  logging.LogLevelError,
			Output: io.Discard,
		})
	}

	return &Agent{
		cfg:               cfg,
		state:             core.NewState(),
		model:             m,
		tools:             opts.Tools,
		channel:           opts.Channel,
		registry:          opts.Registry,
		memory:            opts.Memory,
		skills:            opts.Skills,
		retrieval:         opts.Retrieval,
		workflowID:        opts.WorkflowID,
		delegationTimeout: opts.DelegationTimeout,
		pending:           make(map[string]*pendingDelegation),
		subAgents:         make(map[string]*Agent),
		closed:            make(chan struct{}),
		logger:            opts.Logger.WithAgent(cfg.Identity.ID, cfg.Identity.Name).WithWorkflow(opts.WorkflowID),
	}
}

// ID returns the agent's unique identifier.
func (a *Agent) ID() string { return a.cfg.Identity.ID }

// Identity returns a copy of the agent's identity.
func (a *Agent) Identity() core.Identity { return a.cfg.Identity }

// Capabilities returns a deep copy of the agent's capability set.
func (a *Agent) Capabilities() core.Capabilities { return a.cfg.Capabilities.Clone() }

// State returns a deep-copy snapshot of the agent's runtime state.
func (a *Agent) State() core.State {
	a.stateMu.Lock()
	defer a.stateMu.Unlock()
	return a.state.Clone()
}

// UpdateState merges a partial update into the agent's state, stamping
// LastActivity.
func (a *Agent) UpdateState(u core.StateUpdate) {
	a.stateMu.Lock()
	defer a.stateMu.Unlock()
	a.state.Apply(u)
}

// filteredDefinitions recomputes the capability-filtered tool list. Never
// cached: the executor's tool set can grow at runtime.
func (a *Agent) filteredDefinitions() []tool.Definition {
	if a.tools == nil {
		return []tool.Definition{}
	}
	return tool.FilterDefinitions(a.tools.Definitions(), a.cfg.Capabilities.CanAccessTools)
}

// TaskResult is the outcome of one top-level ProcessMessage task.
type TaskResult struct {
	Text       string
	Citations  []core.CitationSource
	Iterations int
	// CapHit records that the round-trip cap forced termination. Diagnostic,
	// not an error.
	CapHit bool
}

// ProcessOptions tunes a single ProcessMessage call.
type ProcessOptions struct {
	// AdditionalContext is spliced into the system prompt for this task.
	AdditionalContext string
	// TaskID is echoed in the task_result reported to the parent. Generated
	// when absent.
	TaskID string
}

// ProcessMessage runs one task through the tool-call iteration loop. Model
// failure is fatal to the task: it is reported to the channel as a
// user-visible error and to the parent (if any) as a failed task_result.
func (a *Agent) ProcessMessage(ctx context.Context, message string, optFns ...func(o *ProcessOptions)) (*TaskResult, error) {
	opts := ProcessOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.TaskID == "" {
		opts.TaskID = core.NewID()
	}

	working := core.StatusWorking
	a.UpdateState(core.StateUpdate{Status: &working, CurrentTask: &opts.TaskID})

	result, err := a.runLoop(ctx, message, opts.AdditionalContext)
	if err != nil {
		if a.channelAllowed() {
			_ = a.channel.SendError(ctx, "The task could not be completed.", err.Error())
		}
		a.reportToParent(ctx, opts.TaskID, core.TaskResultPayload{
			TaskID: opts.TaskID,
			Status: core.TaskFailed,
			Error:  err.Error(),
		})
		idle := core.StatusIdle
		a.UpdateState(core.StateUpdate{Status: &idle})
		return nil, fmt.Errorf("process message: %w", err)
	}

	if a.channelAllowed() {
		_ = a.channel.Send(ctx, result.Text, func(o *channel.SendOptions) {
			o.Citations = result.Citations
		})
	}
	a.reportToParent(ctx, opts.TaskID, core.TaskResultPayload{
		TaskID:    opts.TaskID,
		Status:    core.TaskCompleted,
		Result:    result.Text,
		Citations: result.Citations,
	})

	done := core.StatusIdle
	if a.cfg.ParentID != "" {
		done = core.StatusCompleted
	}
	a.UpdateState(core.StateUpdate{Status: &done})
	return result, nil
}

func (a *Agent) channelAllowed() bool {
	return a.channel != nil && a.cfg.Capabilities.CanUseChannel(a.channel.ID())
}

// reportToParent routes a task_result back to the delegating parent. Routing
// failure (parent already gone) is logged and dropped.
func (a *Agent) reportToParent(ctx context.Context, taskID string, payload core.TaskResultPayload) {
	if a.cfg.ParentID == "" || a.registry == nil {
		return
	}
	comm := core.NewCommunication(core.CommTaskResult, a.ID(), a.cfg.ParentID, payload)
	if err := a.registry.RouteCommunication(ctx, comm); err != nil {
		a.logger.Debug("task result undeliverable", "task_id", taskID, "parent_id", a.cfg.ParentID, "error", err.Error())
	}
}

// Shutdown stops the agent: pending delegations settle as failed and every
// live sub-agent is torn down and unregistered. Idempotent.
func (a *Agent) Shutdown(ctx context.Context) {
	a.shutdownOnce.Do(func() {
		close(a.closed)

		a.pendingMu.Lock()
		pendings := make([]*pendingDelegation, 0, len(a.pending))
		for _, p := range a.pending {
			pendings = append(pendings, p)
		}
		subs := make([]*Agent, 0, len(a.subAgents))
		for _, s := range a.subAgents {
			subs = append(subs, s)
		}
		a.pending = make(map[string]*pendingDelegation)
		a.subAgents = make(map[string]*Agent)
		a.pendingMu.Unlock()

		for _, p := range pendings {
			p.settle(delegationOutcome{Err: fmt.Errorf("agent %s shut down", a.ID())})
		}
		for _, s := range subs {
			s.Shutdown(ctx)
			if a.registry != nil {
				a.registry.UnregisterAgent(s.ID())
			}
		}
		a.logger.Info("agent shut down")
	})
}

// Package olliebot provides a high-level façade over the agent orchestration
// core (agents, tools, delegation, inter-agent communication and citation
// aggregation). Most applications interact with this package by:
//  1. Creating an OllieBot via New() (optionally overriding default in-memory
//     collaborators)
//  2. Registering tools on its runtime
//  3. Asking the supervisor agent questions via Ask()
//
// The façade wires a supervisor agent that can call tools and delegate
// sub-tasks to the built-in specialist templates. All defaults are safe for
// local development and testing; production deployments typically supply a
// real model adapter and a structured logger.
package olliebot

import (
	"context"
	"time"

	"github.com/tmatup/olliebot/agent"
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

// Options configures the OllieBot instance.
type Options struct {
	// Supervisor overrides the default supervisor config (identity,
	// capabilities, base system prompt).
	Supervisor core.Config

	// Channel receives the supervisor's streamed and final output. Defaults
	// to none; Ask still returns the result directly.
	Channel channel.Channel

	// Collaborators (default to in-memory implementations if not provided).
	Tools     tool.Executor
	Registry  *registry.Registry
	Memory    memory.Provider
	Skills    skill.Provider
	Retrieval retrieval.Provider

	// Logger defaults to a JSON slog logger at info level.
	Logger *logging.OllieLogger

	// WorkflowID groups a run's agents and delegations for logging and
	// delegation policy checks. Generated when empty.
	WorkflowID string

	// DelegationTimeout overrides the 5-minute delegation await deadline.
	DelegationTimeout time.Duration
}

// OllieBot is the high-level façade aggregating the supervisor agent and its
// collaborators.
type OllieBot struct {
	opts       Options
	supervisor *agent.Agent
	runtime    *tool.Runtime
	registry   *registry.Registry
}

func defaultSupervisorConfig() core.Config {
	return core.Config{
		Identity: core.Identity{
			ID:          core.NewID(),
			Name:        "Ollie",
			Emoji:       "🤖",
			Role:        "supervisor",
			Description: "General-purpose supervisor that answers questions, uses tools, and delegates to specialists.",
		},
		Capabilities: core.Capabilities{
			CanSpawnAgents:     true,
			CanAccessTools:     []string{"*", "!native__delegate"},
			CanUseChannels:     []string{"*"},
			MaxConcurrentTasks: 4,
		},
		SystemPrompt: "You are Ollie, a helpful assistant. Use the available tools when they " +
			"help, delegate focused sub-tasks to specialists when that is faster, and " +
			"answer directly when you already know.",
	}
}

// New creates an OllieBot around the given model. Any unset collaborator is
// initialized with an in-memory implementation.
func New(m model.Model, optFns ...func(o *Options)) *OllieBot {
	opts := Options{
		Supervisor: defaultSupervisorConfig(),
		WorkflowID: core.NewID(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NewLogger(nil)
	}
	if opts.Registry == nil {
		opts.Registry = registry.New(func(o *registry.Options) {
			o.Logger = logging.NewDefaultSlogLogger()
		})
	}

	var runtime *tool.Runtime
	if opts.Tools == nil {
		runtime = tool.NewRuntime()
		opts.Tools = runtime
	}
	if opts.Memory == nil {
		opts.Memory = memory.NewInMemoryStore()
	}
	if opts.Skills == nil {
		opts.Skills = skill.NewStaticCatalog()
	}
	if opts.Retrieval == nil {
		opts.Retrieval = retrieval.NewStaticProvider()
	}

	supervisor := agent.New(opts.Supervisor, m, func(o *agent.Options) {
		o.Tools = opts.Tools
		o.Channel = opts.Channel
		o.Registry = opts.Registry
		o.Memory = opts.Memory
		o.Skills = opts.Skills
		o.Retrieval = opts.Retrieval
		o.Logger = opts.Logger
		o.WorkflowID = opts.WorkflowID
		o.DelegationTimeout = opts.DelegationTimeout
	})

	return &OllieBot{
		opts:       opts,
		supervisor: supervisor,
		runtime:    runtime,
		registry:   opts.Registry,
	}
}

// Supervisor exposes the supervisor agent for state inspection.
func (b *OllieBot) Supervisor() *agent.Agent { return b.supervisor }

// Registry exposes the shared agent registry.
func (b *OllieBot) Registry() *registry.Registry { return b.registry }

// RegisterTool adds a tool to the default runtime. No-op when a custom tool
// executor was supplied.
func (b *OllieBot) RegisterTool(t tool.Tool) {
	if b.runtime != nil {
		b.runtime.Register(t)
	}
}

// Ask runs one supervisor task for the message and returns its result.
func (b *OllieBot) Ask(ctx context.Context, message string) (*agent.TaskResult, error) {
	return b.supervisor.ProcessMessage(ctx, message)
}

// AskAsync starts the task in the background. The returned channels each
// deliver at most one value before closing; streamed output still goes to the
// configured channel collaborator as it arrives.
func (b *OllieBot) AskAsync(ctx context.Context, message string) (<-chan *agent.TaskResult, <-chan error) {
	resCh := make(chan *agent.TaskResult, 1)
	errCh := make(chan error, 1)
	go func() {
		defer close(resCh)
		defer close(errCh)
		res, err := b.supervisor.ProcessMessage(ctx, message)
		if err != nil {
			errCh <- err
			return
		}
		resCh <- res
	}()
	return resCh, errCh
}

// Shutdown tears down the supervisor and its live sub-agents.
func (b *OllieBot) Shutdown(ctx context.Context) {
	b.supervisor.Shutdown(ctx)
}

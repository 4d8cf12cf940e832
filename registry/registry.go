// Package registry provides the shared agent registry: the addressing
// directory for inter-agent communication, the specialist template store used
// to seed sub-agents, and the delegation policy consulted before a spawn.
//
// The registry is shared mutable state touched concurrently by spawn/register
// and teardown/unregister paths of many in-flight delegations; every
// operation is safe under concurrent access. It is an injected collaborator,
// never process-wide singleton state, so independent orchestration runs do
// not interfere.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/tmatup/olliebot/core"
	"github.com/tmatup/olliebot/logging"
)

// ErrAgentNotFound is returned when routing or lookup misses.
var ErrAgentNotFound = errors.New("agent not found")

// ErrDuplicateAgent is returned when registering an id twice.
var ErrDuplicateAgent = errors.New("agent id already registered")

// Member is the registry's view of an agent: an addressable receiver of
// typed communications. The registry holds no direct cross-agent references
// beyond this interface.
type Member interface {
	ID() string
	HandleCommunication(ctx context.Context, comm core.Communication) error
}

// PolicyFunc decides whether an agent of fromRole may delegate to the named
// specialist type within the given workflow. A nil error permits.
type PolicyFunc func(fromRole, specialistType, workflowID string) error

// Options configures a Registry.
type Options struct {
	Logger logging.Logger
	// Policy overrides the default per-template delegation policy.
	Policy PolicyFunc
}

// Registry is the concurrent agent directory plus specialist template and
// delegation policy store.
type Registry struct {
	mu        sync.RWMutex
	agents    map[string]Member
	templates map[string]core.SpecialistTemplate
	prompts   map[string]string
	configs   map[string]DelegationConfig

	policy PolicyFunc
	logger logging.Logger
}

// New constructs a Registry pre-populated with the built-in specialist
// templates (researcher, coder, writer, planner).
func New(optFns ...func(o *Options)) *Registry {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	r := &Registry{
		agents:    make(map[string]Member),
		templates: make(map[string]core.SpecialistTemplate),
		prompts:   make(map[string]string),
		configs:   make(map[string]DelegationConfig),
		policy:    opts.Policy,
		logger:    opts.Logger,
	}
	registerBuiltinTemplates(r)
	return r
}

// RegisterAgent adds a member to the directory. Registering an already
// present id is an error: live sub-agent ids are unique within a run.
func (r *Registry) RegisterAgent(m Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.agents[m.ID()]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateAgent, m.ID())
	}
	r.agents[m.ID()] = m
	r.logger.Debug("registry.agent.registered", "agent_id", m.ID())
	return nil
}

// UnregisterAgent removes a member. Removing an absent id is a no-op so
// teardown paths can run unconditionally.
func (r *Registry) UnregisterAgent(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.agents, id)
	r.logger.Debug("registry.agent.unregistered", "agent_id", id)
}

// GetAgent returns the member registered under id.
func (r *Registry) GetAgent(id string) (Member, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.agents[id]
	return m, ok
}

// AgentIDs returns the ids of all registered members.
func (r *Registry) AgentIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.agents))
	for id := range r.agents {
		ids = append(ids, id)
	}
	return ids
}

// RouteCommunication dispatches a communication to the agent addressed by
// comm.ToAgent. Routing to an unknown agent returns ErrAgentNotFound; the
// caller decides whether that is fatal (it is not for late task results).
func (r *Registry) RouteCommunication(ctx context.Context, comm core.Communication) error {
	r.mu.RLock()
	target, ok := r.agents[comm.ToAgent]
	r.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrAgentNotFound, comm.ToAgent)
	}

	r.logger.Debug(
		"registry.comm.routed",
		"comm_type", string(comm.Type),
		"from_agent", comm.FromAgent,
		"to_agent", comm.ToAgent,
	)

	return target.HandleCommunication(ctx, comm)
}

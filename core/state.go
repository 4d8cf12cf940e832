package core

import "time"

// Status enumerates the lifecycle states of an agent.
type Status string

const (
	// StatusIdle indicates the agent is registered but not processing a task.
	StatusIdle Status = "idle"
	// StatusWorking indicates the agent is inside a task.
	StatusWorking Status = "working"
	// StatusCompleted indicates the agent finished its (delegated) task.
	StatusCompleted Status = "completed"
)

// State is the mutable runtime state of an agent. It is mutated only by the
// owning agent; external readers must receive Clone() snapshots so a caller
// can never observe a half-updated state or reach into agent internals.
type State struct {
	Status       Status         `json:"status"`
	LastActivity time.Time      `json:"last_activity"`
	CurrentTask  string         `json:"current_task,omitempty"`
	Context      map[string]any `json:"context"`
}

// NewState returns an idle state stamped with the current time.
func NewState() State {
	return State{
		Status:       StatusIdle,
		LastActivity: time.Now().UTC(),
		Context:      map[string]any{},
	}
}

// Clone returns a deep copy of the state (context map included).
func (s State) Clone() State {
	out := s
	out.Context = make(map[string]any, len(s.Context))
	for k, v := range s.Context {
		out.Context[k] = v
	}
	return out
}

// StateUpdate is a partial state mutation. Nil fields are left untouched;
// Context entries are merged key by key.
type StateUpdate struct {
	Status      *Status
	CurrentTask *string
	Context     map[string]any
}

// Apply merges the update into the state and always stamps LastActivity.
func (s *State) Apply(u StateUpdate) {
	if u.Status != nil {
		s.Status = *u.Status
	}
	if u.CurrentTask != nil {
		s.CurrentTask = *u.CurrentTask
	}
	if len(u.Context) > 0 {
		if s.Context == nil {
			s.Context = map[string]any{}
		}
		for k, v := range u.Context {
			s.Context[k] = v
		}
	}
	s.LastActivity = time.Now().UTC()
}

package core

import "time"

// CommunicationType enumerates the typed messages exchanged between agents.
type CommunicationType string

const (
	// CommTaskAssignment hands a delegated task to a sub-agent.
	CommTaskAssignment CommunicationType = "task_assignment"
	// CommTaskResult carries a completed (or failed) task outcome back to the
	// delegating parent.
	CommTaskResult CommunicationType = "task_result"
	// CommStatusUpdate is an observational progress note.
	CommStatusUpdate CommunicationType = "status_update"
	// CommRequestHelp signals an agent asking for assistance.
	CommRequestHelp CommunicationType = "request_help"
	// CommTerminate requests immediate shutdown of the receiving agent.
	CommTerminate CommunicationType = "terminate"
)

// Communication is a typed, addressed message passed between agents
// independent of any human-facing channel. Created by the sender, routed by
// agent id, never mutated after creation.
type Communication struct {
	Type      CommunicationType `json:"type"`
	FromAgent string            `json:"from_agent"`
	ToAgent   string            `json:"to_agent"`
	Payload   any               `json:"payload,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// NewCommunication stamps a communication with the current UTC time.
func NewCommunication(t CommunicationType, from, to string, payload any) Communication {
	return Communication{
		Type:      t,
		FromAgent: from,
		ToAgent:   to,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// TaskAssignmentPayload is carried by task_assignment communications.
type TaskAssignmentPayload struct {
	TaskID     string `json:"task_id"`
	Mission    string `json:"mission"`
	Message    string `json:"message"`
	WorkflowID string `json:"workflow_id,omitempty"`
}

// TaskStatus reports the terminal outcome of a delegated task.
type TaskStatus string

const (
	// TaskCompleted marks a successful task result.
	TaskCompleted TaskStatus = "completed"
	// TaskFailed marks a failed task result.
	TaskFailed TaskStatus = "failed"
)

// TaskResultPayload is carried by task_result communications. Citations are
// the sub-agent's own provenance records; the receiving parent absorbs them
// into its aggregate (see agent.CitationSet.AbsorbSubagent).
type TaskResultPayload struct {
	TaskID    string           `json:"task_id"`
	Status    TaskStatus       `json:"status"`
	Result    string           `json:"result,omitempty"`
	Error     string           `json:"error,omitempty"`
	Citations []CitationSource `json:"citations,omitempty"`
}

// StatusUpdatePayload is carried by status_update communications.
type StatusUpdatePayload struct {
	Status Status `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// HelpRequestPayload is carried by request_help communications.
type HelpRequestPayload struct {
	Question string `json:"question"`
}

package testutil

import (
	"github.com/tmatup/olliebot/core"
)

// CommBuilder provides a fluent helper for constructing inter-agent
// communications in tests. Example:
//
//	comm := NewCommBuilder().From("parent").To("sub").Assignment("t1", "do it").Build()
type CommBuilder struct {
	commType core.CommunicationType
	from     string
	to       string
	payload  any
}

// NewCommBuilder creates a builder defaulting to a status_update.
func NewCommBuilder() *CommBuilder {
	return &CommBuilder{commType: core.CommStatusUpdate}
}

// From sets the sender id (chainable).
func (b *CommBuilder) From(id string) *CommBuilder { b.from = id; return b }

// To sets the receiver id (chainable).
func (b *CommBuilder) To(id string) *CommBuilder { b.to = id; return b }

// Assignment makes this a task_assignment with the given task id and mission
// text, used both as mission and message (chainable).
func (b *CommBuilder) Assignment(taskID, mission string) *CommBuilder {
	b.commType = core.CommTaskAssignment
	b.payload = core.TaskAssignmentPayload{TaskID: taskID, Mission: mission, Message: mission}
	return b
}

// Completed makes this a successful task_result (chainable).
func (b *CommBuilder) Completed(taskID, result string, citations ...core.CitationSource) *CommBuilder {
	b.commType = core.CommTaskResult
	b.payload = core.TaskResultPayload{
		TaskID:    taskID,
		Status:    core.TaskCompleted,
		Result:    result,
		Citations: citations,
	}
	return b
}

// Failed makes this a failed task_result (chainable).
func (b *CommBuilder) Failed(taskID, errText string) *CommBuilder {
	b.commType = core.CommTaskResult
	b.payload = core.TaskResultPayload{TaskID: taskID, Status: core.TaskFailed, Error: errText}
	return b
}

// Terminate makes this a terminate communication (chainable).
func (b *CommBuilder) Terminate() *CommBuilder {
	b.commType = core.CommTerminate
	b.payload = nil
	return b
}

// Payload overrides the payload directly (chainable).
func (b *CommBuilder) Payload(p any) *CommBuilder { b.payload = p; return b }

// Build stamps and returns the communication.
func (b *CommBuilder) Build() core.Communication {
	return core.NewCommunication(b.commType, b.from, b.to, b.payload)
}

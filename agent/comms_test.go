package agent

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmatup/olliebot/core"
	"github.com/tmatup/olliebot/internal/testutil"
	"github.com/tmatup/olliebot/model"
	"github.com/tmatup/olliebot/registry"
)

// collectingMember records communications routed to it, signalling arrival.
type collectingMember struct {
	id       string
	received chan core.Communication
}

func newCollectingMember(id string) *collectingMember {
	return &collectingMember{id: id, received: make(chan core.Communication, 8)}
}

func (c *collectingMember) ID() string { return c.id }

func (c *collectingMember) HandleCommunication(_ context.Context, comm core.Communication) error {
	c.received <- comm
	return nil
}

func TestTaskAssignmentRunsTaskAndReportsResult(t *testing.T) {
	reg := registry.New()
	parent := newCollectingMember("parent-1")
	require.NoError(t, reg.RegisterAgent(parent))

	cfg := supervisorConfig()
	cfg.ParentID = "parent-1"
	sub := New(cfg, model.NewMockModel("m").AddTextTurn("task done"), func(o *Options) {
		o.Registry = reg
	})
	require.NoError(t, reg.RegisterAgent(sub))

	assignment := core.NewCommunication(core.CommTaskAssignment, "parent-1", sub.ID(), core.TaskAssignmentPayload{
		TaskID:  "task-42",
		Mission: "do the thing",
		Message: "do the thing",
	})
	require.NoError(t, reg.RouteCommunication(context.Background(), assignment))

	select {
	case comm := <-parent.received:
		assert.Equal(t, core.CommTaskResult, comm.Type)
		payload, ok := comm.Payload.(core.TaskResultPayload)
		require.True(t, ok)
		assert.Equal(t, "task-42", payload.TaskID)
		assert.Equal(t, core.TaskCompleted, payload.Status)
		assert.Equal(t, "task done", payload.Result)
	case <-time.After(2 * time.Second):
		t.Fatal("no task_result received")
	}

	assert.Eventually(t, func() bool {
		return sub.State().Status == core.StatusCompleted
	}, 2*time.Second, 10*time.Millisecond)
}

func TestTaskAssignmentFailureReportsFailedResult(t *testing.T) {
	reg := registry.New()
	parent := newCollectingMember("parent-1")
	require.NoError(t, reg.RegisterAgent(parent))

	cfg := supervisorConfig()
	cfg.ParentID = "parent-1"
	sub := New(cfg, model.NewMockModel("m").AddError(assert.AnError), func(o *Options) {
		o.Registry = reg
	})
	require.NoError(t, reg.RegisterAgent(sub))

	assignment := core.NewCommunication(core.CommTaskAssignment, "parent-1", sub.ID(), core.TaskAssignmentPayload{
		TaskID:  "task-43",
		Message: "doomed",
	})
	require.NoError(t, reg.RouteCommunication(context.Background(), assignment))

	select {
	case comm := <-parent.received:
		payload, ok := comm.Payload.(core.TaskResultPayload)
		require.True(t, ok)
		assert.Equal(t, core.TaskFailed, payload.Status)
		assert.NotEmpty(t, payload.Error)
	case <-time.After(2 * time.Second):
		t.Fatal("no task_result received")
	}
}

func TestTaskResultSettlesPendingDelegation(t *testing.T) {
	a := New(supervisorConfig(), model.NewMockModel("m"))

	p := newPendingDelegation("sub-1", "researcher")
	a.pendingMu.Lock()
	a.pending["sub-1"] = p
	a.pendingMu.Unlock()

	comm := testutil.NewCommBuilder().From("sub-1").To(a.ID()).Completed("t1", "the answer").Build()
	require.NoError(t, a.HandleCommunication(context.Background(), comm))

	select {
	case <-p.done:
	default:
		t.Fatal("pending delegation not settled")
	}
	assert.NoError(t, p.outcome.Err)
	assert.Equal(t, "the answer", p.outcome.Result)

	a.pendingMu.Lock()
	assert.Empty(t, a.pending)
	a.pendingMu.Unlock()
}

func TestDuplicateTaskResultDropped(t *testing.T) {
	a := New(supervisorConfig(), model.NewMockModel("m"))

	comm := testutil.NewCommBuilder().From("unknown-sub").To(a.ID()).Completed("t1", "late").Build()

	// No pending entry: dropped with a log note, never an error.
	assert.NoError(t, a.HandleCommunication(context.Background(), comm))
}

func TestFailedTaskResultSettlesAsError(t *testing.T) {
	a := New(supervisorConfig(), model.NewMockModel("m"))

	p := newPendingDelegation("sub-1", "coder")
	a.pendingMu.Lock()
	a.pending["sub-1"] = p
	a.pendingMu.Unlock()

	comm := testutil.NewCommBuilder().From("sub-1").To(a.ID()).Failed("t1", "compilation failed").Build()
	require.NoError(t, a.HandleCommunication(context.Background(), comm))

	require.Error(t, p.outcome.Err)
	assert.Contains(t, p.outcome.Err.Error(), "compilation failed")
}

func TestStatusUpdateAndHelpRequestAreObservational(t *testing.T) {
	a := New(supervisorConfig(), model.NewMockModel("m"))
	before := a.State()

	status := core.NewCommunication(core.CommStatusUpdate, "other", a.ID(), core.StatusUpdatePayload{
		Status: core.StatusWorking,
		Detail: "halfway",
	})
	help := core.NewCommunication(core.CommRequestHelp, "other", a.ID(), core.HelpRequestPayload{
		Question: "stuck on parsing",
	})

	require.NoError(t, a.HandleCommunication(context.Background(), status))
	require.NoError(t, a.HandleCommunication(context.Background(), help))

	assert.Equal(t, before.Status, a.State().Status)
}

func TestTerminateShutsDown(t *testing.T) {
	a := New(supervisorConfig(), model.NewMockModel("m"))

	comm := testutil.NewCommBuilder().From("admin").To(a.ID()).Terminate().Build()
	require.NoError(t, a.HandleCommunication(context.Background(), comm))

	select {
	case <-a.closed:
	default:
		t.Fatal("terminate did not shut the agent down")
	}
}

func TestMalformedPayloadIsAnError(t *testing.T) {
	a := New(supervisorConfig(), model.NewMockModel("m"))

	comm := core.NewCommunication(core.CommTaskAssignment, "x", a.ID(), "not a payload struct")
	assert.Error(t, a.HandleCommunication(context.Background(), comm))
}

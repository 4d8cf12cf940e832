package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmatup/olliebot/core"
)

type stubMember struct {
	id       string
	received []core.Communication
}

func (s *stubMember) ID() string { return s.id }

func (s *stubMember) HandleCommunication(_ context.Context, comm core.Communication) error {
	s.received = append(s.received, comm)
	return nil
}

func TestRegisterAndLookup(t *testing.T) {
	r := New()
	m := &stubMember{id: "agent-1"}

	require.NoError(t, r.RegisterAgent(m))

	got, ok := r.GetAgent("agent-1")
	require.True(t, ok)
	assert.Equal(t, m, got)
	assert.Contains(t, r.AgentIDs(), "agent-1")
}

func TestRegisterDuplicateFails(t *testing.T) {
	r := New()
	require.NoError(t, r.RegisterAgent(&stubMember{id: "agent-1"}))

	err := r.RegisterAgent(&stubMember{id: "agent-1"})
	assert.ErrorIs(t, err, ErrDuplicateAgent)
}

func TestUnregisterIsIdempotent(t *testing.T) {
	r := New()
	require.NoError(t, r.RegisterAgent(&stubMember{id: "agent-1"}))

	r.UnregisterAgent("agent-1")
	r.UnregisterAgent("agent-1")

	_, ok := r.GetAgent("agent-1")
	assert.False(t, ok)
}

func TestRouteCommunication(t *testing.T) {
	r := New()
	target := &stubMember{id: "agent-2"}
	require.NoError(t, r.RegisterAgent(target))

	comm := core.NewCommunication(core.CommStatusUpdate, "agent-1", "agent-2", nil)
	require.NoError(t, r.RouteCommunication(context.Background(), comm))

	require.Len(t, target.received, 1)
	assert.Equal(t, core.CommStatusUpdate, target.received[0].Type)
}

func TestRouteToUnknownAgent(t *testing.T) {
	r := New()

	comm := core.NewCommunication(core.CommTaskResult, "a", "missing", nil)
	err := r.RouteCommunication(context.Background(), comm)

	assert.ErrorIs(t, err, ErrAgentNotFound)
}

func TestBuiltinTemplates(t *testing.T) {
	r := New()

	for _, typ := range []string{"researcher", "coder", "writer", "planner"} {
		tpl, ok := r.Template(typ)
		require.True(t, ok, typ)
		assert.Equal(t, typ, tpl.Type)
		assert.NotEmpty(t, tpl.Identity.Name)
		assert.NotEmpty(t, r.PromptFor(typ))
		assert.Contains(t, tpl.ToolAccessPatterns, "!native__delegate")
	}

	_, ok := r.Template("astrologer")
	assert.False(t, ok)
}

func TestTemplateReturnsCopy(t *testing.T) {
	r := New()

	tpl, ok := r.Template("researcher")
	require.True(t, ok)
	tpl.ToolAccessPatterns[0] = "mutated"

	again, _ := r.Template("researcher")
	assert.NotEqual(t, "mutated", again.ToolAccessPatterns[0])
}

func TestCanDelegate(t *testing.T) {
	tests := []struct {
		name           string
		fromRole       string
		specialistType string
		cfg            *DelegationConfig
		wantErr        bool
	}{
		{
			name:           "default allows any role",
			fromRole:       "supervisor",
			specialistType: "researcher",
		},
		{
			name:           "unknown type falls through to default",
			fromRole:       "supervisor",
			specialistType: "astrologer",
		},
		{
			name:           "disabled type rejected",
			fromRole:       "supervisor",
			specialistType: "coder",
			cfg:            &DelegationConfig{Enabled: false},
			wantErr:        true,
		},
		{
			name:           "role allowlist enforced",
			fromRole:       "writer",
			specialistType: "coder",
			cfg:            &DelegationConfig{Enabled: true, AllowedParentRoles: []string{"supervisor"}},
			wantErr:        true,
		},
		{
			name:           "role allowlist match",
			fromRole:       "supervisor",
			specialistType: "coder",
			cfg:            &DelegationConfig{Enabled: true, AllowedParentRoles: []string{"supervisor"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New()
			if tt.cfg != nil {
				tpl, _ := r.Template(tt.specialistType)
				tpl.Type = tt.specialistType
				r.RegisterTemplate(tpl, "prompt", *tt.cfg)
			}

			err := r.CanDelegate(tt.fromRole, tt.specialistType, "wf-1")
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPolicyOverride(t *testing.T) {
	r := New(func(o *Options) {
		o.Policy = func(fromRole, specialistType, workflowID string) error {
			if workflowID == "blocked" {
				return assert.AnError
			}
			return nil
		}
	})

	assert.NoError(t, r.CanDelegate("supervisor", "researcher", "wf-1"))
	assert.Error(t, r.CanDelegate("supervisor", "researcher", "blocked"))
}

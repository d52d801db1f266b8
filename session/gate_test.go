package session_test

import (
	"testing"

	"github.com/jrsteele09/coursehub-session/session"
	"github.com/jrsteele09/coursehub-session/token"
	"github.com/stretchr/testify/require"
)

func TestAuthorize(t *testing.T) {
	student := &token.Identity{SubjectID: "1", Role: token.RoleStudent}
	teacher := &token.Identity{SubjectID: "2", Role: token.RoleTeacher}

	tests := []struct {
		name    string
		state   session.State
		allowed []token.Role
		want    session.Decision
	}{
		{name: "not ready without identity", state: session.State{}, want: session.DecisionWait},
		{name: "not ready with identity", state: session.State{Identity: teacher}, want: session.DecisionWait},
		{name: "ready anonymous", state: session.State{Ready: true}, want: session.DecisionLogin},
		{name: "ready anonymous with roles", state: session.State{Ready: true}, allowed: []token.Role{token.RoleTeacher}, want: session.DecisionLogin},
		{name: "any role", state: session.State{Ready: true, Identity: student}, want: session.DecisionAllow},
		{name: "role allowed", state: session.State{Ready: true, Identity: teacher}, allowed: []token.Role{token.RoleTeacher, token.RoleAdmin}, want: session.DecisionAllow},
		{name: "role forbidden", state: session.State{Ready: true, Identity: student}, allowed: []token.Role{token.RoleTeacher}, want: session.DecisionForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, session.Authorize(tt.state, tt.allowed...))
		})
	}
}

func TestDecision_String(t *testing.T) {
	require.Equal(t, "wait", session.DecisionWait.String())
	require.Equal(t, "login", session.DecisionLogin.String())
	require.Equal(t, "forbidden", session.DecisionForbidden.String())
	require.Equal(t, "allow", session.DecisionAllow.String())
}

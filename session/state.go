// Package session holds the observable session state: who is signed in and
// whether that answer is known yet.
package session

import "github.com/jrsteele09/coursehub-session/token"

// Phase is the lifecycle position of a session.
type Phase int

const (
	PhaseUninitialized Phase = iota
	PhaseBootstrapping
	PhaseAuthenticated
	PhaseAnonymous
)

func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseBootstrapping:
		return "bootstrapping"
	case PhaseAuthenticated:
		return "authenticated"
	case PhaseAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// State is a snapshot of the session.
//
// While Ready is false a nil Identity means "not known yet", never "signed out".
type State struct {
	Identity *token.Identity
	Ready    bool
	Phase    Phase
}

// Authenticated reports whether the session is ready and has an identity.
func (s State) Authenticated() bool {
	return s.Ready && s.Identity != nil
}

func derivePhase(s State, bootstrapping bool) Phase {
	switch {
	case !s.Ready && bootstrapping:
		return PhaseBootstrapping
	case !s.Ready:
		return PhaseUninitialized
	case s.Identity != nil:
		return PhaseAuthenticated
	default:
		return PhaseAnonymous
	}
}

func sameIdentity(a, b *token.Identity) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.SubjectID == b.SubjectID &&
		a.Username == b.Username &&
		a.Email == b.Email &&
		a.FullName == b.FullName &&
		a.Role == b.Role &&
		a.ExpiresAt.Equal(b.ExpiresAt)
}

package session

import "github.com/jrsteele09/coursehub-session/token"

// Decision is the outcome of gating a caller on the session.
type Decision int

const (
	// DecisionWait: the session is not ready; show a loading state.
	DecisionWait Decision = iota
	// DecisionLogin: ready and anonymous.
	DecisionLogin
	// DecisionForbidden: signed in with a role outside the allowed set.
	DecisionForbidden
	DecisionAllow
)

func (d Decision) String() string {
	switch d {
	case DecisionWait:
		return "wait"
	case DecisionLogin:
		return "login"
	case DecisionForbidden:
		return "forbidden"
	case DecisionAllow:
		return "allow"
	default:
		return "unknown"
	}
}

// Authorize decides whether a caller guarded by allowed roles may proceed.
// With no roles any signed-in identity is allowed. It never blocks.
func Authorize(state State, allowed ...token.Role) Decision {
	if !state.Ready {
		return DecisionWait
	}
	if state.Identity == nil {
		return DecisionLogin
	}
	if len(allowed) > 0 && !state.Identity.HasRole(allowed...) {
		return DecisionForbidden
	}
	return DecisionAllow
}

package atelier

import "fmt"

// Phase is the lifecycle stage of the client session.
type Phase string

const (
	// PhaseInitializing means the credential store has not been read yet.
	PhaseInitializing Phase = "initializing"
	// PhaseResolving means an identity resolution request is in flight.
	PhaseResolving Phase = "resolving"
	// PhaseReady means token and user are settled (possibly both absent).
	PhaseReady Phase = "ready"
)

// phaseTransitions is the allowed phase graph. Ready is not terminal: login,
// signup, and refresh re-enter resolving.
var phaseTransitions = map[Phase]map[Phase]struct{}{
	PhaseInitializing: {
		PhaseResolving: {},
		PhaseReady:     {},
	},
	PhaseResolving: {
		PhaseReady: {},
	},
	PhaseReady: {
		PhaseResolving: {},
	},
}

func canTransition(from, to Phase) bool {
	if allowed, ok := phaseTransitions[from]; ok {
		_, exists := allowed[to]
		return exists
	}
	return false
}

// Session is an immutable snapshot of session state. Invariant: a non-nil
// User implies a non-empty Token; the reverse does not hold while a
// resolution is in flight.
type Session struct {
	Token string
	User  *UserSummary
	Phase Phase
}

// Authenticated reports whether an identity has been resolved.
func (s Session) Authenticated() bool {
	return s.User != nil
}

// Role derives the permission tier from the resolved user.
func (s Session) Role() Role {
	return DeriveRole(s.User)
}

// Ready reports whether the session has settled.
func (s Session) Ready() bool {
	return s.Phase == PhaseReady
}

// String renders session state without leaking the token.
func (s Session) String() string {
	userID := "<nil>"
	if s.User != nil {
		userID = s.User.ID
	}
	return fmt.Sprintf(
		"phase=%s user=%s role=%s token=%s",
		s.Phase,
		userID,
		s.Role(),
		redactToken(s.Token),
	)
}

func redactToken(token string) string {
	if token == "" {
		return "<none>"
	}
	return "<redacted>"
}

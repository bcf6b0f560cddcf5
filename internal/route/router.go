package route

import (
	"github.com/campusport/portalgate/internal/identity"
	"github.com/campusport/portalgate/internal/session"
)

// Decision is the outcome class of a route resolution
type Decision string

// Route resolution outcomes
const (
	// DecisionPending means the session restore has not settled yet;
	// nothing may be rendered or fetched
	DecisionPending Decision = "pending"
	// DecisionAllow resolves the path to a screen in the active role's table
	DecisionAllow Decision = "allow"
	// DecisionRedirectLogin sends an unauthenticated navigation to the
	// login path; no protected content is rendered
	DecisionRedirectLogin Decision = "redirect_login"
	// DecisionRedirectIndex sends an authenticated navigation away from
	// the login path to the role's default screen
	DecisionRedirectIndex Decision = "redirect_index"
	// DecisionNotFound is returned for paths outside the active role's
	// table. Undefined paths never fall through to another role's screen.
	DecisionNotFound Decision = "not_found"
)

// Outcome is the result of resolving a navigation request
type Outcome struct {
	Decision   Decision      `json:"decision"`
	RedirectTo string        `json:"redirect_to,omitempty"`
	Entry      *Entry        `json:"entry,omitempty"`
	Role       identity.Role `json:"role,omitempty"`
}

// StateReader exposes the session state the router derives its two
// states, Unauthenticated and Authenticated(role), from
type StateReader interface {
	Snapshot() session.Snapshot
}

// Router gates navigation by the current session state. It holds no
// state of its own: each resolution reads a fresh snapshot, so login,
// logout, and forced logout transitions take effect immediately.
type Router struct {
	state StateReader
}

// NewRouter creates a role router over the given session state
func NewRouter(state StateReader) *Router {
	return &Router{state: state}
}

// Resolve decides the outcome of navigating to path
func (r *Router) Resolve(path string) Outcome {
	snap := r.state.Snapshot()

	if snap.Loading {
		return Outcome{Decision: DecisionPending}
	}

	if !snap.IsAuthenticated {
		if path == LoginPath {
			return Outcome{Decision: DecisionAllow, Entry: &Entry{Name: "Login", Path: LoginPath}}
		}
		return Outcome{Decision: DecisionRedirectLogin, RedirectTo: LoginPath}
	}

	role := snap.User.Role
	table := TableFor(role)

	if path == LoginPath {
		return Outcome{Decision: DecisionRedirectIndex, RedirectTo: IndexPath, Role: role}
	}

	if entry, ok := table.Find(path); ok {
		return Outcome{Decision: DecisionAllow, Entry: &entry, Role: role}
	}
	return Outcome{Decision: DecisionNotFound, Role: role}
}

// Routes returns the active role's table for navigation rendering, or
// nil when no role is active
func (r *Router) Routes() Table {
	snap := r.state.Snapshot()
	if snap.Loading || !snap.IsAuthenticated {
		return nil
	}
	return TableFor(snap.User.Role)
}

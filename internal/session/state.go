package session

import (
	"sync"

	"github.com/campusport/portalgate/internal/identity"
)

// Snapshot is a point-in-time view of the session state
type Snapshot struct {
	IsAuthenticated bool               `json:"is_authenticated"`
	User            *identity.Identity `json:"user"`
	Loading         bool               `json:"loading"`
}

// State holds the process-wide session state. It starts in the loading
// phase and settles exactly once, during Client.Restore. All mutation
// goes through Client methods so the IsAuthenticated == (User != nil)
// invariant is enforced in one place; consumers only read snapshots.
type State struct {
	mu              sync.RWMutex
	isAuthenticated bool
	user            *identity.Identity
	loading         bool
}

// NewState creates a session state in the loading phase
func NewState() *State {
	return &State{loading: true}
}

// Snapshot returns the current session state. The returned identity is a
// copy; mutating it does not affect the state.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var user *identity.Identity
	if s.user != nil {
		u := *s.user
		user = &u
	}
	return Snapshot{
		IsAuthenticated: s.isAuthenticated,
		User:            user,
		Loading:         s.loading,
	}
}

// setAuthenticated marks the session authenticated as ident. The identity
// must be non-nil; isAuthenticated and user move together.
func (s *State) setAuthenticated(ident *identity.Identity) {
	u := *ident
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isAuthenticated = true
	s.user = &u
}

// reset returns the state to unauthenticated
func (s *State) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isAuthenticated = false
	s.user = nil
}

// settle ends the loading phase
func (s *State) settle() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
}

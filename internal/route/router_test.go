package route

import (
	"testing"

	"github.com/campusport/portalgate/internal/identity"
	"github.com/campusport/portalgate/internal/session"
)

// fakeState is a StateReader with a fixed snapshot
type fakeState struct {
	snap session.Snapshot
}

func (f fakeState) Snapshot() session.Snapshot { return f.snap }

func loadingState() fakeState {
	return fakeState{snap: session.Snapshot{Loading: true}}
}

func unauthenticatedState() fakeState {
	return fakeState{snap: session.Snapshot{}}
}

func authenticatedState(role identity.Role) fakeState {
	return fakeState{snap: session.Snapshot{
		IsAuthenticated: true,
		User:            &identity.Identity{Email: "u@x.com", Role: role, Token: "tok"},
	}}
}

func TestResolve_Pending(t *testing.T) {
	router := NewRouter(loadingState())

	for _, path := range []string{IndexPath, LoginPath, "/grades"} {
		if got := router.Resolve(path); got.Decision != DecisionPending {
			t.Errorf("Resolve(%q) during restore = %q, want %q", path, got.Decision, DecisionPending)
		}
	}
}

func TestResolve_Unauthenticated(t *testing.T) {
	router := NewRouter(unauthenticatedState())

	tests := []struct {
		name string
		path string
		want Decision
	}{
		{"login path allowed", LoginPath, DecisionAllow},
		{"index redirects to login", IndexPath, DecisionRedirectLogin},
		{"protected path redirects to login", "/grades", DecisionRedirectLogin},
		{"unknown path redirects to login", "/no-such-screen", DecisionRedirectLogin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := router.Resolve(tt.path)
			if got.Decision != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.path, got.Decision, tt.want)
			}
			if got.Decision == DecisionRedirectLogin && got.RedirectTo != LoginPath {
				t.Errorf("RedirectTo = %q, want %q", got.RedirectTo, LoginPath)
			}
		})
	}
}

func TestResolve_RoleIndex(t *testing.T) {
	// Each role's root resolves to that role's own dashboard
	tests := []struct {
		role identity.Role
		want string
	}{
		{identity.RoleAdmin, "admin:dashboard"},
		{identity.RoleTeacher, "teacher:dashboard"},
		{identity.RoleStudent, "student:dashboard"},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			router := NewRouter(authenticatedState(tt.role))
			got := router.Resolve(IndexPath)
			if got.Decision != DecisionAllow {
				t.Fatalf("Resolve(%q) = %q, want %q", IndexPath, got.Decision, DecisionAllow)
			}
			if got.Entry.Capability != tt.want {
				t.Errorf("index capability = %q, want %q", got.Entry.Capability, tt.want)
			}
		})
	}
}

func TestResolve_CrossRoleDenied(t *testing.T) {
	// Paths outside the active role's table resolve to not found, never
	// to another role's screen
	tests := []struct {
		name string
		role identity.Role
		path string
	}{
		{"student reaching teacher attendance", identity.RoleStudent, "/attendance"},
		{"student reaching admin users", identity.RoleStudent, "/users"},
		{"teacher reaching student financial", identity.RoleTeacher, "/financial"},
		{"teacher reaching admin monitoring", identity.RoleTeacher, "/monitoring"},
		{"admin reaching teacher exams", identity.RoleAdmin, "/exams"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := NewRouter(authenticatedState(tt.role))
			got := router.Resolve(tt.path)
			if got.Decision != DecisionNotFound {
				t.Errorf("Resolve(%q) as %s = %q, want %q", tt.path, tt.role, got.Decision, DecisionNotFound)
			}
			if got.Entry != nil {
				t.Errorf("denied navigation resolved to screen %+v", got.Entry)
			}
		})
	}
}

func TestResolve_AuthenticatedLoginPath(t *testing.T) {
	router := NewRouter(authenticatedState(identity.RoleTeacher))

	got := router.Resolve(LoginPath)
	if got.Decision != DecisionRedirectIndex {
		t.Fatalf("Resolve(%q) = %q, want %q", LoginPath, got.Decision, DecisionRedirectIndex)
	}
	if got.RedirectTo != IndexPath {
		t.Errorf("RedirectTo = %q, want %q", got.RedirectTo, IndexPath)
	}
}

func TestResolve_UnknownRoleFallsBack(t *testing.T) {
	// Unknown role strings get the fallback role's table, as a named
	// policy rather than an accidental fallthrough
	router := NewRouter(authenticatedState(identity.Role("principal")))

	if got := router.Resolve("/financial"); got.Decision != DecisionAllow {
		t.Errorf("Resolve(/financial) with unknown role = %q, want %q", got.Decision, DecisionAllow)
	}
	if got := router.Resolve("/attendance"); got.Decision != DecisionNotFound {
		t.Errorf("Resolve(/attendance) with unknown role = %q, want %q", got.Decision, DecisionNotFound)
	}
}

func TestRoutes(t *testing.T) {
	if got := NewRouter(unauthenticatedState()).Routes(); got != nil {
		t.Errorf("Routes() unauthenticated = %v, want nil", got)
	}
	if got := NewRouter(loadingState()).Routes(); got != nil {
		t.Errorf("Routes() during restore = %v, want nil", got)
	}
	got := NewRouter(authenticatedState(identity.RoleAdmin)).Routes()
	if len(got) != len(adminTable) {
		t.Errorf("Routes() admin returned %d entries, want %d", len(got), len(adminTable))
	}
}

func TestTables_Invariants(t *testing.T) {
	for _, role := range []identity.Role{identity.RoleAdmin, identity.RoleTeacher, identity.RoleStudent} {
		t.Run(string(role), func(t *testing.T) {
			table := TableFor(role)

			if _, ok := table.Find("/profile"); !ok {
				t.Error("table has no profile entry")
			}
			if table.Index().Path != IndexPath {
				t.Error("table has no index entry")
			}

			seen := make(map[string]bool)
			for _, entry := range table {
				if seen[entry.Path] {
					t.Errorf("duplicate path %q", entry.Path)
				}
				seen[entry.Path] = true
			}
		})
	}
}

func TestTables_IndexDiffersPerRole(t *testing.T) {
	capabilities := map[string]bool{}
	for _, role := range []identity.Role{identity.RoleAdmin, identity.RoleTeacher, identity.RoleStudent} {
		capabilities[TableFor(role).Index().Capability] = true
	}
	if len(capabilities) != 3 {
		t.Errorf("index screens are not distinct per role: %v", capabilities)
	}
}

package view

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/campusport/portalgate/internal/identity"
	"github.com/campusport/portalgate/internal/route"
)

// recordingBackend records the endpoints fetched and serves canned JSON
type recordingBackend struct {
	calls []string
}

func (b *recordingBackend) Get(ctx context.Context, path string, out interface{}) error {
	b.calls = append(b.calls, path)
	raw := json.RawMessage(fmt.Sprintf(`{"from":%q}`, path))
	*(out.(*json.RawMessage)) = raw
	return nil
}

func TestDefaultRegistry_CoversRouteTables(t *testing.T) {
	registry := DefaultRegistry(&recordingBackend{})

	// Every route table entry has a screen, scoped to its role
	for _, role := range []identity.Role{identity.RoleAdmin, identity.RoleTeacher, identity.RoleStudent} {
		for _, entry := range route.TableFor(role) {
			screen, ok := registry.Resolve(role, entry.Path)
			if !ok {
				t.Errorf("no screen for %s %s", role, entry.Path)
				continue
			}
			if screen.Name != entry.Name {
				t.Errorf("screen name for %s %s = %q, want %q", role, entry.Path, screen.Name, entry.Name)
			}
		}
	}
}

func TestRegistry_RoleScoped(t *testing.T) {
	registry := DefaultRegistry(&recordingBackend{})

	// Teacher-only and admin-only paths are invisible to students
	if _, ok := registry.Resolve(identity.RoleStudent, "/attendance"); ok {
		t.Error("student resolved a teacher-only screen")
	}
	if _, ok := registry.Resolve(identity.RoleStudent, "/users"); ok {
		t.Error("student resolved an admin-only screen")
	}
	if _, ok := registry.Resolve(identity.RoleTeacher, "/financial"); ok {
		t.Error("teacher resolved a student-only screen")
	}
}

func TestRegistry_FetcherHitsExpectedEndpoint(t *testing.T) {
	backend := &recordingBackend{}
	registry := DefaultRegistry(backend)

	tests := []struct {
		role     identity.Role
		path     string
		endpoint string
	}{
		{identity.RoleAdmin, route.IndexPath, "/api/v1/admin/dashboard/stats"},
		{identity.RoleAdmin, "/monitoring", "/api/v1/admin/activity-logs"},
		{identity.RoleStudent, "/financial", "/api/v1/financial/me"},
		{identity.RoleTeacher, "/grades", "/api/v1/teacher/grades"},
		{identity.RoleStudent, "/profile", "/api/v1/profile/me"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s %s", tt.role, tt.path), func(t *testing.T) {
			screen, ok := registry.Resolve(tt.role, tt.path)
			if !ok {
				t.Fatalf("no screen for %s %s", tt.role, tt.path)
			}

			backend.calls = nil
			data, err := screen.Fetch(context.Background())
			if err != nil {
				t.Fatalf("Fetch() failed: %v", err)
			}
			if len(backend.calls) != 1 || backend.calls[0] != tt.endpoint {
				t.Errorf("fetch hit %v, want [%s]", backend.calls, tt.endpoint)
			}
			if len(data) == 0 {
				t.Error("Fetch() returned no data")
			}
		})
	}
}

func TestRegistry_DuplicateRegistration(t *testing.T) {
	registry := NewRegistry()
	screen := Screen{Name: "Dashboard", Path: route.IndexPath}

	if err := registry.Register(identity.RoleStudent, screen); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}
	if err := registry.Register(identity.RoleStudent, screen); err == nil {
		t.Error("Register() allowed a duplicate path for the same role")
	}
	// Same path for another role is fine
	if err := registry.Register(identity.RoleTeacher, screen); err != nil {
		t.Errorf("Register() rejected the same path on another role: %v", err)
	}
}

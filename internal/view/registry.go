package view

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/campusport/portalgate/internal/identity"
	"github.com/campusport/portalgate/internal/route"
)

// Backend performs authenticated reads against the portal API
type Backend interface {
	Get(ctx context.Context, path string, out interface{}) error
}

// Fetcher loads a screen's data. Rendering is not this package's
// concern; fetchers return the backend's JSON untouched.
type Fetcher func(ctx context.Context) (json.RawMessage, error)

// Screen pairs a route with its data source
type Screen struct {
	Name  string
	Path  string
	Fetch Fetcher
}

// Registry maps each role's routes to screens. Lookups are scoped to a
// single role: a path registered for one role is invisible to the others.
type Registry struct {
	screens map[identity.Role]map[string]Screen
}

// NewRegistry creates an empty view registry
func NewRegistry() *Registry {
	return &Registry{screens: make(map[identity.Role]map[string]Screen)}
}

// Register binds a screen to a role and path. Registering an already
// bound path is a programming error.
func (r *Registry) Register(role identity.Role, screen Screen) error {
	byPath, ok := r.screens[role]
	if !ok {
		byPath = make(map[string]Screen)
		r.screens[role] = byPath
	}
	if _, exists := byPath[screen.Path]; exists {
		return fmt.Errorf("screen already registered for role %s at %s", role, screen.Path)
	}
	byPath[screen.Path] = screen
	return nil
}

// Resolve looks up the screen for a role and path
func (r *Registry) Resolve(role identity.Role, path string) (Screen, bool) {
	byPath, ok := r.screens[role]
	if !ok {
		return Screen{}, false
	}
	screen, ok := byPath[path]
	return screen, ok
}

// endpointFetcher builds a fetcher that GETs one backend endpoint
func endpointFetcher(backend Backend, endpoint string) Fetcher {
	return func(ctx context.Context) (json.RawMessage, error) {
		var data json.RawMessage
		if err := backend.Get(ctx, endpoint, &data); err != nil {
			return nil, err
		}
		return data, nil
	}
}

// DefaultRegistry builds the registry for the portal's standard screens,
// one per route table entry, each backed by its backend endpoint
func DefaultRegistry(backend Backend) *Registry {
	registry := NewRegistry()

	endpoints := map[identity.Role]map[string]string{
		identity.RoleAdmin: {
			route.IndexPath:  "/api/v1/admin/dashboard/stats",
			"/users":         "/api/v1/admin/users",
			"/departments":   "/api/v1/admin/departments",
			"/courses":       "/api/v1/admin/courses",
			"/announcements": "/api/v1/admin/announcements",
			"/monitoring":    "/api/v1/admin/activity-logs",
			"/profile":       "/api/v1/profile/me",
		},
		identity.RoleTeacher: {
			route.IndexPath: "/api/v1/teacher/dashboard",
			"/courses":      "/api/v1/teacher/courses",
			"/assignments":  "/api/v1/teacher/assignments",
			"/grades":       "/api/v1/teacher/grades",
			"/attendance":   "/api/v1/teacher/attendance",
			"/materials":    "/api/v1/teacher/materials",
			"/exams":        "/api/v1/teacher/exams",
			"/profile":      "/api/v1/profile/me",
		},
		identity.RoleStudent: {
			route.IndexPath: "/api/v1/student/dashboard",
			"/courses":      "/api/v1/student/courses",
			"/assignments":  "/api/v1/student/assignments",
			"/grades":       "/api/v1/student/grades",
			"/schedule":     "/api/v1/student/schedule",
			"/library":      "/api/v1/student/library",
			"/financial":    "/api/v1/financial/me",
			"/profile":      "/api/v1/profile/me",
		},
	}

	for role, byPath := range endpoints {
		table := route.TableFor(role)
		for path, endpoint := range byPath {
			entry, ok := table.Find(path)
			if !ok {
				continue
			}
			// Tables are static and paths unique per role, so Register
			// cannot fail here
			_ = registry.Register(role, Screen{
				Name:  entry.Name,
				Path:  path,
				Fetch: endpointFetcher(backend, endpoint),
			})
		}
	}
	return registry
}

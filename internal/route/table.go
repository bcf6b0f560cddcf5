package route

import "github.com/campusport/portalgate/internal/identity"

// LoginPath is the only path reachable without a session
const LoginPath = "/login"

// IndexPath is each role's default screen
const IndexPath = "/"

// Entry is one reachable screen in a role's route table
type Entry struct {
	Name       string `json:"name"`
	Path       string `json:"path"`
	Capability string `json:"capability"`
}

// Table is the ordered list of screens reachable by one role
type Table []Entry

// Per-role route tables, mirroring the portal's navigation. Every role
// has a profile entry; index screens differ per role; paths are unique
// within a role.
var (
	adminTable = Table{
		{Name: "Dashboard", Path: IndexPath, Capability: "admin:dashboard"},
		{Name: "User Management", Path: "/users", Capability: "admin:users"},
		{Name: "Departments", Path: "/departments", Capability: "admin:departments"},
		{Name: "Courses", Path: "/courses", Capability: "admin:courses"},
		{Name: "Announcements", Path: "/announcements", Capability: "admin:announcements"},
		{Name: "System Monitoring", Path: "/monitoring", Capability: "admin:monitoring"},
		{Name: "Profile", Path: "/profile", Capability: "profile:manage"},
	}

	teacherTable = Table{
		{Name: "Dashboard", Path: IndexPath, Capability: "teacher:dashboard"},
		{Name: "Courses", Path: "/courses", Capability: "teacher:courses"},
		{Name: "Assignments", Path: "/assignments", Capability: "teacher:assignments"},
		{Name: "Grades", Path: "/grades", Capability: "teacher:grades"},
		{Name: "Attendance", Path: "/attendance", Capability: "teacher:attendance"},
		{Name: "Course Materials", Path: "/materials", Capability: "teacher:materials"},
		{Name: "Exams", Path: "/exams", Capability: "teacher:exams"},
		{Name: "Profile", Path: "/profile", Capability: "profile:manage"},
	}

	studentTable = Table{
		{Name: "Dashboard", Path: IndexPath, Capability: "student:dashboard"},
		{Name: "Courses", Path: "/courses", Capability: "student:courses"},
		{Name: "Assignments", Path: "/assignments", Capability: "student:assignments"},
		{Name: "Grades", Path: "/grades", Capability: "student:grades"},
		{Name: "Schedule", Path: "/schedule", Capability: "student:schedule"},
		{Name: "Library", Path: "/library", Capability: "student:library"},
		{Name: "Financial", Path: "/financial", Capability: "student:financial"},
		{Name: "Profile", Path: "/profile", Capability: "profile:manage"},
	}
)

// TableFor returns the route table for a role. Unknown roles resolve
// through identity.NormalizeRole, so they get the fallback role's table.
func TableFor(role identity.Role) Table {
	switch identity.NormalizeRole(string(role)) {
	case identity.RoleAdmin:
		return adminTable
	case identity.RoleTeacher:
		return teacherTable
	default:
		return studentTable
	}
}

// Find looks up a path in the table
func (t Table) Find(path string) (Entry, bool) {
	for _, entry := range t {
		if entry.Path == path {
			return entry, true
		}
	}
	return Entry{}, false
}

// Index returns the table's default screen
func (t Table) Index() Entry {
	entry, _ := t.Find(IndexPath)
	return entry
}

package identity

import "encoding/json"

// Role represents a portal authorization role
type Role string

// Known portal roles
const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

// FallbackRole is the role assigned to identities whose role claim is not
// one of the known roles. The portal has always treated unrecognized role
// strings as student accounts; keeping that as a named policy makes the
// behavior visible and testable instead of an accidental fallthrough.
const FallbackRole = RoleStudent

// Identity is the client-side record of the authenticated user
type Identity struct {
	Email string `json:"email"`
	Role  Role   `json:"role"`
	Token string `json:"token"`
}

// NormalizeRole maps a raw role claim to a known Role, applying
// FallbackRole for anything unrecognized (including empty strings)
func NormalizeRole(raw string) Role {
	switch Role(raw) {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return Role(raw)
	default:
		return FallbackRole
	}
}

// IsKnown returns true if the role is one of the three portal roles
func (r Role) IsKnown() bool {
	return r == RoleAdmin || r == RoleTeacher || r == RoleStudent
}

// Marshal serializes the identity for persistence
func (i Identity) Marshal() ([]byte, error) {
	return json.Marshal(i)
}

// Unmarshal deserializes a persisted identity. The role is normalized on
// the way in so a stored unknown role resolves the same way a fresh login
// would.
func Unmarshal(data []byte) (*Identity, error) {
	var ident Identity
	if err := json.Unmarshal(data, &ident); err != nil {
		return nil, err
	}
	ident.Role = NormalizeRole(string(ident.Role))
	return &ident, nil
}

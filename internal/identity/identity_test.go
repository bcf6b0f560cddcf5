package identity

import (
	"testing"
)

func TestNormalizeRole(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Role
	}{
		{"admin", "admin", RoleAdmin},
		{"teacher", "teacher", RoleTeacher},
		{"student", "student", RoleStudent},
		{"unknown role", "parent", FallbackRole},
		{"empty role", "", FallbackRole},
		{"case sensitive", "Admin", FallbackRole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeRole(tt.raw); got != tt.want {
				t.Errorf("NormalizeRole(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestIsKnown(t *testing.T) {
	for _, r := range []Role{RoleAdmin, RoleTeacher, RoleStudent} {
		if !r.IsKnown() {
			t.Errorf("IsKnown() = false for %q", r)
		}
	}
	if Role("parent").IsKnown() {
		t.Error("IsKnown() = true for unknown role")
	}
}

func TestUnmarshal(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		wantErr  bool
		wantRole Role
	}{
		{
			name:     "valid identity",
			data:     `{"email":"t@x.com","role":"teacher","token":"tok123"}`,
			wantRole: RoleTeacher,
		},
		{
			name:     "unknown role normalized",
			data:     `{"email":"p@x.com","role":"parent","token":"tok456"}`,
			wantRole: FallbackRole,
		},
		{
			name:    "corrupt json",
			data:    `{"email":`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ident, err := Unmarshal([]byte(tt.data))
			if tt.wantErr {
				if err == nil {
					t.Fatal("Unmarshal() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unmarshal() failed: %v", err)
			}
			if ident.Role != tt.wantRole {
				t.Errorf("Role = %q, want %q", ident.Role, tt.wantRole)
			}
		})
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	ident := Identity{Email: "a@x.com", Role: RoleAdmin, Token: "tok"}
	data, err := ident.Marshal()
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}
	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal() failed: %v", err)
	}
	if *got != ident {
		t.Errorf("round trip = %+v, want %+v", *got, ident)
	}
}

package models

// Role controls what a dashboard user may do.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleViewer Role = "viewer"
)

// Valid reports whether the role grants access to the dashboard at all.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleViewer
}

// CanWrite reports whether the role may create, edit, or delete records.
func (r Role) CanWrite() bool {
	return r == RoleAdmin
}

// Profile identifies a dashboard user. Profiles are created by the backend on signup.
type Profile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role,omitempty"`
}

// DisplayName prefers the profile name and falls back to the email address.
func (p Profile) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.Email
}

// ProfileRef is the embedded owner summary returned alongside barns and feed records.
type ProfileRef struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

package model

import "time"

// Role is a user's permission level. ADMIN > EDITOR > VIEWER.
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleEditor Role = "EDITOR"
	RoleViewer Role = "VIEWER"
)

// ParseRole maps a raw string onto a known role, defaulting to VIEWER.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleAdmin, RoleEditor, RoleViewer:
		return Role(s)
	default:
		return RoleViewer
	}
}

// User is a staff account. Accounts are deactivated rather than deleted.
type User struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         Role       `json:"role"`
	IsActive     bool       `json:"is_active"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	InvitedByID  string     `json:"invited_by_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

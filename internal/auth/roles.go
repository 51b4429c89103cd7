// Package auth implements the role hierarchy, sealed-cookie sessions, and
// password handling for staff accounts.
package auth

import (
	"github.com/rotisserie/eris"

	"github.com/pililokal/merchant-ops/internal/model"
)

// ErrUnauthorized means there is no usable session: not logged in, or the
// account has been deactivated.
var ErrUnauthorized = eris.New("unauthorized")

// ErrForbidden means the session is valid but the role is insufficient.
var ErrForbidden = eris.New("forbidden: insufficient permissions")

// Session is the resolved identity attached to a request.
type Session struct {
	UserID   string     `json:"user_id"`
	Email    string     `json:"email"`
	Name     string     `json:"name"`
	Role     model.Role `json:"role"`
	IsActive bool       `json:"is_active"`
}

// roleHierarchy orders roles for minimum-level checks. Unknown roles get
// level 0 and can never pass a gate.
var roleHierarchy = map[model.Role]int{
	model.RoleAdmin:  3,
	model.RoleEditor: 2,
	model.RoleViewer: 1,
}

// RoleLevel returns the numeric level for a role, 0 for unknown.
func RoleLevel(r model.Role) int {
	return roleHierarchy[r]
}

// RequireRole checks that the session exists, belongs to an active account,
// and carries at least the minimum role. There is no per-resource ownership
// override; an EDITOR cannot pass an ADMIN gate by owning the record.
func RequireRole(sess *Session, min model.Role) error {
	if sess == nil {
		return eris.Wrap(ErrUnauthorized, "not logged in")
	}
	if !sess.IsActive {
		return eris.Wrap(ErrUnauthorized, "account is deactivated")
	}
	if RoleLevel(sess.Role) < RoleLevel(min) {
		return ErrForbidden
	}
	return nil
}

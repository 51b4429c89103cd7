package server

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/pililokal/merchant-ops/internal/auth"
	"github.com/pililokal/merchant-ops/internal/model"
)

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.store.ListUsers(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	writeOK(w, users)
}

type createUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// createUserResult carries the invite outcome. When the invite email cannot
// be delivered the account is still created and the temp password is
// surfaced here so the admin can pass it on by hand.
type createUserResult struct {
	User         *model.User `json:"user"`
	TempPassword string      `json:"temp_password,omitempty"`
	EmailError   string      `json:"email_error,omitempty"`
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" || req.Email == "" {
		writeError(w, http.StatusBadRequest, "name and email are required")
		return
	}

	tempPassword, err := auth.TempPassword()
	if err != nil {
		writeErr(w, err)
		return
	}
	hash, err := auth.HashPassword(tempPassword)
	if err != nil {
		writeErr(w, err)
		return
	}

	sess := sessionFrom(r.Context())
	u := &model.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         model.ParseRole(req.Role),
		InvitedByID:  sess.UserID,
	}
	created, err := s.store.CreateUser(r.Context(), u)
	if err != nil {
		writeErr(w, err)
		return
	}

	result := createUserResult{User: created}
	if err := s.mailer.SendInvite(created.Name, created.Email, tempPassword); err != nil {
		zap.L().Warn("send invite email", zap.String("email", created.Email), zap.Error(err))
		result.TempPassword = tempPassword
		result.EmailError = "invite email could not be sent; share the temporary password manually"
	}
	writeOK(w, result)
}

type roleRequest struct {
	Role string `json:"role"`
}

func (s *Server) handleUserRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	role := model.Role(strings.ToUpper(strings.TrimSpace(req.Role)))
	if model.ParseRole(string(role)) != role {
		writeError(w, http.StatusBadRequest, "unknown role: "+req.Role)
		return
	}
	if err := s.store.UpdateUserRole(r.Context(), chi.URLParam(r, "id"), role); err != nil {
		writeErr(w, err)
		return
	}
	writeOK(w, nil)
}

// handleUserToggle flips an account between active and deactivated.
// Admins cannot deactivate themselves; that would lock the last key in
// the safe.
func (s *Server) handleUserToggle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess := sessionFrom(r.Context())
	if id == sess.UserID {
		writeError(w, http.StatusBadRequest, "you cannot deactivate your own account")
		return
	}

	u, err := s.store.GetUser(r.Context(), id)
	if err != nil {
		writeErr(w, err)
		return
	}
	if err := s.store.SetUserActive(r.Context(), id, !u.IsActive); err != nil {
		writeErr(w, err)
		return
	}
	writeOK(w, map[string]bool{"is_active": !u.IsActive})
}

func (s *Server) handleUserResetPassword(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	u, err := s.store.GetUser(r.Context(), id)
	if err != nil {
		writeErr(w, err)
		return
	}

	tempPassword, err := auth.TempPassword()
	if err != nil {
		writeErr(w, err)
		return
	}
	hash, err := auth.HashPassword(tempPassword)
	if err != nil {
		writeErr(w, err)
		return
	}
	if err := s.store.SetUserPassword(r.Context(), id, hash); err != nil {
		writeErr(w, err)
		return
	}

	result := createUserResult{User: u}
	if err := s.mailer.SendPasswordReset(u.Name, u.Email, tempPassword); err != nil {
		zap.L().Warn("send reset email", zap.String("email", u.Email), zap.Error(err))
		result.TempPassword = tempPassword
		result.EmailError = "reset email could not be sent; share the temporary password manually"
	}
	writeOK(w, result)
}

package server

import (
	"net/http"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/pililokal/merchant-ops/internal/auth"
	"github.com/pililokal/merchant-ops/internal/store"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// handleLogin verifies credentials and sets the session cookie. Wrong
// email and wrong password get the same answer.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	u, err := s.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if !eris.Is(err, store.ErrNotFound) {
			writeErr(w, err)
			return
		}
		// Burn a hash comparison so missing users cost the same as wrong
		// passwords.
		auth.CheckPassword("$2a$12$invalidinvalidinvalidinvalidinvalidinvalidinvalidinva", req.Password)
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}
	if !u.IsActive {
		writeError(w, http.StatusUnauthorized, "account is deactivated")
		return
	}
	if !auth.CheckPassword(u.PasswordHash, req.Password) {
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	token, err := s.sealer.Seal(u.ID)
	if err != nil {
		writeErr(w, err)
		return
	}
	if err := s.store.TouchLastLogin(r.Context(), u.ID); err != nil {
		zap.L().Warn("touch last login", zap.Error(err))
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(auth.SessionMaxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeOK(w, map[string]any{
		"user_id": u.ID,
		"name":    u.Name,
		"email":   u.Email,
		"role":    u.Role,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeOK(w, nil)
}

// handleMe returns the resolved session for the current request.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeOK(w, sessionFrom(r.Context()))
}

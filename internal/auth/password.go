package auth

import (
	"crypto/rand"
	"encoding/base64"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", eris.Wrap(err, "auth: hash password")
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the stored hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// TempPassword generates a 16-character URL-safe temporary password for
// invitations and admin resets.
func TempPassword() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", eris.Wrap(err, "auth: generate temp password")
	}
	s := base64.RawURLEncoding.EncodeToString(buf)
	s = strings.NewReplacer("-", "x", "_", "y").Replace(s)
	if len(s) > 16 {
		s = s[:16]
	}
	return s, nil
}

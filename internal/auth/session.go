package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rotisserie/eris"
)

// SessionCookie is the name of the session cookie.
const SessionCookie = "pililokal_session"

// SessionMaxAge is the sealed token's lifetime.
const SessionMaxAge = 7 * 24 * time.Hour

// Sealer seals a user ID into an opaque signed token with an embedded
// expiry, and unseals it back. Unseal fails closed: malformed, tampered, or
// expired tokens yield no session rather than an error.
type Sealer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSealer creates a Sealer. The secret must be at least 32 bytes.
func NewSealer(secret string) (*Sealer, error) {
	if len(secret) < 32 {
		return nil, eris.New("auth: session secret must be at least 32 characters")
	}
	return &Sealer{secret: []byte(secret), ttl: SessionMaxAge, now: time.Now}, nil
}

type sessionClaims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

// Seal wraps a user ID into a signed token valid for the session TTL.
func (s *Sealer) Seal(userID string) (string, error) {
	now := s.now()
	claims := sessionClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", eris.Wrap(err, "auth: seal session")
	}
	return token, nil
}

// Unseal extracts the user ID from a sealed token. The second return value
// is false for any token that is malformed, tampered with, or expired.
func (s *Sealer) Unseal(token string) (string, bool) {
	var claims sessionClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, eris.Errorf("auth: unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid || claims.UserID == "" {
		return "", false
	}
	return claims.UserID, true
}

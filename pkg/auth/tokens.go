// Package auth resolves principals and their project rights: HS256 bearer
// tokens for editor clients, anonymous room bindings for overlay pages, and
// the permission gate every control command passes through.
package auth

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// DefaultTokenTTL is how long issued tokens stay valid.
const DefaultTokenTTL = 7 * 24 * time.Hour

// Tokens signs and verifies the bearer tokens editor clients carry. The
// subject claim is the decimal user id.
type Tokens struct {
	secret []byte
	ttl    time.Duration
}

// NewTokens creates a token codec for the given signing secret. A zero ttl
// selects DefaultTokenTTL.
func NewTokens(secret string, ttl time.Duration) (*Tokens, error) {
	if secret == "" {
		return nil, fmt.Errorf("signing secret must not be empty")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Tokens{secret: []byte(secret), ttl: ttl}, nil
}

// SecretFromEnv returns the signing secret from JWT_SECRET_KEY, falling back
// to SECRET_KEY. Empty when neither is set.
func SecretFromEnv() string {
	if s := os.Getenv("JWT_SECRET_KEY"); s != "" {
		return s
	}
	return os.Getenv("SECRET_KEY")
}

// Issue signs a fresh token for the user.
func (t *Tokens) Issue(userID int64) (string, error) {
	now := time.Now()
	tok, err := jwt.NewBuilder().
		Subject(strconv.FormatInt(userID, 10)).
		IssuedAt(now).
		Expiration(now.Add(t.ttl)).
		Build()
	if err != nil {
		return "", fmt.Errorf("failed to build token: %w", err)
	}

	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, t.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return string(signed), nil
}

// Verify parses and validates a token and returns the user id it names.
// Every failure mode maps to ErrInvalidToken; an empty token is ErrNoToken.
func (t *Tokens) Verify(token string) (int64, error) {
	if token == "" {
		return 0, ErrNoToken
	}

	tok, err := jwt.Parse([]byte(token), jwt.WithKey(jwa.HS256, t.secret))
	if err != nil {
		return 0, ErrInvalidToken
	}

	userID, err := strconv.ParseInt(tok.Subject(), 10, 64)
	if err != nil || userID <= 0 {
		return 0, ErrInvalidToken
	}
	return userID, nil
}

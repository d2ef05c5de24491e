// Package auth gates administrative operations behind a shared secret
// stored as a bcrypt hash.
package auth

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrUnauthorized is returned when the presented secret does not match.
	ErrUnauthorized = errors.New("auth: unauthorized")
	// ErrNoSecret is returned when no admin secret hash is configured.
	ErrNoSecret = errors.New("auth: no admin secret configured (set CBOT_ADMIN_SECRET_HASH)")
)

// Gate checks admin credentials. The zero value denies everything.
type Gate struct {
	hash []byte
}

// NewGate returns a gate for a bcrypt hash. An empty hash yields a gate
// that refuses every credential.
func NewGate(hash string) *Gate {
	return &Gate{hash: []byte(strings.TrimSpace(hash))}
}

// Configured reports whether a hash is set.
func (g *Gate) Configured() bool {
	return g != nil && len(g.hash) > 0
}

// CheckCredential reports whether secret matches the configured hash.
func (g *Gate) CheckCredential(secret string) bool {
	if !g.Configured() || secret == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword(g.hash, []byte(secret)) == nil
}

// Require returns nil when secret is accepted.
func (g *Gate) Require(secret string) error {
	if !g.Configured() {
		return ErrNoSecret
	}
	if !g.CheckCredential(secret) {
		return ErrUnauthorized
	}
	return nil
}

// HashSecret produces the value to place in CBOT_ADMIN_SECRET_HASH.
func HashSecret(secret string) (string, error) {
	if strings.TrimSpace(secret) == "" {
		return "", errors.New("auth: secret must not be empty")
	}
	h, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash secret: %w", err)
	}
	return string(h), nil
}

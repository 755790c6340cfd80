// Package security holds the shared-secret verifier guarding the ingest and
// query surfaces.
package security

import (
	"crypto/subtle"
	"errors"
)

var (
	// ErrNotConfigured means no API key was provided at startup; the server
	// must refuse authenticated traffic rather than run open.
	ErrNotConfigured = errors.New("security: api key not configured")

	// ErrInvalidKey means the presented key does not match the configured one.
	ErrInvalidKey = errors.New("security: invalid api key")
)

// KeyVerifier compares presented API keys against a single configured secret
// in constant time.
type KeyVerifier struct {
	key []byte
}

// NewKeyVerifier returns a verifier for the given secret. An empty secret is
// allowed at construction; Verify then fails with ErrNotConfigured.
func NewKeyVerifier(key string) *KeyVerifier {
	return &KeyVerifier{key: []byte(key)}
}

// Configured reports whether a non-empty key was set.
func (v *KeyVerifier) Configured() bool {
	return len(v.key) > 0
}

// Verify checks presented against the configured key. The comparison is
// constant time so response timing leaks nothing about the secret.
func (v *KeyVerifier) Verify(presented string) error {
	if !v.Configured() {
		return ErrNotConfigured
	}
	if subtle.ConstantTimeCompare(v.key, []byte(presented)) != 1 {
		return ErrInvalidKey
	}
	return nil
}

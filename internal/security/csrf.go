package security

import (
	"crypto/hmac"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sync"
)

var ErrInvalidToken = errors.New("invalid CSRF token")

// TokenManager holds the CSRF token of the shell. There is a single local
// principal, so one token is kept in memory and rotated whenever the session
// changes hands. Browsers read it from GET /api/csrf-token, which the CORS
// policy keeps out of reach of foreign origins.
type TokenManager struct {
	mu    sync.RWMutex
	token string
}

// NewTokenManager creates a manager holding a fresh token
func NewTokenManager() (*TokenManager, error) {
	tm := &TokenManager{}
	if _, err := tm.Rotate(); err != nil {
		return nil, err
	}
	return tm, nil
}

// Generate returns a random 256-bit token as 64 hex characters
func (tm *TokenManager) Generate() (string, error) {
	randomBytes := make([]byte, 32)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(randomBytes), nil
}

// Token returns the current token
func (tm *TokenManager) Token() string {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return tm.token
}

// Rotate replaces the current token and returns the new one
func (tm *TokenManager) Rotate() (string, error) {
	token, err := tm.Generate()
	if err != nil {
		return "", err
	}
	tm.mu.Lock()
	tm.token = token
	tm.mu.Unlock()
	return token, nil
}

// Verify compares submitted with the current token in constant time
func (tm *TokenManager) Verify(submitted string) error {
	current := tm.Token()
	if submitted == "" || current == "" || !hmac.Equal([]byte(current), []byte(submitted)) {
		return ErrInvalidToken
	}
	return nil
}

// Package auth issues and resolves session tokens. Sessions live in memory:
// a restart logs everyone out, which is acceptable for a single-authority
// service whose durable state is the chain.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
)

// CookieName is the session cookie the front-end sends back.
const CookieName = "session"

// Sessions maps opaque tokens to usernames.
type Sessions struct {
	mu      sync.Mutex
	byToken map[string]string
}

func NewSessions() *Sessions {
	return &Sessions{byToken: make(map[string]string)}
}

// Issue creates a fresh token bound to username.
func (s *Sessions) Issue(username string) string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic(err) // crypto/rand never fails on a sane platform
	}
	token := hex.EncodeToString(b)
	s.mu.Lock()
	s.byToken[token] = username
	s.mu.Unlock()
	return token
}

// Resolve returns the username bound to token.
func (s *Sessions) Resolve(token string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	username, ok := s.byToken[token]
	return username, ok
}

// Revoke drops the session for token, if any.
func (s *Sessions) Revoke(token string) {
	s.mu.Lock()
	delete(s.byToken, token)
	s.mu.Unlock()
}

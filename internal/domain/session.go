package domain

import (
	"sync"
	"time"
)

// Session is the per-connection state machine. A session starts
// unauthenticated; a successful handshake attaches an Identity. "Not yet
// authenticated" is a distinct state observed through the (Identity, bool)
// accessor, never a nil field checked ad hoc by callers.
type Session struct {
	ConnID    string
	CreatedAt time.Time

	mu           sync.RWMutex
	identity     *Identity
	lastActiveAt time.Time
}

// NewSession creates a session for a connection that has not completed the
// handshake yet.
func NewSession(connID string) *Session {
	now := time.Now()
	return &Session{
		ConnID:       connID,
		CreatedAt:    now,
		lastActiveAt: now,
	}
}

// Authenticate transitions the session into the authenticated state.
func (s *Session) Authenticate(id Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = &id
	s.lastActiveAt = time.Now()
}

// Identity returns the resolved actor and whether the handshake completed.
func (s *Session) Identity() (Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return Identity{}, false
	}
	return *s.identity, true
}

// UpdateActivity records traffic on the connection.
func (s *Session) UpdateActivity() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActiveAt = time.Now()
}

// LastActiveAt returns the time of the most recent traffic.
func (s *Session) LastActiveAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActiveAt
}

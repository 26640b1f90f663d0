package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/desertthunder/ytlists/internal/models"
)

// tokenBytes gives 256 bits of entropy per token.
const tokenBytes = 32

// ErrSessionStoreClosed is returned by [SessionStore.Create] after [SessionStore.Close].
var ErrSessionStoreClosed = errors.New("session store closed")

// SessionStore maps opaque tokens to usernames for the life of the process.
//
// Sessions are never persisted and never expire; they end on [SessionStore.Destroy] or when the
// store is closed.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]models.Session
	closed   bool
	now      func() time.Time
}

// NewSessionStore creates an empty [SessionStore].
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]models.Session), now: time.Now}
}

// Create starts a session for username and returns its token.
func (s *SessionStore) Create(username string) (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	token := hex.EncodeToString(buf)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", ErrSessionStoreClosed
	}
	s.sessions[token] = models.Session{Token: token, Username: username, CreatedAt: s.now()}
	return token, nil
}

// Resolve looks up the session for token.
func (s *SessionStore) Resolve(token string) (models.Session, bool) {
	if token == "" {
		return models.Session{}, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[token]
	return sess, ok
}

// Destroy ends the session for token. Unknown tokens are ignored.
func (s *SessionStore) Destroy(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close drops every session. Later calls to Create fail.
func (s *SessionStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = make(map[string]models.Session)
	s.closed = true
	return nil
}

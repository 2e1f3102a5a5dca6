package session

import (
	"context"
	"sync"
	"time"

	"github.com/iliyamo/retentionai/internal/utils"
)

// MemoryStore keeps sessions in process memory. Sessions are lost on restart
// and not shared between instances; use it for development and tests.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]Session
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]Session), now: time.Now}
}

func (s *MemoryStore) Create(_ context.Context, sess Session) (string, error) {
	token, err := utils.RandomHex(tokenBytes)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = sess
	return token, nil
}

func (s *MemoryStore) Load(_ context.Context, token string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[token]
	if !ok {
		return Session{}, ErrNoSession
	}
	if !sess.ExpiresAt.IsZero() && s.now().After(sess.ExpiresAt) {
		delete(s.sessions, token)
		return Session{}, ErrNoSession
	}
	return sess, nil
}

func (s *MemoryStore) Replace(_ context.Context, token string, sess Session) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.sessions[token]
	if !ok {
		return "", ErrNoSession
	}
	sess.ExpiresAt = prev.ExpiresAt
	s.sessions[token] = sess
	return token, nil
}

func (s *MemoryStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

// RevokeAccount drops every session of accountID.
func (s *MemoryStore) RevokeAccount(_ context.Context, accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, sess := range s.sessions {
		if sess.AccountID == accountID {
			delete(s.sessions, token)
		}
	}
	return nil
}

// Len returns the number of stored sessions, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

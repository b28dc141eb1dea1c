// Package session keeps the authenticated user's credentials and persists
// them so a restarted client picks up where it left off.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Durable storage keys. They are always written and removed together.
const (
	KeyToken    = "token"
	KeyUserID   = "userId"
	KeyUsername = "username"
)

// ErrIncompleteSession is returned by Set when any field is empty.
var ErrIncompleteSession = errors.New("session: token, user id and username are all required")

// Session is the client's proof of authentication.
type Session struct {
	Token    string `json:"token"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

func (s Session) complete() bool {
	return s.Token != "" && s.UserID != "" && s.Username != ""
}

func (s Session) values() map[string]string {
	return map[string]string{
		KeyToken:    s.Token,
		KeyUserID:   s.UserID,
		KeyUsername: s.Username,
	}
}

// Backend persists the session keys. Save and Clear must apply to all keys
// as one unit: after either returns, no mix of old and new values is visible.
type Backend interface {
	Load(ctx context.Context) (map[string]string, error)
	Save(ctx context.Context, values map[string]string) error
	Clear(ctx context.Context) error
	Close() error
}

// Store owns the current session. All reads and writes go through it.
type Store struct {
	mu      sync.RWMutex
	backend Backend
	current *Session
	log     *slog.Logger
}

// Open restores the session from the backend. A session is restored only when
// token, user id and username are all present; otherwise the store starts empty.
func Open(ctx context.Context, backend Backend, log *slog.Logger) (*Store, error) {
	values, err := backend.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}

	s := &Store{backend: backend, log: log}
	restored := Session{
		Token:    values[KeyToken],
		UserID:   values[KeyUserID],
		Username: values[KeyUsername],
	}
	if restored.complete() {
		s.current = &restored
		log.Debug("session restored", "username", restored.Username)
	} else if len(values) > 0 {
		log.Warn("ignoring incomplete stored session", "keys", len(values))
	}
	return s, nil
}

// Get returns the current session, if any.
func (s *Store) Get() (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return Session{}, false
	}
	return *s.current, true
}

// Token returns the current token for authenticated requests.
func (s *Store) Token() (string, bool) {
	sess, ok := s.Get()
	return sess.Token, ok
}

// Set replaces the current session and persists it before returning.
// The in-memory copy only changes once the backend write succeeded.
func (s *Store) Set(ctx context.Context, sess Session) error {
	if !sess.complete() {
		return ErrIncompleteSession
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backend.Save(ctx, sess.values()); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	s.current = &sess
	s.log.Info("session stored", "username", sess.Username)
	return nil
}

// Clear removes the session and all of its durable entries.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backend.Clear(ctx); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	s.current = nil
	s.log.Info("session cleared")
	return nil
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

// Memory keeps session values in process memory. Used for tests and
// ephemeral runs where nothing should touch disk.
type Memory struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemory returns an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{values: map[string]string{}}
}

func (m *Memory) Load(context.Context) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out, nil
}

func (m *Memory) Save(_ context.Context, values map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values = make(map[string]string, len(values))
	for k, v := range values {
		m.values[k] = v
	}
	return nil
}

func (m *Memory) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values = map[string]string{}
	return nil
}

func (m *Memory) Close() error { return nil }

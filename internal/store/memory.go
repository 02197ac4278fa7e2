package store

import (
	"context"
	"sync"
	"time"

	domain "github.com/donaldgifford/pos-inventory-dashboard/pkg/types"
)

// MemoryStore keeps credentials and sessions in process memory. It is lost
// on restart.
type MemoryStore struct {
	mu       sync.Mutex
	creds    domain.Credentials
	sessions map[string]memorySession
	nowFunc  func() time.Time
}

type memorySession struct {
	session   domain.OAuthSession
	expiresAt time.Time
}

// MemoryOption configures the MemoryStore.
type MemoryOption func(*MemoryStore)

// WithMemoryNowFunc overrides the time function for testing.
func WithMemoryNowFunc(f func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		s.nowFunc = f
	}
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		sessions: make(map[string]memorySession),
		nowFunc:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load implements CredentialStore.
func (s *MemoryStore) Load(_ context.Context) (domain.Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.creds == nil {
		return nil, ErrNotFound
	}
	return s.creds, nil
}

// Save implements CredentialStore.
func (s *MemoryStore) Save(_ context.Context, creds domain.Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.creds = creds
	return nil
}

// Clear implements CredentialStore.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.creds = nil
	return nil
}

// Put implements SessionStore. Expired sessions are swept on each Put.
func (s *MemoryStore) Put(_ context.Context, session *domain.OAuthSession, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowFunc()
	for state, ms := range s.sessions {
		if !now.Before(ms.expiresAt) {
			delete(s.sessions, state)
		}
	}

	s.sessions[session.State] = memorySession{session: *session, expiresAt: now.Add(ttl)}
	return nil
}

// Take implements SessionStore.
func (s *MemoryStore) Take(_ context.Context, state string) (*domain.OAuthSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ms, ok := s.sessions[state]
	if !ok {
		return nil, ErrNotFound
	}
	delete(s.sessions, state)

	if !s.nowFunc().Before(ms.expiresAt) {
		return nil, ErrNotFound
	}
	session := ms.session
	return &session, nil
}

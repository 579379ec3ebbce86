package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/funnel/pkg/domain"
)

// Store keeps sessions in process memory. Sessions idle for longer than the
// TTL are dropped lazily on access. Safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

type entry struct {
	session   *domain.Session
	expiresAt time.Time
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithTTL expires sessions not saved for ttl. Zero keeps them forever.
func WithTTL(ttl time.Duration) StoreOption {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates an empty in-memory store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		entries: make(map[string]entry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save stores a private copy of session and refreshes its expiry.
func (s *Store) Save(ctx context.Context, sessionID string, session *domain.Session) error {
	e := entry{session: session.Snapshot()}
	if s.ttl > 0 {
		e.expiresAt = s.now().Add(s.ttl)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[sessionID] = e
	return nil
}

// Load returns a copy of the session, so callers never share stored state.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	s.mu.RLock()
	e, ok := s.entries[sessionID]
	s.mu.RUnlock()

	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	if s.expired(e) {
		s.mu.Lock()
		// Re-check: a concurrent Save may have refreshed it.
		if cur, ok := s.entries[sessionID]; ok && s.expired(cur) {
			delete(s.entries, sessionID)
		}
		s.mu.Unlock()
		return nil, domain.ErrSessionNotFound
	}
	return e.session.Snapshot(), nil
}

// Delete removes the session. Deleting an unknown id is not an error.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, sessionID)
	return nil
}

// List returns live session ids in sorted order and prunes expired ones.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.entries))
	for id, e := range s.entries {
		if s.expired(e) {
			delete(s.entries, id)
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *Store) expired(e entry) bool {
	return !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt)
}

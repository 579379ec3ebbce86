package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/funnel/pkg/adapters/memory"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/ports"
	"github.com/aretw0/funnel/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SlowStore simulates latency to provoke race conditions if locking is missing.
type SlowStore struct {
	ports.StateStore
}

func (s *SlowStore) Save(ctx context.Context, sessionID string, v *domain.Session) error {
	time.Sleep(2 * time.Millisecond)
	return s.StateStore.Save(ctx, sessionID, v)
}

func (s *SlowStore) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	time.Sleep(2 * time.Millisecond)
	return s.StateStore.Load(ctx, sessionID)
}

func TestManager_UpdateSerializes(t *testing.T) {
	store := &SlowStore{StateStore: memory.NewStore()}
	manager := session.NewManager(store)
	ctx := context.Background()
	id := "race-test"

	require.NoError(t, manager.Create(ctx, domain.NewSession(id, "camp-1")))

	var wg sync.WaitGroup
	const writers = 10
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := manager.Update(ctx, id, func(s *domain.Session) (*domain.Session, error) {
				next := s.Snapshot()
				next.Form.Rating++
				return next, nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	s, err := manager.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, writers, s.Form.Rating, "no update may be lost")
}

func TestManager_UpdateErrorSkipsSave(t *testing.T) {
	manager := session.NewManager(memory.NewStore())
	ctx := context.Background()
	require.NoError(t, manager.Create(ctx, domain.NewSession("s1", "camp-1")))

	boom := errors.New("boom")
	_, err := manager.Update(ctx, "s1", func(s *domain.Session) (*domain.Session, error) {
		s.Form.Name = "leaked"
		return s, boom
	})
	assert.ErrorIs(t, err, boom)

	s, err := manager.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, s.Form.Name)
}

func TestManager_UpdateMissing(t *testing.T) {
	manager := session.NewManager(memory.NewStore())
	_, err := manager.Update(context.Background(), "nope", func(s *domain.Session) (*domain.Session, error) {
		return s, nil
	})
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestManager_CreateIsExclusive(t *testing.T) {
	manager := session.NewManager(memory.NewStore())
	ctx := context.Background()

	require.NoError(t, manager.Create(ctx, domain.NewSession("s1", "camp-1")))
	err := manager.Create(ctx, domain.NewSession("s1", "camp-1"))
	assert.ErrorIs(t, err, session.ErrSessionExists)
}

type countingLocker struct {
	mu       sync.Mutex
	locks    int
	unlocks  int
	lastTTL  time.Duration
	failWith error
}

func (l *countingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failWith != nil {
		return nil, l.failWith
	}
	l.locks++
	l.lastTTL = ttl
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.unlocks++
		return nil
	}, nil
}

func TestManager_DistributedLock(t *testing.T) {
	locker := &countingLocker{}
	manager := session.NewManager(memory.NewStore(), session.WithLocker(locker), session.WithLockTTL(5*time.Second))
	ctx := context.Background()

	require.NoError(t, manager.Create(ctx, domain.NewSession("s1", "camp-1")))
	_, err := manager.Load(ctx, "s1")
	require.NoError(t, err)

	assert.Equal(t, 2, locker.locks)
	assert.Equal(t, 2, locker.unlocks)
	assert.Equal(t, 5*time.Second, locker.lastTTL)

	locker.failWith = errors.New("redis down")
	_, err = manager.Load(ctx, "s1")
	assert.ErrorContains(t, err, "failed to acquire distributed lock")
}

package funnel

import (
	"log/slog"
	"sync"

	"github.com/aretw0/funnel/pkg/domain"
)

// streamBuffer is how many diffs a slow subscriber may fall behind.
const streamBuffer = 16

// streams fans session diffs out to subscribers, such as SSE clients or
// other tabs driving the same session.
type streams struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan *domain.SessionDiff]struct{}
	logger      *slog.Logger
}

func newStreams(logger *slog.Logger) *streams {
	return &streams{
		subscribers: make(map[string]map[chan *domain.SessionDiff]struct{}),
		logger:      logger,
	}
}

func (sm *streams) subscribe(sessionID string) (<-chan *domain.SessionDiff, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan *domain.SessionDiff, streamBuffer)
	if _, ok := sm.subscribers[sessionID]; !ok {
		sm.subscribers[sessionID] = make(map[chan *domain.SessionDiff]struct{})
	}
	sm.subscribers[sessionID][ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			if subs, ok := sm.subscribers[sessionID]; ok {
				if _, live := subs[ch]; live {
					delete(subs, ch)
					close(ch)
				}
				if len(subs) == 0 {
					delete(sm.subscribers, sessionID)
				}
			}
		})
	}
}

func (sm *streams) broadcast(sessionID string, diff *domain.SessionDiff) {
	if diff == nil {
		return
	}
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[sessionID] {
		select {
		case ch <- diff:
		default:
			sm.logger.Warn("Subscriber buffer full, dropping diff", "session_id", sessionID)
		}
	}
}

// close ends every subscription of a session.
func (sm *streams) close(sessionID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	for ch := range sm.subscribers[sessionID] {
		close(ch)
	}
	delete(sm.subscribers, sessionID)
}

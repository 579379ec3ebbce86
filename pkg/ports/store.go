package ports

import (
	"context"

	"github.com/aretw0/funnel/pkg/domain"
)

// StateStore holds live funnel sessions between requests.
// It is an ephemeral cache keyed by session id, not a durable record.
type StateStore interface {
	// Save persists the session under its id.
	Save(ctx context.Context, sessionID string, session *domain.Session) error

	// Load retrieves the session for a given id.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.Session, error)

	// Delete removes the session for a given id.
	Delete(ctx context.Context, sessionID string) error

	// List returns the ids of live sessions.
	List(ctx context.Context) ([]string, error)
}

package ports

import (
	"context"
	"time"

	"github.com/videocall/room-access/internal/core/domain"
)

// SessionStore persists sessions. Implementations must make every operation
// on a single session linearizable and must not serialize operations on
// different sessions behind one lock.
type SessionStore interface {
	// Get returns domain.ErrSessionNotFound for unknown or expired sessions.
	Get(ctx context.Context, id string) (*domain.Session, error)
	Put(ctx context.Context, sess *domain.Session) error
	// Delete is idempotent.
	Delete(ctx context.Context, id string) error
	// Touch records activity at now and moves the expiry to expiresAt.
	// It returns domain.ErrSessionNotFound when the session is gone.
	Touch(ctx context.Context, id string, now, expiresAt time.Time) error
}

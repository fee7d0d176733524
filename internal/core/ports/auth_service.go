package ports

import (
	"context"

	"github.com/videocall/room-access/internal/core/domain"
)

// AuthService is the session authenticator for registered users.
type AuthService interface {
	Login(ctx context.Context, current *domain.Session, username, password string) (*domain.Session, error)
	Logout(ctx context.Context, sessionID string) error
	Status(ctx context.Context, sessionID string) (bool, error)
	// Lookup loads a live session without touching it.
	Lookup(ctx context.Context, sessionID string) (*domain.Session, error)
	// Resolve loads a live session and records activity on it.
	Resolve(ctx context.Context, sessionID string) (*domain.Session, error)
}

package ports

import (
	"context"

	"github.com/videocall/room-access/internal/core/domain"
)

// UserRepository is the identity store for registered principals.
type UserRepository interface {
	// FindByUsername returns domain.ErrUserNotFound when no account matches.
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
}

package ports

import (
	"context"

	"github.com/videocall/room-access/internal/core/domain"
)

// GuestService mints room-scoped guest tokens and exchanges them for sessions.
type GuestService interface {
	IssueGuestToken(ctx context.Context, caller *domain.Session, roomID string) (string, error)
	ValidateAndBind(ctx context.Context, current *domain.Session, token string) (*domain.Session, error)
}

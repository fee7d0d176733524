package ports

import (
	"context"

	"github.com/videocall/room-access/internal/core/domain"
)

// AuditRepository persists auth audit events.
type AuditRepository interface {
	InsertEvent(ctx context.Context, event *domain.AuthEvent) error
}

// AuditPublisher accepts audit events without blocking the caller.
type AuditPublisher interface {
	Publish(event domain.AuthEvent)
}

package ports

import (
	"time"

	"github.com/videocall/room-access/internal/core/domain"
)

// TokenIssuer mints signed guest tokens.
type TokenIssuer interface {
	Issue(claims domain.GuestClaims, ttl time.Duration) (string, error)
}

// TokenVerifier checks a signed token and returns its claims, or an error
// wrapping domain.ErrInvalidToken.
type TokenVerifier interface {
	Verify(raw string) (domain.GuestClaims, error)
}

// TokenCodec is both halves of the signed token format.
type TokenCodec interface {
	TokenIssuer
	TokenVerifier
}

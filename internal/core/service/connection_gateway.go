package service

import (
	"strings"

	"github.com/videocall/room-access/internal/core/domain"
	"github.com/videocall/room-access/internal/core/ports"
	"github.com/videocall/room-access/internal/core/token"
)

// ConnectionGateway decides the auth context of a streaming connection
// upgrade. It never rejects: a missing or bad token degrades the connection
// to anonymous and later stages decide whether anonymous access is enough.
// Request/response validation of the same token is strict; the asymmetry
// is intended.
type ConnectionGateway struct {
	verifier ports.TokenVerifier
}

func NewConnectionGateway(verifier ports.TokenVerifier) *ConnectionGateway {
	return &ConnectionGateway{verifier: verifier}
}

// Authenticate is a pure function of the token and the verifier's clock.
func (g *ConnectionGateway) Authenticate(raw string) domain.ConnectionAuthContext {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return domain.AnonymousConnection(domain.ReasonMissingToken)
	}

	claims, err := g.verifier.Verify(raw)
	if err != nil {
		return domain.AnonymousConnection(token.Reason(err))
	}
	if !claims.IsGuest || claims.RoomID == "" {
		return domain.AnonymousConnection(domain.ReasonMissingClaims)
	}
	return domain.GuestConnection(claims.Subject, claims.RoomID)
}

package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/videocall/room-access/internal/api/middleware"
	"github.com/videocall/room-access/internal/core/domain"
)

// ctxSession returns the caller's live session, or nil when the request is
// unauthenticated. Handlers never reject on a nil session themselves; the
// services decide what an absent caller may do.
func ctxSession(c echo.Context) *domain.Session {
	return middleware.SessionFrom(c)
}

// ctxConnection returns the streaming auth context. Plain requests carry
// none and read as anonymous.
func ctxConnection(c echo.Context) domain.ConnectionAuthContext {
	ac, _ := domain.ConnectionAuthFrom(c.Request().Context())
	return ac
}

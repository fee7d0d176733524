package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/videocall/room-access/internal/core/domain"
)

// Principal kinds accepted by RequireKind.
const (
	KindRegistered = "registered"
	KindGuest      = "guest"
)

// RequireKind admits only requests whose authenticated session carries one of
// the given principal kinds.
func RequireKind(allowedKinds ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(allowedKinds))
	for _, k := range allowedKinds {
		allowed[k] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := allowed[principalKind(SessionFrom(c))]; !ok {
				return c.JSON(http.StatusForbidden, map[string]string{"error": domain.ErrUnauthorized.Error()})
			}
			return next(c)
		}
	}
}

func principalKind(sess *domain.Session) string {
	if sess == nil || !sess.Authenticated {
		return ""
	}
	switch sess.Principal.(type) {
	case domain.GuestPrincipal:
		return KindGuest
	case domain.RegisteredPrincipal:
		if sess.IsGuest {
			return ""
		}
		return KindRegistered
	}
	return ""
}

package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/videocall/room-access/internal/core/domain"
)

// Context keys set by Session.
const (
	ContextSession   = "session"
	ContextSessionID = "session_id"
)

// SessionResolver loads the live session behind a cookie value and records
// activity on it.
type SessionResolver interface {
	Resolve(ctx context.Context, sessionID string) (*domain.Session, error)
}

// SessionReader loads the live session behind a cookie value without side
// effects.
type SessionReader interface {
	Lookup(ctx context.Context, sessionID string) (*domain.Session, error)
}

// Session loads the session named by the cookie, slides its expiry and
// re-issues the cookie so the client keeps it as long as the server does.
// Requests without a live session continue unauthenticated; only a session
// store failure stops the request.
func Session(resolver SessionResolver, cookie SessionCookie, log zerolog.Logger) echo.MiddlewareFunc {
	return loadSession(cookie.Name, log, func(c echo.Context, id string) (*domain.Session, error) {
		sess, err := resolver.Resolve(c.Request().Context(), id)
		if err != nil {
			return nil, err
		}
		cookie.Set(c, sess)
		return sess, nil
	})
}

// ReadSession is Session for status reads: the session is injected but
// neither touched nor re-issued.
func ReadSession(reader SessionReader, cookieName string, log zerolog.Logger) echo.MiddlewareFunc {
	return loadSession(cookieName, log, func(c echo.Context, id string) (*domain.Session, error) {
		return reader.Lookup(c.Request().Context(), id)
	})
}

func loadSession(
	cookieName string,
	log zerolog.Logger,
	load func(c echo.Context, id string) (*domain.Session, error),
) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				return next(c)
			}
			c.Set(ContextSessionID, cookie.Value)

			sess, err := load(c, cookie.Value)
			switch {
			case errors.Is(err, domain.ErrSessionNotFound):
				return next(c)
			case err != nil:
				log.Error().Err(err).Str("path", c.Path()).Msg("session lookup failed")
				return echo.NewHTTPError(http.StatusServiceUnavailable, "session store unavailable")
			}

			c.Set(ContextSession, sess)
			return next(c)
		}
	}
}

// SessionFrom returns the session injected by Session, or nil.
func SessionFrom(c echo.Context) *domain.Session {
	sess, _ := c.Get(ContextSession).(*domain.Session)
	return sess
}

// SessionIDFrom returns the raw session cookie value, even when the session
// it names is gone.
func SessionIDFrom(c echo.Context) string {
	id, _ := c.Get(ContextSessionID).(string)
	return id
}

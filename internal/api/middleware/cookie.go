package middleware

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/videocall/room-access/internal/core/domain"
)

// SessionCookie describes the cookie carrying the session ID.
type SessionCookie struct {
	Name   string
	Secure bool
}

// Set writes the cookie for sess with Max-Age running to the session expiry.
func (sc SessionCookie) Set(c echo.Context, sess *domain.Session) {
	maxAge := int(time.Until(sess.ExpiresAt).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}
	c.SetCookie(&http.Cookie{
		Name:     sc.Name,
		Value:    sess.ID,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   sc.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear tells the client to drop the cookie.
func (sc SessionCookie) Clear(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     sc.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   sc.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

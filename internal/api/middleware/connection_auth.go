package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/videocall/room-access/internal/api/metrics"
	"github.com/videocall/room-access/internal/core/domain"
	"github.com/videocall/room-access/internal/core/ports"
)

// GuestTokenParam is the query parameter carrying a guest token on
// streaming upgrades.
const GuestTokenParam = "guest_token"

// ConnectionAuthenticator decides the auth context of a streaming connection.
type ConnectionAuthenticator interface {
	Authenticate(raw string) domain.ConnectionAuthContext
}

// ConnectionAuth attaches a domain.ConnectionAuthContext to the request
// context of every streaming upgrade. It never rejects: a missing or invalid
// token admits the connection as anonymous and room-level checks decide what
// anonymous callers may do.
func ConnectionAuth(gw ConnectionAuthenticator, audit ports.AuditPublisher, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := c.QueryParam(GuestTokenParam)
			ac := gw.Authenticate(raw)

			req := c.Request()
			c.SetRequest(req.WithContext(domain.WithConnectionAuth(req.Context(), ac)))

			metrics.ConnectionAdmissionsTotal.WithLabelValues(string(ac.State), ac.Reason).Inc()
			switch {
			case ac.State == domain.AdmittedGuest:
				log.Debug().Str("room_id", ac.RoomID).Str("guest", ac.Principal.PrincipalID()).Msg("connection admitted as guest")
			case ac.Reason == domain.ReasonMissingToken:
				log.Debug().Str("path", req.URL.Path).Msg("connection admitted anonymously")
			default:
				log.Warn().Str("reason", ac.Reason).Str("path", req.URL.Path).Str("remote_ip", c.RealIP()).
					Msg("guest token rejected, connection degraded to anonymous")
			}

			if audit != nil {
				event := domain.AuthEvent{
					Kind:       domain.EventConnectionAdmit,
					RoomID:     ac.RoomID,
					Outcome:    string(ac.State),
					Reason:     ac.Reason,
					RemoteAddr: c.RealIP(),
					At:         time.Now().UTC(),
				}
				if ac.Principal != nil {
					event.Subject = ac.Principal.PrincipalID()
				}
				audit.Publish(event)
			}
			return next(c)
		}
	}
}

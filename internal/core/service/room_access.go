package service

import (
	"github.com/videocall/room-access/internal/core/domain"
)

// RoomPolicy enforces room scope for anything that enters a room.
type RoomPolicy struct {
	// AllowAnonymous admits connections that carry neither a guest token
	// nor an authenticated session.
	AllowAnonymous bool
}

// AuthorizeRoom decides whether a caller may enter roomID. conn is the
// connection context (zero for request/response calls) and sess the
// caller's session, which may be nil.
//
// A guest is admitted only to the room its token or session was scoped to.
func (p RoomPolicy) AuthorizeRoom(conn domain.ConnectionAuthContext, sess *domain.Session, roomID string) error {
	if roomID == "" {
		return domain.ErrMissingRoom
	}

	if conn.State == domain.AdmittedGuest {
		if conn.IsGuest && conn.RoomID == roomID {
			return nil
		}
		return domain.ErrForbidden
	}

	if sess != nil && sess.Authenticated {
		if room, ok := sess.GuestRoom(); ok {
			if room == roomID {
				return nil
			}
			return domain.ErrForbidden
		}
		if sess.IsGuest {
			return domain.ErrForbidden
		}
		return nil
	}

	if p.AllowAnonymous {
		return nil
	}
	return domain.ErrUnauthorized
}

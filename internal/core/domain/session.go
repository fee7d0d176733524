package domain

import "time"

// Session is the server-side record behind a session cookie.
type Session struct {
	ID            string
	Principal     Principal
	Authenticated bool
	IsGuest       bool
	CreatedAt     time.Time
	LastTouchedAt time.Time
	ExpiresAt     time.Time
	// HardExpiresAt caps sliding renewal. It is set for guest sessions to the
	// expiry of the token they were bound from; zero means uncapped.
	HardExpiresAt time.Time
}

// Expired reports whether the session is no longer usable at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// NextExpiry returns the expiry a touch at now would set for the given TTL.
func (s *Session) NextExpiry(now time.Time, ttl time.Duration) time.Time {
	next := now.Add(ttl)
	if !s.HardExpiresAt.IsZero() && next.After(s.HardExpiresAt) {
		return s.HardExpiresAt
	}
	return next
}

// GuestRoom returns the room a guest session is scoped to.
func (s *Session) GuestRoom() (string, bool) {
	if s == nil || !s.IsGuest {
		return "", false
	}
	g, ok := AsGuest(s.Principal)
	if !ok {
		return "", false
	}
	return g.RoomID, true
}

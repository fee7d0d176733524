package domain

import "time"

// AuthEventKind classifies entries in the auth audit trail.
type AuthEventKind string

const (
	EventLogin            AuthEventKind = "login"
	EventLogout           AuthEventKind = "logout"
	EventGuestIssued      AuthEventKind = "guest_token_issued"
	EventGuestBound       AuthEventKind = "guest_token_bound"
	EventConnectionAdmit  AuthEventKind = "connection_admitted"
	EventRoomAccessDenied AuthEventKind = "room_access_denied"
)

// AuthEvent is one audit record. Subject is the principal ID when known.
type AuthEvent struct {
	Kind       AuthEventKind
	Subject    string
	RoomID     string
	Outcome    string
	Reason     string
	RemoteAddr string
	At         time.Time
}

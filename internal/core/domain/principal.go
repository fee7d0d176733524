package domain

// Principal is the identity attached to a session or a streaming connection.
// It is implemented only by RegisteredPrincipal and GuestPrincipal.
type Principal interface {
	// PrincipalID is the user ID for registered principals and the
	// synthetic subject for guests.
	PrincipalID() string
	isPrincipal()
}

// RegisteredPrincipal is a user known to the identity store.
type RegisteredPrincipal struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

func (p RegisteredPrincipal) PrincipalID() string { return p.ID }
func (RegisteredPrincipal) isPrincipal()          {}

// GuestPrincipal is admitted to exactly one room through a guest token.
// It is never written to the identity store.
type GuestPrincipal struct {
	SyntheticID string `json:"synthetic_id"`
	RoomID      string `json:"room_id"`
}

func (p GuestPrincipal) PrincipalID() string { return p.SyntheticID }
func (GuestPrincipal) isPrincipal()          {}

// AsGuest returns the guest case of p, if any.
func AsGuest(p Principal) (GuestPrincipal, bool) {
	g, ok := p.(GuestPrincipal)
	return g, ok
}

// AsRegistered returns the registered case of p, if any.
func AsRegistered(p Principal) (RegisteredPrincipal, bool) {
	r, ok := p.(RegisteredPrincipal)
	return r, ok
}

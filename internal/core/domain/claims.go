package domain

import "time"

// TokenTypeAccess is the only token type minted for guests.
const TokenTypeAccess = "access"

// GuestClaims is the payload signed into a guest token.
type GuestClaims struct {
	ID        string
	Subject   string
	RoomID    string
	IsGuest   bool
	TokenType string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

package domain

import "time"

// User models a registered account in the identity store.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Principal returns the registered principal for u.
func (u *User) Principal() RegisteredPrincipal {
	return RegisteredPrincipal{ID: u.ID, Username: u.Username}
}

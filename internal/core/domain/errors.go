package domain

import "errors"

// Caller input.
var (
	ErrValidation  = errors.New("invalid request")
	ErrMissingRoom = errors.New("room id is required")
)

// Authentication and authorization.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("authentication required")
	ErrForbidden          = errors.New("access forbidden")
	ErrSessionNotFound    = errors.New("session not found")
)

// Referenced resources.
var (
	ErrRoomNotFound = errors.New("room not found")
	ErrUserNotFound = errors.New("user not found")
)

// ErrInvalidToken is the only category a token failure exposes to callers.
// The specific causes below wrap it so callers can match either level.
var (
	ErrInvalidToken      = errors.New("invalid token")
	ErrTokenMalformed    = tokenError("token is malformed")
	ErrTokenBadSignature = tokenError("token signature is invalid")
	ErrTokenExpired      = tokenError("token is expired")
	ErrNotAGuestToken    = errors.New("not a guest token")
)

// Collaborator failures. These map to 500 and are always logged.
var (
	ErrRoomLookup    = errors.New("room lookup failed")
	ErrSessionStore  = errors.New("session store failed")
	ErrIdentityStore = errors.New("identity store failed")
)

type tokenErr struct{ msg string }

func tokenError(msg string) error { return &tokenErr{msg: msg} }

func (e *tokenErr) Error() string { return e.msg }

func (e *tokenErr) Unwrap() error { return ErrInvalidToken }

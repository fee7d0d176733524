package domain

import "context"

// AdmissionState is the terminal state of one connection upgrade attempt.
type AdmissionState string

const (
	AdmittedGuest     AdmissionState = "admitted_guest"
	AdmittedAnonymous AdmissionState = "admitted_anonymous"
	// AdmissionRejected is only produced by the transport (a failed
	// handshake), never by token checks.
	AdmissionRejected AdmissionState = "rejected"
)

// Reasons recorded for anonymous admissions.
const (
	ReasonMissingToken  = "missing_token"
	ReasonMalformed     = "malformed"
	ReasonBadSignature  = "bad_signature"
	ReasonExpired       = "expired"
	ReasonMissingClaims = "missing_claims"
)

// ConnectionAuthContext is attached once per streaming connection and is
// read-only for every later stage.
type ConnectionAuthContext struct {
	State     AdmissionState
	IsGuest   bool
	RoomID    string
	Principal Principal
	// Reason explains an anonymous admission. Empty for guests.
	Reason string
}

// AnonymousConnection builds the degraded context.
func AnonymousConnection(reason string) ConnectionAuthContext {
	return ConnectionAuthContext{State: AdmittedAnonymous, Reason: reason}
}

// GuestConnection builds the context for a verified guest token.
func GuestConnection(subject, roomID string) ConnectionAuthContext {
	return ConnectionAuthContext{
		State:     AdmittedGuest,
		IsGuest:   true,
		RoomID:    roomID,
		Principal: GuestPrincipal{SyntheticID: subject, RoomID: roomID},
	}
}

type connAuthKey struct{}

// WithConnectionAuth returns a copy of ctx carrying ac.
func WithConnectionAuth(ctx context.Context, ac ConnectionAuthContext) context.Context {
	return context.WithValue(ctx, connAuthKey{}, ac)
}

// ConnectionAuthFrom returns the context attached by the gateway. A missing
// value reads as anonymous so later stages fail closed.
func ConnectionAuthFrom(ctx context.Context) (ConnectionAuthContext, bool) {
	ac, ok := ctx.Value(connAuthKey{}).(ConnectionAuthContext)
	if !ok {
		return AnonymousConnection(ReasonMissingToken), false
	}
	return ac, true
}

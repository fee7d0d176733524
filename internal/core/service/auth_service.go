package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/videocall/room-access/internal/core/domain"
	"github.com/videocall/room-access/internal/core/ports"
)

const (
	defaultSessionTTL = 24 * time.Hour
	sessionIDBytes    = 32
)

// dummyHash keeps the cost of a failed lookup close to a failed password
// comparison so response timing does not reveal which field was wrong.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("room-access-dummy-password"), bcrypt.DefaultCost)

// AuthService implements login, logout and session status for registered users.
type AuthService struct {
	users      ports.UserRepository
	sessions   ports.SessionStore
	audit      ports.AuditPublisher
	sessionTTL time.Duration
	now        func() time.Time
	log        zerolog.Logger
}

func NewAuthService(
	users ports.UserRepository,
	sessions ports.SessionStore,
	audit ports.AuditPublisher,
	sessionTTL time.Duration,
	log zerolog.Logger,
) *AuthService {
	if sessionTTL <= 0 {
		sessionTTL = defaultSessionTTL
	}
	if audit == nil {
		audit = nopAudit{}
	}
	return &AuthService{
		users:      users,
		sessions:   sessions,
		audit:      audit,
		sessionTTL: sessionTTL,
		now:        func() time.Time { return time.Now().UTC() },
		log:        log,
	}
}

// Login checks credentials and replaces current (if any) with a fresh session.
func (s *AuthService) Login(ctx context.Context, current *domain.Session, username, password string) (*domain.Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", domain.ErrValidation)
	}

	user, err := s.users.FindByUsername(ctx, username)
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, domain.ErrInvalidCredentials
	case err != nil:
		return nil, fmt.Errorf("%w: %w", domain.ErrIdentityStore, err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}

	now := s.now()
	sess, err := newSession(user.Principal(), false, now, now.Add(s.sessionTTL), time.Time{})
	if err != nil {
		return nil, err
	}
	if err := rotateSession(ctx, s.sessions, current, sess); err != nil {
		return nil, err
	}

	s.audit.Publish(domain.AuthEvent{Kind: domain.EventLogin, Subject: user.ID, Outcome: "success", At: now})
	s.log.Info().Str("user_id", user.ID).Msg("user logged in")
	return sess, nil
}

// Logout destroys the session. Unknown or empty IDs are not an error.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("%w: delete: %w", domain.ErrSessionStore, err)
	}
	s.audit.Publish(domain.AuthEvent{Kind: domain.EventLogout, Outcome: "success", At: s.now()})
	return nil
}

// Status reports whether sessionID names a live, authenticated session.
func (s *AuthService) Status(ctx context.Context, sessionID string) (bool, error) {
	sess, err := s.Lookup(ctx, sessionID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return sess.Authenticated, nil
}

// Lookup returns the live session without recording activity on it.
func (s *AuthService) Lookup(ctx context.Context, sessionID string) (*domain.Session, error) {
	if sessionID == "" {
		return nil, domain.ErrSessionNotFound
	}
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: get: %w", domain.ErrSessionStore, err)
	}
	if sess.Expired(s.now()) {
		return nil, domain.ErrSessionNotFound
	}
	return sess, nil
}

// Resolve returns the live session and slides its expiry.
func (s *AuthService) Resolve(ctx context.Context, sessionID string) (*domain.Session, error) {
	sess, err := s.Lookup(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	next := sess.NextExpiry(now, s.sessionTTL)
	if err := s.sessions.Touch(ctx, sess.ID, now, next); err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: touch: %w", domain.ErrSessionStore, err)
	}
	sess.LastTouchedAt = now
	sess.ExpiresAt = next
	return sess, nil
}

// SessionTTL is the configured inactivity window.
func (s *AuthService) SessionTTL() time.Duration { return s.sessionTTL }

func newSession(p domain.Principal, guest bool, now, expiresAt, hardExpiresAt time.Time) (*domain.Session, error) {
	id, err := newSessionID()
	if err != nil {
		return nil, err
	}
	return &domain.Session{
		ID:            id,
		Principal:     p,
		Authenticated: true,
		IsGuest:       guest,
		CreatedAt:     now,
		LastTouchedAt: now,
		ExpiresAt:     expiresAt,
		HardExpiresAt: hardExpiresAt,
	}, nil
}

// rotateSession stores next and drops current, so an identity change never
// reuses a session ID the client held before.
func rotateSession(ctx context.Context, store ports.SessionStore, current, next *domain.Session) error {
	if err := store.Put(ctx, next); err != nil {
		return fmt.Errorf("%w: put: %w", domain.ErrSessionStore, err)
	}
	if current != nil && current.ID != "" && current.ID != next.ID {
		if err := store.Delete(ctx, current.ID); err != nil {
			return fmt.Errorf("%w: delete previous: %w", domain.ErrSessionStore, err)
		}
	}
	return nil
}

func newSessionID() (string, error) {
	b := make([]byte, sessionIDBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating session id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

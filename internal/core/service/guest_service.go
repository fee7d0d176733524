package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/videocall/room-access/internal/core/domain"
	"github.com/videocall/room-access/internal/core/ports"
)

const (
	defaultGuestTokenTTL = time.Hour
	guestSubjectPrefix   = "guest_"
	guestSubjectHexLen   = 10
)

// GuestService mints room-scoped guest tokens and binds them to sessions.
type GuestService struct {
	rooms      ports.RoomLookup
	codec      ports.TokenCodec
	sessions   ports.SessionStore
	audit      ports.AuditPublisher
	guestTTL   time.Duration
	sessionTTL time.Duration
	now        func() time.Time
	log        zerolog.Logger
}

// GuestServiceConfig carries the lifetimes used by GuestService.
type GuestServiceConfig struct {
	GuestTokenTTL time.Duration
	SessionTTL    time.Duration
}

func NewGuestService(
	rooms ports.RoomLookup,
	codec ports.TokenCodec,
	sessions ports.SessionStore,
	audit ports.AuditPublisher,
	cfg GuestServiceConfig,
	log zerolog.Logger,
) *GuestService {
	if cfg.GuestTokenTTL <= 0 {
		cfg.GuestTokenTTL = defaultGuestTokenTTL
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = defaultSessionTTL
	}
	if audit == nil {
		audit = nopAudit{}
	}
	return &GuestService{
		rooms:      rooms,
		codec:      codec,
		sessions:   sessions,
		audit:      audit,
		guestTTL:   cfg.GuestTokenTTL,
		sessionTTL: cfg.SessionTTL,
		now:        func() time.Time { return time.Now().UTC() },
		log:        log,
	}
}

// IssueGuestToken mints a token for roomID on behalf of an authenticated,
// registered caller. Nothing is written: issuance is pure minting.
func (s *GuestService) IssueGuestToken(ctx context.Context, caller *domain.Session, roomID string) (string, error) {
	// The caller check comes first so an unauthenticated caller learns
	// nothing about which rooms exist.
	if caller == nil || !caller.Authenticated || caller.IsGuest {
		return "", domain.ErrUnauthorized
	}
	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		return "", domain.ErrMissingRoom
	}

	exists, err := s.rooms.Exists(ctx, roomID)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrRoomLookup, err)
	}
	if !exists {
		return "", domain.ErrRoomNotFound
	}

	subject := newGuestSubject()
	token, err := s.codec.Issue(domain.GuestClaims{
		Subject:   subject,
		RoomID:    roomID,
		IsGuest:   true,
		TokenType: domain.TokenTypeAccess,
	}, s.guestTTL)
	if err != nil {
		return "", fmt.Errorf("issue guest token: %w", err)
	}

	issuer := ""
	if caller.Principal != nil {
		issuer = caller.Principal.PrincipalID()
	}
	s.audit.Publish(domain.AuthEvent{
		Kind:    domain.EventGuestIssued,
		Subject: subject,
		RoomID:  roomID,
		Outcome: "success",
		Reason:  "issued_by:" + issuer,
		At:      s.now(),
	})
	s.log.Info().Str("room_id", roomID).Str("guest", subject).Str("issued_by", issuer).Msg("guest token issued")
	return token, nil
}

// ValidateAndBind exchanges a guest token for a guest session. The session
// never outlives the token.
func (s *GuestService) ValidateAndBind(ctx context.Context, current *domain.Session, raw string) (*domain.Session, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: token is required", domain.ErrValidation)
	}

	claims, err := s.codec.Verify(raw)
	if err != nil {
		s.log.Warn().Err(err).Msg("guest token rejected")
		return nil, domain.ErrInvalidToken
	}
	if !claims.IsGuest {
		return nil, domain.ErrNotAGuestToken
	}
	if claims.RoomID == "" || claims.Subject == "" {
		return nil, domain.ErrInvalidToken
	}

	now := s.now()
	if !now.Before(claims.ExpiresAt) {
		return nil, domain.ErrInvalidToken
	}

	principal := domain.GuestPrincipal{SyntheticID: claims.Subject, RoomID: claims.RoomID}
	sess, err := newSession(principal, true, now, now.Add(s.sessionTTL), claims.ExpiresAt)
	if err != nil {
		return nil, err
	}
	sess.ExpiresAt = sess.NextExpiry(now, s.sessionTTL)

	if err := rotateSession(ctx, s.sessions, current, sess); err != nil {
		return nil, err
	}

	s.audit.Publish(domain.AuthEvent{
		Kind:    domain.EventGuestBound,
		Subject: claims.Subject,
		RoomID:  claims.RoomID,
		Outcome: "success",
		At:      now,
	})
	return sess, nil
}

// IsClientError reports whether err is caused by the caller rather than a
// collaborator failure.
func IsClientError(err error) bool {
	for _, target := range []error{
		domain.ErrValidation,
		domain.ErrMissingRoom,
		domain.ErrInvalidCredentials,
		domain.ErrUnauthorized,
		domain.ErrForbidden,
		domain.ErrRoomNotFound,
		domain.ErrInvalidToken,
		domain.ErrNotAGuestToken,
		domain.ErrSessionNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func newGuestSubject() string {
	return guestSubjectPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")[:guestSubjectHexLen]
}

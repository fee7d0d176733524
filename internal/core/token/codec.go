// Package token encodes guest claims as HS256-signed JWTs and verifies them.
//
// Verification is binary: a token either yields its full claim set or one of
// domain.ErrTokenMalformed, domain.ErrTokenBadSignature, domain.ErrTokenExpired.
package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/videocall/room-access/internal/core/domain"
)

// minKeyLen matches the HS256 output size.
const minKeyLen = 32

// Config is fixed at construction and never mutated.
type Config struct {
	SigningKey []byte
	Issuer     string
	// Now overrides the clock. Defaults to time.Now.
	Now func() time.Time
}

// Codec is safe for concurrent use; it holds only immutable configuration.
type Codec struct {
	key    []byte
	issuer string
	now    func() time.Time
	parser *jwt.Parser
}

type guestJWTClaims struct {
	IsGuest   bool   `json:"is_guest"`
	RoomID    string `json:"room_id,omitempty"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// NewCodec validates cfg and builds a Codec.
func NewCodec(cfg Config) (*Codec, error) {
	if len(cfg.SigningKey) < minKeyLen {
		return nil, fmt.Errorf("token: signing key must be at least %d bytes", minKeyLen)
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	key := make([]byte, len(cfg.SigningKey))
	copy(key, cfg.SigningKey)

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(now),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	return &Codec{key: key, issuer: cfg.Issuer, now: now, parser: jwt.NewParser(opts...)}, nil
}

// Issue signs claims with iat=now and exp=now+ttl. Any times on claims are ignored.
//
// JWT NumericDate has whole-second precision, so iat and exp are truncated to
// the second: a token stops verifying up to one second before now+ttl, and
// Verify reports the truncated times.
func (c *Codec) Issue(claims domain.GuestClaims, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", errors.New("token: ttl must be positive")
	}
	now := c.now()
	id := claims.ID
	if id == "" {
		id = uuid.NewString()
	}
	tokenType := claims.TokenType
	if tokenType == "" {
		tokenType = domain.TokenTypeAccess
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, guestJWTClaims{
		IsGuest:   claims.IsGuest,
		RoomID:    claims.RoomID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			Subject:   claims.Subject,
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	signed, err := t.SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("signing guest token: %w", err)
	}
	return signed, nil
}

// Verify checks structure, signature and expiry, in that order.
func (c *Codec) Verify(raw string) (domain.GuestClaims, error) {
	parts := strings.SplitN(raw, ".", 3)
	if len(parts) != 3 {
		return domain.GuestClaims{}, domain.ErrTokenMalformed
	}
	// Header and claims must decode on their own; after that, any structural
	// failure can only come from the signature segment.
	if _, _, err := c.parser.ParseUnverified(parts[0]+"."+parts[1]+".", &guestJWTClaims{}); err != nil {
		return domain.GuestClaims{}, domain.ErrTokenMalformed
	}

	claims := &guestJWTClaims{}
	parsed, err := c.parser.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return c.key, nil
	})
	if err != nil {
		return domain.GuestClaims{}, classify(err)
	}
	if !parsed.Valid {
		return domain.GuestClaims{}, domain.ErrTokenBadSignature
	}

	out := domain.GuestClaims{
		ID:        claims.ID,
		Subject:   claims.Subject,
		RoomID:    claims.RoomID,
		IsGuest:   claims.IsGuest,
		TokenType: claims.TokenType,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable),
		errors.Is(err, jwt.ErrTokenMalformed):
		return domain.ErrTokenBadSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return domain.ErrTokenExpired
	default:
		return domain.ErrTokenMalformed
	}
}

// Reason maps a verification error to the label recorded for anonymous admissions.
func Reason(err error) string {
	switch {
	case errors.Is(err, domain.ErrTokenExpired):
		return domain.ReasonExpired
	case errors.Is(err, domain.ErrTokenBadSignature):
		return domain.ReasonBadSignature
	default:
		return domain.ReasonMalformed
	}
}

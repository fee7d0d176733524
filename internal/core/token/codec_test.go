package token

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/videocall/room-access/internal/core/domain"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newTestCodec(t *testing.T) (*Codec, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	c, err := NewCodec(Config{SigningKey: testKey, Now: clock.Now})
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	return c, clock
}

func guestClaims(room string) domain.GuestClaims {
	return domain.GuestClaims{Subject: "guest_abc123", RoomID: room, IsGuest: true}
}

func TestNewCodec_RejectsShortKey(t *testing.T) {
	if _, err := NewCodec(Config{SigningKey: []byte("short")}); err == nil {
		t.Fatalf("expected error for short key")
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	c, clock := newTestCodec(t)

	raw, err := c.Issue(guestClaims("R1"), time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	got, err := c.Verify(raw)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got.Subject != "guest_abc123" || got.RoomID != "R1" || !got.IsGuest {
		t.Fatalf("unexpected claims: %+v", got)
	}
	if got.TokenType != domain.TokenTypeAccess {
		t.Fatalf("expected token type %q, got %q", domain.TokenTypeAccess, got.TokenType)
	}
	if got.ID == "" {
		t.Fatalf("expected jti to be set")
	}
	if !got.IssuedAt.Equal(clock.t) {
		t.Fatalf("issued at: want %v, got %v", clock.t, got.IssuedAt)
	}
	if got.ExpiresAt.Sub(got.IssuedAt) != time.Hour {
		t.Fatalf("lifetime: want 1h, got %v", got.ExpiresAt.Sub(got.IssuedAt))
	}
}

func TestCodec_RoundTripNonGuest(t *testing.T) {
	c, _ := newTestCodec(t)

	raw, err := c.Issue(domain.GuestClaims{Subject: "u-1"}, time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	got, err := c.Verify(raw)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got.IsGuest || got.RoomID != "" {
		t.Fatalf("unexpected claims: %+v", got)
	}
}

func TestCodec_IssueRejectsNonPositiveTTL(t *testing.T) {
	c, _ := newTestCodec(t)
	if _, err := c.Issue(guestClaims("R1"), 0); err == nil {
		t.Fatalf("expected error for zero ttl")
	}
}

func TestCodec_ExpiryBoundary(t *testing.T) {
	c, clock := newTestCodec(t)
	issued := clock.t
	ttl := 10 * time.Minute

	raw, err := c.Issue(guestClaims("R1"), ttl)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	clock.t = issued.Add(ttl - time.Second)
	if _, err := c.Verify(raw); err != nil {
		t.Fatalf("expected token to be accepted just before expiry: %v", err)
	}

	clock.t = issued.Add(ttl)
	if _, err := c.Verify(raw); !errors.Is(err, domain.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired at expiry, got %v", err)
	}

	clock.t = issued.Add(ttl + time.Second)
	_, err = c.Verify(raw)
	if !errors.Is(err, domain.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired after expiry, got %v", err)
	}
	if !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected expiry to be an ErrInvalidToken")
	}
}

func TestCodec_TamperedSignatureBits(t *testing.T) {
	c, _ := newTestCodec(t)

	raw, err := c.Issue(guestClaims("R1"), time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	sigStart := strings.LastIndex(raw, ".") + 1

	for i := sigStart; i < len(raw); i++ {
		for bit := 0; bit < 8; bit++ {
			b := []byte(raw)
			b[i] ^= 1 << bit
			_, err := c.Verify(string(b))
			if !errors.Is(err, domain.ErrTokenBadSignature) {
				t.Fatalf("byte %d bit %d: expected ErrTokenBadSignature, got %v", i, bit, err)
			}
		}
	}
}

func TestCodec_TamperedClaimsRejected(t *testing.T) {
	c, _ := newTestCodec(t)

	raw, err := c.Issue(guestClaims("A"), time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	parts := strings.Split(raw, ".")

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, guestJWTClaims{
		IsGuest:   true,
		RoomID:    "B",
		TokenType: domain.TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "guest_abc123",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("another-key-another-key-another-k"))
	if err != nil {
		t.Fatalf("sign forged: %v", err)
	}
	forgedParts := strings.Split(forged, ".")

	// Room B claims spliced under room A's signature.
	spliced := parts[0] + "." + forgedParts[1] + "." + parts[2]
	if _, err := c.Verify(spliced); !errors.Is(err, domain.ErrTokenBadSignature) {
		t.Fatalf("expected ErrTokenBadSignature for spliced claims, got %v", err)
	}
	if _, err := c.Verify(forged); !errors.Is(err, domain.ErrTokenBadSignature) {
		t.Fatalf("expected ErrTokenBadSignature for foreign key, got %v", err)
	}
}

func TestCodec_RejectsOtherAlgorithms(t *testing.T) {
	c, _ := newTestCodec(t)
	claims := guestJWTClaims{
		IsGuest: true,
		RoomID:  "R1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(testKey)
	if err != nil {
		t.Fatalf("sign hs512: %v", err)
	}
	if _, err := c.Verify(hs512); !errors.Is(err, domain.ErrTokenBadSignature) {
		t.Fatalf("expected ErrTokenBadSignature for HS512, got %v", err)
	}

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	if _, err := c.Verify(none); !errors.Is(err, domain.ErrTokenBadSignature) {
		t.Fatalf("expected ErrTokenBadSignature for alg none, got %v", err)
	}
}

func TestCodec_Malformed(t *testing.T) {
	c, _ := newTestCodec(t)

	cases := map[string]string{
		"empty":        "",
		"one segment":  "abc",
		"two segments": "abc.def",
		"bad header":   "!!!.eyJzdWIiOiJ4In0.c2ln",
		"bad claims":   "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.***.c2ln",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := c.Verify(raw)
			if !errors.Is(err, domain.ErrTokenMalformed) {
				t.Fatalf("expected ErrTokenMalformed, got %v", err)
			}
		})
	}
}

func TestCodec_MissingExpiryIsMalformed(t *testing.T) {
	c, _ := newTestCodec(t)

	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, guestJWTClaims{IsGuest: true, RoomID: "R1"}).SignedString(testKey)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := c.Verify(raw); !errors.Is(err, domain.ErrTokenMalformed) {
		t.Fatalf("expected ErrTokenMalformed, got %v", err)
	}
}

func TestReason(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{domain.ErrTokenExpired, domain.ReasonExpired},
		{domain.ErrTokenBadSignature, domain.ReasonBadSignature},
		{domain.ErrTokenMalformed, domain.ReasonMalformed},
	}
	for _, tc := range cases {
		if got := Reason(tc.err); got != tc.want {
			t.Fatalf("Reason(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestCodec_ExpiryTruncatedToSeconds(t *testing.T) {
	c, clock := newTestCodec(t)
	clock.t = clock.t.Add(700 * time.Millisecond)
	issued := clock.t
	ttl := 10 * time.Minute

	raw, err := c.Issue(guestClaims("R1"), ttl)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	got, err := c.Verify(raw)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	wantExp := issued.Truncate(time.Second).Add(ttl)
	if !got.ExpiresAt.Equal(wantExp) || !got.IssuedAt.Equal(issued.Truncate(time.Second)) {
		t.Fatalf("expected second-truncated times, got iat=%v exp=%v", got.IssuedAt, got.ExpiresAt)
	}

	clock.t = wantExp
	if _, err := c.Verify(raw); !errors.Is(err, domain.ErrTokenExpired) {
		t.Fatalf("expected expiry at truncated exp, before issue+ttl, got %v", err)
	}
}

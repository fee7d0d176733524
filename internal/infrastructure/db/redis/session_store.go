package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/videocall/room-access/internal/core/domain"
)

const sessionKeyPrefix = "session:"

// Hash fields. Times are stored as unix milliseconds.
const (
	fieldKind          = "kind"
	fieldPrincipalID   = "principal_id"
	fieldUsername      = "username"
	fieldRoomID        = "room_id"
	fieldAuthenticated = "authenticated"
	fieldIsGuest       = "is_guest"
	fieldCreatedAt     = "created_at"
	fieldLastTouchedAt = "last_touched_at"
	fieldExpiresAt     = "expires_at"
	fieldHardExpiresAt = "hard_expires_at"
)

const (
	kindRegistered = "registered"
	kindGuest      = "guest"
)

// touchScript updates activity and expiry only if the session still exists,
// so a Touch racing a Delete never resurrects the key.
var touchScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return 0
end
redis.call('HSET', KEYS[1], 'last_touched_at', ARGV[1], 'expires_at', ARGV[2])
redis.call('PEXPIREAT', KEYS[1], ARGV[2])
return 1
`)

// SessionStore keeps each session in its own hash. Every operation is a
// single command, transaction or script on one key, which Redis executes
// atomically.
type SessionStore struct {
	client *redis.Client
	now    func() time.Time
}

// NewSessionStore wraps an established client.
func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client, now: time.Now}
}

func (s *SessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	fields, err := s.client.HGetAll(ctx, sessionKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("session get: %w", err)
	}
	if len(fields) == 0 {
		return nil, domain.ErrSessionNotFound
	}
	sess, err := sessionFromHash(id, fields)
	if err != nil {
		return nil, err
	}
	if sess.Expired(s.now()) {
		return nil, domain.ErrSessionNotFound
	}
	return sess, nil
}

func (s *SessionStore) Put(ctx context.Context, sess *domain.Session) error {
	if sess == nil || sess.ID == "" {
		return errors.New("session put: missing id")
	}
	key := sessionKey(sess.ID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, sessionHash(sess))
		pipe.PExpireAt(ctx, key, sess.ExpiresAt)
		return nil
	})
	if err != nil {
		return fmt.Errorf("session put: %w", err)
	}
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("session delete: %w", err)
	}
	return nil
}

func (s *SessionStore) Touch(ctx context.Context, id string, now, expiresAt time.Time) error {
	n, err := touchScript.Run(ctx, s.client, []string{sessionKey(id)},
		now.UnixMilli(), expiresAt.UnixMilli()).Int()
	if err != nil {
		return fmt.Errorf("session touch: %w", err)
	}
	if n == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

func sessionHash(sess *domain.Session) map[string]any {
	h := map[string]any{
		fieldAuthenticated: strconv.FormatBool(sess.Authenticated),
		fieldIsGuest:       strconv.FormatBool(sess.IsGuest),
		fieldCreatedAt:     millis(sess.CreatedAt),
		fieldLastTouchedAt: millis(sess.LastTouchedAt),
		fieldExpiresAt:     millis(sess.ExpiresAt),
		fieldHardExpiresAt: millis(sess.HardExpiresAt),
	}
	switch p := sess.Principal.(type) {
	case domain.GuestPrincipal:
		h[fieldKind] = kindGuest
		h[fieldPrincipalID] = p.SyntheticID
		h[fieldRoomID] = p.RoomID
	case domain.RegisteredPrincipal:
		h[fieldKind] = kindRegistered
		h[fieldPrincipalID] = p.ID
		h[fieldUsername] = p.Username
	}
	return h
}

func sessionFromHash(id string, h map[string]string) (*domain.Session, error) {
	sess := &domain.Session{
		ID:            id,
		Authenticated: h[fieldAuthenticated] == "true",
		IsGuest:       h[fieldIsGuest] == "true",
	}
	var err error
	if sess.CreatedAt, err = parseMillis(h[fieldCreatedAt]); err != nil {
		return nil, err
	}
	if sess.LastTouchedAt, err = parseMillis(h[fieldLastTouchedAt]); err != nil {
		return nil, err
	}
	if sess.ExpiresAt, err = parseMillis(h[fieldExpiresAt]); err != nil {
		return nil, err
	}
	if sess.HardExpiresAt, err = parseMillis(h[fieldHardExpiresAt]); err != nil {
		return nil, err
	}

	switch h[fieldKind] {
	case kindGuest:
		sess.Principal = domain.GuestPrincipal{SyntheticID: h[fieldPrincipalID], RoomID: h[fieldRoomID]}
	case kindRegistered:
		sess.Principal = domain.RegisteredPrincipal{ID: h[fieldPrincipalID], Username: h[fieldUsername]}
	}
	return sess, nil
}

func millis(t time.Time) string {
	if t.IsZero() {
		return "0"
	}
	return strconv.FormatInt(t.UnixMilli(), 10)
}

func parseMillis(v string) (time.Time, error) {
	if v == "" || v == "0" {
		return time.Time{}, nil
	}
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("session decode: %w", err)
	}
	return time.UnixMilli(ms).UTC(), nil
}

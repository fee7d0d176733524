package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/videocall/room-access/internal/api/middleware"
	"github.com/videocall/room-access/internal/core/domain"
	"github.com/videocall/room-access/internal/core/service"
	"github.com/videocall/room-access/internal/core/token"
	"github.com/videocall/room-access/internal/infrastructure/memory"
)

type stubRooms struct {
	rooms map[string]bool
	err   error
}

func (r *stubRooms) Exists(_ context.Context, roomID string) (bool, error) {
	return r.rooms[roomID], r.err
}

type guestEnv struct {
	handler *GuestHandler
	codec   *token.Codec
	rooms   *stubRooms
	store   *memory.SessionStore
}

func newGuestEnv(t *testing.T) *guestEnv {
	t.Helper()
	codec, err := token.NewCodec(token.Config{SigningKey: []byte("0123456789abcdef0123456789abcdef")})
	if err != nil {
		t.Fatalf("codec: %v", err)
	}
	rooms := &stubRooms{rooms: map[string]bool{"R1": true}}
	store := memory.NewSessionStore(4)
	svc := service.NewGuestService(rooms, codec, store, nil, service.GuestServiceConfig{}, zerolog.Nop())
	return &guestEnv{
		handler: NewGuestHandler(svc, testCookie, zerolog.Nop()),
		codec:   codec,
		rooms:   rooms,
		store:   store,
	}
}

func loggedIn() *domain.Session {
	return &domain.Session{
		ID:            "sid-alice",
		Authenticated: true,
		Principal:     domain.RegisteredPrincipal{ID: "u-1", Username: "alice"},
		ExpiresAt:     time.Now().Add(time.Hour),
	}
}

func (g *guestEnv) generate(t *testing.T, sess *domain.Session, body string) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := newTestEcho()
	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/auth/guest/generate", body), rec)
	if sess != nil {
		c.Set(middleware.ContextSession, sess)
	}
	return rec, g.handler.Generate(c)
}

func (g *guestEnv) validate(t *testing.T, body string) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := newTestEcho()
	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/auth/guest/validate", body), rec)
	return rec, g.handler.Validate(c)
}

func TestGuestHandler_GenerateThenValidate(t *testing.T) {
	g := newGuestEnv(t)

	rec, err := g.generate(t, loggedIn(), `{"room_id":"R1"}`)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	raw, _ := decodeBody(t, rec)["guest_token"].(string)
	claims, err := g.codec.Verify(raw)
	if err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}
	if !claims.IsGuest || claims.RoomID != "R1" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	rec, err = g.validate(t, `{"token":"`+raw+`"}`)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeBody(t, rec)
	if resp["validated"] != true || resp["is_guest"] != true || resp["room_id"] != "R1" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
	ck := sessionCookieFrom(rec)
	if ck == nil || ck.Value == "" {
		t.Fatalf("expected guest session cookie")
	}
	if _, err := g.store.Get(context.Background(), ck.Value); err != nil {
		t.Fatalf("guest session not stored: %v", err)
	}
}

func TestGuestHandler_Generate_UnauthenticatedIsForbiddenForAnyRoom(t *testing.T) {
	g := newGuestEnv(t)

	for _, body := range []string{`{"room_id":"R1"}`, `{"room_id":"R9"}`, `{}`, `not-json`} {
		rec, err := g.generate(t, nil, body)
		if err != nil {
			t.Fatalf("%s: handler error: %v", body, err)
		}
		if rec.Code != http.StatusForbidden {
			t.Fatalf("%s: expected 403, got %d", body, rec.Code)
		}
	}
}

func TestGuestHandler_Generate_Errors(t *testing.T) {
	g := newGuestEnv(t)

	if rec, _ := g.generate(t, loggedIn(), `{}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing room: expected 400, got %d", rec.Code)
	}
	if rec, _ := g.generate(t, loggedIn(), `{"room_id":"R9"}`); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown room: expected 404, got %d", rec.Code)
	}

	g.rooms.err = errors.New("mongo down")
	if _, err := g.generate(t, loggedIn(), `{"room_id":"R1"}`); !errors.Is(err, domain.ErrRoomLookup) {
		t.Fatalf("lookup failure: expected ErrRoomLookup, got %v", err)
	}
}

func TestGuestHandler_Validate_Errors(t *testing.T) {
	g := newGuestEnv(t)
	nonGuest, _ := g.codec.Issue(domain.GuestClaims{Subject: "u-1"}, time.Hour)

	cases := map[string]struct {
		body string
		want int
	}{
		"invalid json":  {"not-json", http.StatusBadRequest},
		"missing token": {`{}`, http.StatusBadRequest},
		"garbage token": {`{"token":"abc.def.ghi"}`, http.StatusUnauthorized},
		"not a guest":   {`{"token":"` + nonGuest + `"}`, http.StatusForbidden},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			rec, err := g.validate(t, tc.body)
			if err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rec.Code)
			}
			if sessionCookieFrom(rec) != nil {
				t.Fatalf("rejected validation must not set a cookie")
			}
		})
	}
}

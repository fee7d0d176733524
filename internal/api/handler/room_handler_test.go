package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/videocall/room-access/internal/api/middleware"
	"github.com/videocall/room-access/internal/core/domain"
	"github.com/videocall/room-access/internal/core/service"
)

func roomAccess(t *testing.T, policy service.RoomPolicy, sess *domain.Session, roomID string) *httptest.ResponseRecorder {
	t.Helper()
	e := newTestEcho()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/rooms/"+roomID+"/access", nil), rec)
	c.SetParamNames("room_id")
	c.SetParamValues(roomID)
	if sess != nil {
		c.Set(middleware.ContextSession, sess)
	}

	h := NewRoomHandler(policy, nil, zerolog.Nop())
	if err := h.Access(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return rec
}

func TestRoomHandler_Access(t *testing.T) {
	guest := &domain.Session{
		Authenticated: true,
		IsGuest:       true,
		Principal:     domain.GuestPrincipal{SyntheticID: "guest_a", RoomID: "A"},
	}

	if rec := roomAccess(t, service.RoomPolicy{}, guest, "A"); rec.Code != http.StatusOK {
		t.Fatalf("guest in own room: expected 200, got %d", rec.Code)
	} else if resp := decodeBody(t, rec); resp["allowed"] != true || resp["is_guest"] != true || resp["room_id"] != "A" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
	if rec := roomAccess(t, service.RoomPolicy{}, guest, "B"); rec.Code != http.StatusForbidden {
		t.Fatalf("guest in other room: expected 403, got %d", rec.Code)
	}
	if rec := roomAccess(t, service.RoomPolicy{}, loggedIn(), "B"); rec.Code != http.StatusOK {
		t.Fatalf("registered user: expected 200, got %d", rec.Code)
	}
	if rec := roomAccess(t, service.RoomPolicy{}, nil, "B"); rec.Code != http.StatusForbidden {
		t.Fatalf("anonymous: expected 403, got %d", rec.Code)
	}
	if rec := roomAccess(t, service.RoomPolicy{AllowAnonymous: true}, nil, "B"); rec.Code != http.StatusOK {
		t.Fatalf("anonymous with open rooms: expected 200, got %d", rec.Code)
	}
}

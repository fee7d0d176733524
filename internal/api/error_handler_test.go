package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/videocall/room-access/internal/core/domain"
)

func TestHTTPErrorHandler(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
		msg  string
	}{
		{"echo error", echo.NewHTTPError(http.StatusServiceUnavailable, "session store unavailable"), http.StatusServiceUnavailable, "session store unavailable"},
		{"expired token", domain.ErrTokenExpired, http.StatusUnauthorized, "invalid token"},
		{"wrapped room", fmt.Errorf("issue: %w", domain.ErrRoomNotFound), http.StatusNotFound, "room not found"},
		{"unauthorized", domain.ErrUnauthorized, http.StatusForbidden, "authentication required"},
		{"store failure", fmt.Errorf("%w: %w", domain.ErrSessionStore, errors.New("dial tcp: refused")), http.StatusInternalServerError, "internal server error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

			NewHTTPErrorHandler(zerolog.Nop())(tc.err, c)

			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, rec.Code)
			}
			var body errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if body.Error != tc.msg {
				t.Fatalf("expected %q, got %q", tc.msg, body.Error)
			}
		})
	}
}

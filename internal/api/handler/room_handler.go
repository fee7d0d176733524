package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/videocall/room-access/internal/api/metrics"
	"github.com/videocall/room-access/internal/core/domain"
	"github.com/videocall/room-access/internal/core/ports"
	"github.com/videocall/room-access/internal/core/service"
)

// RoomHandler answers room entry checks on the request/response path.
type RoomHandler struct {
	policy service.RoomPolicy
	audit  ports.AuditPublisher
	log    zerolog.Logger
}

func NewRoomHandler(policy service.RoomPolicy, audit ports.AuditPublisher, log zerolog.Logger) *RoomHandler {
	return &RoomHandler{policy: policy, audit: audit, log: log}
}

type roomAccessResponse struct {
	RoomID  string `json:"room_id"`
	Allowed bool   `json:"allowed"`
	IsGuest bool   `json:"is_guest"`
}

// Access reports whether the caller's session may enter the room.
//
// @Summary      Check room access
// @Tags         rooms
// @Produce      json
// @Param        room_id  path      string  true  "Room ID"
// @Success      200      {object}  roomAccessResponse
// @Failure      400      {object}  map[string]string
// @Failure      403      {object}  map[string]string
// @Router       /rooms/{room_id}/access [get]
func (h *RoomHandler) Access(c echo.Context) error {
	roomID := c.Param("room_id")
	sess := ctxSession(c)

	if err := h.policy.AuthorizeRoom(ctxConnection(c), sess, roomID); err != nil {
		recordDenial(h.audit, c, sess, domain.ConnectionAuthContext{}, roomID, err)
		status := http.StatusForbidden
		if errors.Is(err, domain.ErrMissingRoom) {
			status = http.StatusBadRequest
		}
		return c.JSON(status, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, roomAccessResponse{
		RoomID:  roomID,
		Allowed: true,
		IsGuest: sess != nil && sess.IsGuest,
	})
}

func denialReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrMissingRoom):
		return "missing_room"
	case errors.Is(err, domain.ErrUnauthorized):
		return "unauthorized"
	default:
		return "forbidden"
	}
}

func recordDenial(audit ports.AuditPublisher, c echo.Context, sess *domain.Session, ac domain.ConnectionAuthContext, roomID string, err error) {
	reason := denialReason(err)
	metrics.RoomAccessDeniedTotal.WithLabelValues(reason).Inc()
	if audit == nil {
		return
	}
	subject := ""
	switch {
	case ac.Principal != nil:
		subject = ac.Principal.PrincipalID()
	case sess != nil && sess.Principal != nil:
		subject = sess.Principal.PrincipalID()
	}
	audit.Publish(domain.AuthEvent{
		Kind:       domain.EventRoomAccessDenied,
		Subject:    subject,
		RoomID:     roomID,
		Outcome:    "denied",
		Reason:     reason,
		RemoteAddr: c.RealIP(),
		At:         time.Now().UTC(),
	})
}

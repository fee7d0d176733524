package handler

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/videocall/room-access/internal/core/domain"
	"github.com/videocall/room-access/internal/core/ports"
	"github.com/videocall/room-access/internal/core/service"
	"github.com/videocall/room-access/internal/infrastructure/config"
)

const closeWriteWait = time.Second

// RoomWSHandler upgrades room connections and enforces room scope on them.
type RoomWSHandler struct {
	hub      *RoomHub
	policy   service.RoomPolicy
	audit    ports.AuditPublisher
	cfg      config.WebSocketConfig
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

func NewRoomWSHandler(
	hub *RoomHub,
	policy service.RoomPolicy,
	audit ports.AuditPublisher,
	cfg config.WebSocketConfig,
	log zerolog.Logger,
) *RoomWSHandler {
	return &RoomWSHandler{
		hub:    hub,
		policy: policy,
		audit:  audit,
		cfg:    cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Any origin may connect; admission is decided by the room policy.
			CheckOrigin: func(_ *http.Request) bool { return true },
		},
		log: log,
	}
}

// Connect upgrades the request and joins the caller to the room. The
// handshake never fails for auth reasons: a caller that may not enter the
// room is upgraded and then closed with a policy violation.
//
// @Summary      Join a room over WebSocket
// @Tags         rooms
// @Param        room_id      path   string  true   "Room ID"
// @Param        guest_token  query  string  false  "Guest token"
// @Success      101
// @Router       /ws/rooms/{room_id} [get]
func (h *RoomWSHandler) Connect(c echo.Context) error {
	roomID := c.Param("room_id")
	ac := ctxConnection(c)
	sess := ctxSession(c)

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// The upgrader has already written the error response.
		h.log.Warn().Err(err).Str("room_id", roomID).Msg("websocket upgrade failed")
		return nil
	}

	if err := h.policy.AuthorizeRoom(ac, sess, roomID); err != nil {
		recordDenial(h.audit, c, sess, ac, roomID, err)
		h.log.Info().Str("room_id", roomID).Str("reason", denialReason(err)).Msg("room entry refused")
		msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, err.Error())
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeWriteWait))
		_ = conn.Close()
		return nil
	}

	client := &roomClient{
		hub:         h.hub,
		conn:        conn,
		send:        make(chan []byte, sendBufferSize),
		roomID:      roomID,
		principalID: connectionPrincipal(ac, sess),
		isGuest:     ac.IsGuest || (sess != nil && sess.IsGuest),
	}
	h.hub.register(client)

	go client.writePump(h.cfg.PingInterval, h.cfg.PongTimeout)
	go client.readPump(h.cfg.MaxMessageSize, h.cfg.PongTimeout)
	return nil
}

func connectionPrincipal(ac domain.ConnectionAuthContext, sess *domain.Session) string {
	if ac.State == domain.AdmittedGuest && ac.Principal != nil {
		return ac.Principal.PrincipalID()
	}
	if sess != nil && sess.Authenticated && sess.Principal != nil {
		return sess.Principal.PrincipalID()
	}
	return "anonymous"
}

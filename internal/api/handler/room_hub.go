package handler

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/videocall/room-access/internal/api/metrics"
)

// Room message types.
const (
	MsgJoined = "joined"
	MsgLeft   = "left"
	MsgSignal = "signal"
	MsgPing   = "ping"
	MsgPong   = "pong"
	MsgError  = "error"

	// sendBufferSize is the per-client outbound message buffer size.
	sendBufferSize = 64
)

// RoomMessage is sent to and from room WebSocket clients.
type RoomMessage struct {
	Type      string          `json:"type"`
	RoomID    string          `json:"room_id,omitempty"`
	From      string          `json:"from,omitempty"`
	IsGuest   bool            `json:"is_guest,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// RoomHub tracks admitted connections per room and relays signalling
// messages between members of the same room.
type RoomHub struct {
	log   zerolog.Logger
	mu    sync.RWMutex
	rooms map[string]map[*roomClient]struct{}
}

type roomClient struct {
	hub         *RoomHub
	conn        *websocket.Conn
	send        chan []byte
	roomID      string
	principalID string
	isGuest     bool
}

func NewRoomHub(log zerolog.Logger) *RoomHub {
	return &RoomHub{log: log, rooms: make(map[string]map[*roomClient]struct{})}
}

// Run blocks until ctx is cancelled, then disconnects every client.
func (h *RoomHub) Run(ctx context.Context) {
	<-ctx.Done()
	h.closeAll()
}

func (h *RoomHub) register(c *roomClient) {
	h.mu.Lock()
	members, ok := h.rooms[c.roomID]
	if !ok {
		members = make(map[*roomClient]struct{})
		h.rooms[c.roomID] = members
	}
	members[c] = struct{}{}
	h.mu.Unlock()

	metrics.RoomConnections.Inc()
	h.broadcast(c, RoomMessage{Type: MsgJoined})
	h.log.Debug().Str("room_id", c.roomID).Str("principal", c.principalID).Msg("room client connected")
}

// unregister removes c. Only the caller that actually removes the client
// closes its send channel.
func (h *RoomHub) unregister(c *roomClient) {
	h.mu.Lock()
	_, existed := h.rooms[c.roomID][c]
	if existed {
		delete(h.rooms[c.roomID], c)
		if len(h.rooms[c.roomID]) == 0 {
			delete(h.rooms, c.roomID)
		}
	}
	h.mu.Unlock()

	if !existed {
		return
	}
	close(c.send)
	metrics.RoomConnections.Dec()
	h.broadcast(c, RoomMessage{Type: MsgLeft})
	h.log.Debug().Str("room_id", c.roomID).Str("principal", c.principalID).Msg("room client disconnected")
}

// broadcast stamps msg with the sender and delivers it to every other member
// of the sender's room.
func (h *RoomHub) broadcast(from *roomClient, msg RoomMessage) {
	msg.RoomID = from.roomID
	msg.From = from.principalID
	msg.IsGuest = from.isGuest
	msg.Timestamp = time.Now().UTC().Format(time.RFC3339)
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to marshal room message")
		return
	}

	h.mu.RLock()
	recipients := make([]*roomClient, 0, len(h.rooms[from.roomID]))
	for c := range h.rooms[from.roomID] {
		if c != from {
			recipients = append(recipients, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range recipients {
		c.trySend(data)
	}
}

// ClientCount returns the number of clients connected to roomID.
func (h *RoomHub) ClientCount(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

func (h *RoomHub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for roomID, members := range h.rooms {
		for c := range members {
			close(c.send)
			_ = c.conn.Close()
			metrics.RoomConnections.Dec()
		}
		delete(h.rooms, roomID)
	}
}

// trySend drops the message when the client is not keeping up. A send on a
// channel closed concurrently by unregister is recovered.
func (c *roomClient) trySend(data []byte) {
	defer func() { _ = recover() }()
	select {
	case c.send <- data:
	default:
		c.hub.log.Warn().Str("room_id", c.roomID).Str("principal", c.principalID).Msg("room client send buffer full, message dropped")
	}
}

func (c *roomClient) reply(msg RoomMessage) {
	msg.RoomID = c.roomID
	msg.Timestamp = time.Now().UTC().Format(time.RFC3339)
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	c.trySend(data)
}

func (c *roomClient) readPump(maxMessageSize int64, pongWait time.Duration) {
	defer func() {
		c.hub.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Warn().Err(err).Str("room_id", c.roomID).Msg("room websocket read error")
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		c.handleMessage(data)
	}
}

func (c *roomClient) writePump(pingInterval, writeWait time.Duration) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *roomClient) handleMessage(data []byte) {
	var msg RoomMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.reply(RoomMessage{Type: MsgError, Payload: json.RawMessage(`"invalid JSON message"`)})
		return
	}

	switch msg.Type {
	case MsgSignal:
		c.hub.broadcast(c, RoomMessage{Type: MsgSignal, Payload: msg.Payload})
	case MsgPing:
		c.reply(RoomMessage{Type: MsgPong})
	default:
		c.reply(RoomMessage{Type: MsgError, Payload: json.RawMessage(`"unknown message type"`)})
	}
}

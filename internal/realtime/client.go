package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBufferSize = 32
)

// clientMessage is the envelope clients send: room control or an optimistic
// UI echo of a board event.
type clientMessage struct {
	Event     string          `json:"event"`
	ProjectID string          `json:"projectId"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// Client is one authenticated websocket connection. It implements Subscriber
// with a buffered, non-blocking send channel; a client too slow to drain its
// buffer loses messages rather than stalling the hub.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID string

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

// NewClient wraps an upgraded connection for the authenticated user and
// starts its read and write pumps.
func (h *Hub) NewClient(conn *websocket.Conn, userID string) *Client {
	c := &Client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		userID: userID,
	}
	go c.writePump()
	go c.readPump()
	return c
}

// Send queues a payload for delivery, dropping it if the buffer is full or
// the client already disconnected. The hub fans out from room snapshots taken
// outside its lock, so Send may race with closeSend and must stay safe after
// it.
func (c *Client) Send(payload []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- payload:
	default:
		c.hub.log.Warn("realtime: dropping event for slow client user=%s", c.userID)
	}
}

// closeSend marks the client disconnected and closes the send channel so the
// write pump drains and exits. Idempotent.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// readPump consumes client messages until the connection closes, then
// removes the client from every room.
func (c *Client) readPump() {
	defer func() {
		c.hub.LeaveAll(c)
		c.closeSend()
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Debug("realtime: read error user=%s: %v", c.userID, err)
			}
			return
		}
		var msg clientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.hub.log.Debug("realtime: malformed client message user=%s: %v", c.userID, err)
			continue
		}
		c.handleMessage(msg)
	}
}

func (c *Client) handleMessage(msg clientMessage) {
	if msg.ProjectID == "" {
		return
	}
	switch msg.Event {
	case msgJoinProject:
		// Membership is re-checked here, not just at handshake: access may
		// have been revoked while the socket stayed connected.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.hub.auth.CanJoin(ctx, c.userID, msg.ProjectID); err != nil {
			c.hub.log.Info("realtime: join denied user=%s project=%s: %v", c.userID, msg.ProjectID, err)
			return
		}
		c.hub.Join(msg.ProjectID, c)
	case msgLeaveProject:
		c.hub.Leave(msg.ProjectID, c)
	case EventTaskUpdated, EventCommentAdded:
		// Optimistic UI echo: rebroadcast to the rest of the room only.
		if !c.hub.InRoom(msg.ProjectID, c) {
			return
		}
		c.hub.PublishFrom(c, c.userID, msg.ProjectID, msg.Event, msg.Data)
	}
}

// writePump drains the send channel and keeps the connection alive with
// pings; a missed pong trips the read deadline and closes the connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
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

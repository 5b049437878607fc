package feed

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"qufit/backend/internal/config"
	"qufit/backend/internal/models"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// WebSocketClient implements Client over a gorilla websocket connection.
type WebSocketClient struct {
	ID     string
	RoomID string
	Conn   *websocket.Conn
	Hub    *Hub
	Send   chan models.RoomEvent
	Logger *slog.Logger

	closeOnce sync.Once
}

// NewWebSocketClient wraps conn. roomID may be empty to follow every room.
func NewWebSocketClient(hub *Hub, conn *websocket.Conn, roomID string) *WebSocketClient {
	return &WebSocketClient{
		ID:     uuid.New().String(),
		RoomID: roomID,
		Conn:   conn,
		Hub:    hub,
		Send:   make(chan models.RoomEvent, config.FeedSendBuffer),
		Logger: hub.Logger,
	}
}

func (c *WebSocketClient) GetClientID() string                     { return c.ID }
func (c *WebSocketClient) GetRoomID() string                       { return c.RoomID }
func (c *WebSocketClient) GetSendChannel() chan<- models.RoomEvent { return c.Send }

// Run starts the pumps.
func (c *WebSocketClient) Run() {
	go c.writePump()
	go c.readPump()
}

// Close closes Send, which makes writePump send a close frame and exit.
func (c *WebSocketClient) Close() {
	c.closeOnce.Do(func() { close(c.Send) })
}

// readPump only services control frames; the feed is server to client.
func (c *WebSocketClient) readPump() {
	defer func() {
		c.Hub.Unregister(c)
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(config.FeedMaxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(config.FeedPongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(config.FeedPongWait))
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Logger.Warn("feed read failed", "client_id", c.ID, "error", err)
			}
			return
		}
	}
}

// writePump writes events as one JSON object per text frame and pings periodically.
func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(config.FeedPingPeriod)

	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(config.FeedWriteWait))
			if !ok {
				// The hub closed the channel.
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			data, err := json.Marshal(event)
			if err != nil {
				c.Logger.Error("failed to encode room event", "client_id", c.ID, "error", err)
				continue
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(config.FeedWriteWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

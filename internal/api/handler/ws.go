package handler

import (
	"net/http"

	"qufit/backend/internal/feed"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Any origin may subscribe to the feed.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeRoomFeed upgrades to a websocket streaming room events.
// ?roomId= limits the stream to one room.
func (h *Handler) ServeRoomFeed(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the error response.
		h.Logger.Warn("feed upgrade failed", "error", err)
		return
	}

	client := feed.NewWebSocketClient(h.Hub, conn, c.Query("roomId"))
	if !h.Hub.Register(client) {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		_ = conn.Close()
		return
	}
	client.Run()
}

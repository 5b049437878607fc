package handler

import (
	"log/slog"
	"net/http"
	"time"

	"qufit/backend/internal/feed"
	"qufit/backend/internal/videoroom"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler holds the services behind the HTTP API.
type Handler struct {
	Rooms  *videoroom.Manager
	Query  *videoroom.QueryService
	Hub    *feed.Hub
	Logger *slog.Logger
}

func NewHandler(rooms *videoroom.Manager, query *videoroom.QueryService, hub *feed.Hub) *Handler {
	return &Handler{
		Rooms:  rooms,
		Query:  query,
		Hub:    hub,
		Logger: slog.Default(),
	}
}

// Router builds the gin engine with every route registered.
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), h.requestLogger())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/ws/rooms", h.ServeRoomFeed)

	rooms := r.Group("/api/v1/rooms")
	rooms.POST("", h.CreateRoom)
	rooms.GET("", h.ListRooms)
	rooms.GET("/:roomId", h.GetRoom)
	rooms.PUT("/:roomId", h.UpdateRoom)
	rooms.DELETE("/:roomId", h.DeleteRoom)
	rooms.PUT("/:roomId/status", h.SetRoomStatus)
	rooms.POST("/:roomId/participants", h.JoinRoom)
	rooms.DELETE("/:roomId/participants/:participantId", h.LeaveRoom)

	return r
}

func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		h.Logger.Info("http request",
			"method", c.Request.Method,
			"route", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}

package handler

import (
	"net/http"

	"qufit/backend/internal/videoroom"

	"github.com/gin-gonic/gin"
)

var statusByCode = map[string]int{
	videoroom.CodeRoomNotFound:        http.StatusNotFound,
	videoroom.CodeMemberNotFound:      http.StatusNotFound,
	videoroom.CodeParticipantNotFound: http.StatusNotFound,
	videoroom.CodeRoomFull:            http.StatusConflict,
	videoroom.CodeRoomNotReady:        http.StatusConflict,
	videoroom.CodeInvalidCapacity:     http.StatusConflict,
	videoroom.CodeNegativeCounter:     http.StatusConflict,
	videoroom.CodeInvalidInput:        http.StatusBadRequest,
}

// writeError maps err to a status and writes {"code", "error"}.
// Infrastructure errors are not echoed to the client.
func (h *Handler) writeError(c *gin.Context, err error) {
	code := videoroom.ErrorCode(err)
	status, ok := statusByCode[code]
	if !ok {
		status = http.StatusInternalServerError
		h.Logger.Error("request failed", "route", c.FullPath(), "error", err)
		c.AbortWithStatusJSON(status, gin.H{"code": code, "error": "internal error"})
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"code": code, "error": err.Error()})
}

func (h *Handler) badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"code": videoroom.CodeInvalidInput, "error": msg})
}

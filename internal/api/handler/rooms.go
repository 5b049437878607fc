package handler

import (
	"net/http"
	"strconv"

	"qufit/backend/internal/models"
	"qufit/backend/internal/videoroom"

	"github.com/gin-gonic/gin"
)

type joinResponse struct {
	Room          *models.Room `json:"room"`
	ParticipantID string       `json:"participantId"`
	Token         string       `json:"token"`
}

func newJoinResponse(res *videoroom.JoinResult) joinResponse {
	return joinResponse{Room: res.Room, ParticipantID: res.Participant.ID, Token: res.Token}
}

type joinRequest struct {
	MemberID string `json:"memberId"`
}

type statusRequest struct {
	Status models.RoomStatus `json:"status"`
}

// CreateRoom handles POST /api/v1/rooms.
func (h *Handler) CreateRoom(c *gin.Context) {
	var in videoroom.CreateRoomInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.badRequest(c, "malformed request body")
		return
	}

	res, err := h.Rooms.CreateRoom(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newJoinResponse(res))
}

// ListRooms handles GET /api/v1/rooms?page=&size=.
func (h *Handler) ListRooms(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "0"))
	if err != nil {
		h.badRequest(c, "page must be an integer")
		return
	}
	size, err := strconv.Atoi(c.DefaultQuery("size", "0"))
	if err != nil {
		h.badRequest(c, "size must be an integer")
		return
	}

	list, err := h.Query.ListRooms(c.Request.Context(), page, size)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetRoom handles GET /api/v1/rooms/:roomId.
func (h *Handler) GetRoom(c *gin.Context) {
	detail, err := h.Query.GetRoomDetail(c.Request.Context(), c.Param("roomId"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// UpdateRoom handles PUT /api/v1/rooms/:roomId.
func (h *Handler) UpdateRoom(c *gin.Context) {
	var in videoroom.UpdateRoomInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.badRequest(c, "malformed request body")
		return
	}

	room, err := h.Rooms.UpdateRoom(c.Request.Context(), c.Param("roomId"), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

// DeleteRoom handles DELETE /api/v1/rooms/:roomId.
func (h *Handler) DeleteRoom(c *gin.Context) {
	if err := h.Rooms.DeleteRoom(c.Request.Context(), c.Param("roomId")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SetRoomStatus handles PUT /api/v1/rooms/:roomId/status.
func (h *Handler) SetRoomStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "malformed request body")
		return
	}

	room, err := h.Rooms.SetRoomStatus(c.Request.Context(), c.Param("roomId"), req.Status)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

// JoinRoom handles POST /api/v1/rooms/:roomId/participants.
func (h *Handler) JoinRoom(c *gin.Context) {
	var req joinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "malformed request body")
		return
	}

	res, err := h.Rooms.JoinRoom(c.Request.Context(), c.Param("roomId"), req.MemberID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newJoinResponse(res))
}

// LeaveRoom handles DELETE /api/v1/rooms/:roomId/participants/:participantId.
func (h *Handler) LeaveRoom(c *gin.Context) {
	res, err := h.Rooms.LeaveRoom(c.Request.Context(), c.Param("roomId"), c.Param("participantId"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"roomDeleted": res.RoomDeleted})
}

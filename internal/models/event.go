package models

import "time"

// RoomEventType names a room lifecycle change.
type RoomEventType string

const (
	EventRoomCreated       RoomEventType = "room_created"
	EventRoomUpdated       RoomEventType = "room_updated"
	EventRoomDeleted       RoomEventType = "room_deleted"
	EventRoomStatusChanged RoomEventType = "room_status_changed"
	EventParticipantJoined RoomEventType = "participant_joined"
	EventParticipantLeft   RoomEventType = "participant_left"
)

// RoomEvent is published after a committed room mutation and fanned out to feed clients.
type RoomEvent struct {
	Type          RoomEventType `json:"type"`
	RoomID        string        `json:"roomId"`
	Room          *Room         `json:"room,omitempty"`
	ParticipantID string        `json:"participantId,omitempty"`
	MemberID      string        `json:"memberId,omitempty"`
	At            time.Time     `json:"at"`
}

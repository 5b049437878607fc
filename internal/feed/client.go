package feed

import "qufit/backend/internal/models"

// Client is one feed subscriber. The hub owns its send channel.
type Client interface {
	// GetClientID returns the unique identifier of the connection.
	GetClientID() string
	// GetRoomID returns the room the client follows, or "" for every room.
	GetRoomID() string

	// GetSendChannel returns the channel the hub delivers events on.
	GetSendChannel() chan<- models.RoomEvent

	// Run starts the client's pumps.
	Run()
	// Close stops delivery. Only the hub calls it.
	Close()
}

package config

import "time"

const (
	// Listing
	DefaultPageSize = 10
	MaxPageSize     = 100

	// Access tokens
	DefaultTokenTTL = 6 * time.Hour

	// Room locks
	RoomLockTTL           = 10 * time.Second
	RoomLockRetryInterval = 25 * time.Millisecond
	RoomLockKeyPrefix     = "room-lock:"

	// Events
	RoomEventsChannel = "rooms:events"

	// Feed websocket
	FeedWriteWait      = 10 * time.Second
	FeedPongWait       = 60 * time.Second
	FeedPingPeriod     = (FeedPongWait * 9) / 10
	FeedMaxMessageSize = 512
	FeedSendBuffer     = 64

	// Search
	DefaultRoomIndex = "video_rooms"
)

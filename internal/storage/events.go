package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"qufit/backend/internal/config"
	"qufit/backend/internal/models"

	"github.com/redis/go-redis/v9"
)

// PublishRoomEvent publishes a room event on the Redis events channel.
// It is a no-op when the service has no Redis client.
func (s *Service) PublishRoomEvent(ctx context.Context, event models.RoomEvent) error {
	if s.Redis == nil {
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode room event: %w", err)
	}

	if err := s.Redis.Publish(ctx, config.RoomEventsChannel, payload).Err(); err != nil {
		s.Logger.Error("failed to publish room event", "room_id", event.RoomID, "type", event.Type, "error", err)
		return err
	}
	return nil
}

// SubscribeRoomEvents subscribes to the Redis events channel.
func (s *Service) SubscribeRoomEvents(ctx context.Context) *redis.PubSub {
	return s.Redis.Subscribe(ctx, config.RoomEventsChannel)
}

// Package feed fans committed room events out to websocket subscribers.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"qufit/backend/internal/metrics"
	"qufit/backend/internal/models"

	"github.com/redis/go-redis/v9"
)

// Subscriber opens the Redis subscription room events arrive on.
type Subscriber interface {
	SubscribeRoomEvents(ctx context.Context) *redis.PubSub
}

// Hub keeps the connected clients and broadcasts events to them.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]Client

	RegisterCh   chan Client
	UnregisterCh chan Client
	BroadcastCh  chan models.RoomEvent

	Logger *slog.Logger

	done chan struct{}
}

// NewHub creates a Hub. Call Run to start it.
func NewHub() *Hub {
	return &Hub{
		clients:      make(map[string]Client),
		RegisterCh:   make(chan Client),
		UnregisterCh: make(chan Client),
		BroadcastCh:  make(chan models.RoomEvent),
		Logger:       slog.Default(),
		done:         make(chan struct{}),
	}
}

// Len returns the number of registered clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Done is closed when Run returns.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Register hands c to the hub. It returns false if the hub has stopped.
func (h *Hub) Register(c Client) bool {
	select {
	case h.RegisterCh <- c:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes c. It does not block once the hub has stopped.
func (h *Hub) Unregister(c Client) {
	select {
	case h.UnregisterCh <- c:
	case <-h.done:
	}
}

// Broadcast queues event for every interested client.
func (h *Hub) Broadcast(ctx context.Context, event models.RoomEvent) {
	select {
	case h.BroadcastCh <- event:
	case <-ctx.Done():
	case <-h.done:
	}
}

// Run is the hub loop. On ctx cancellation every client is closed.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for id, c := range h.clients {
				delete(h.clients, id)
				c.Close()
				metrics.FeedClientDisconnected()
			}
			h.mu.Unlock()
			h.Logger.Info("room feed stopped")
			return

		case c := <-h.RegisterCh:
			h.mu.Lock()
			h.clients[c.GetClientID()] = c
			h.mu.Unlock()
			metrics.FeedClientConnected()
			h.Logger.Debug("feed client registered", "client_id", c.GetClientID(), "room_id", c.GetRoomID())

		case c := <-h.UnregisterCh:
			h.remove(c)

		case event := <-h.BroadcastCh:
			h.broadcast(event)
		}
	}
}

func (h *Hub) remove(c Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if current, ok := h.clients[c.GetClientID()]; !ok || current != c {
		return
	}
	delete(h.clients, c.GetClientID())
	c.Close()
	metrics.FeedClientDisconnected()
	h.Logger.Debug("feed client unregistered", "client_id", c.GetClientID())
}

func (h *Hub) broadcast(event models.RoomEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, c := range h.clients {
		if room := c.GetRoomID(); room != "" && room != event.RoomID {
			continue
		}
		select {
		case c.GetSendChannel() <- event:
		default:
			// Slow consumer: drop it rather than stall the feed.
			delete(h.clients, id)
			c.Close()
			metrics.FeedClientDisconnected()
			metrics.FeedClientDropped()
			h.Logger.Warn("dropped slow feed client", "client_id", id)
		}
	}
}

// StartPubSubListener subscribes to the Redis events channel and forwards its
// events into the hub until ctx is cancelled. It returns once the subscription is live.
func (h *Hub) StartPubSubListener(ctx context.Context, sub Subscriber) error {
	pubsub := sub.SubscribeRoomEvents(ctx)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("subscribe room events: %w", err)
	}

	go func() {
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var event models.RoomEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					h.Logger.Warn("failed to decode room event", "error", err)
					continue
				}
				h.Broadcast(ctx, event)
			}
		}
	}()
	return nil
}

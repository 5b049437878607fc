package feed_test

import (
	"context"
	"testing"
	"time"

	"qufit/backend/internal/feed"
	"qufit/backend/internal/models"
	"qufit/backend/internal/storage"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockClient struct {
	id     string
	roomID string
	send   chan models.RoomEvent
	closed chan struct{}
}

func newMockClient(id, roomID string, buffer int) *mockClient {
	return &mockClient{
		id:     id,
		roomID: roomID,
		send:   make(chan models.RoomEvent, buffer),
		closed: make(chan struct{}),
	}
}

func (c *mockClient) GetClientID() string                     { return c.id }
func (c *mockClient) GetRoomID() string                       { return c.roomID }
func (c *mockClient) GetSendChannel() chan<- models.RoomEvent { return c.send }
func (c *mockClient) Run()                                    {}
func (c *mockClient) Close()                                  { close(c.closed) }

func (c *mockClient) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

func startHub(t *testing.T) (*feed.Hub, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	hub := feed.NewHub()
	go hub.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-hub.Done()
	})
	return hub, cancel
}

func receive(t *testing.T, c *mockClient) models.RoomEvent {
	t.Helper()
	select {
	case e := <-c.send:
		return e
	case <-time.After(time.Second):
		t.Fatalf("client %s received nothing", c.id)
		return models.RoomEvent{}
	}
}

func TestHub_RegisterUnregister(t *testing.T) {
	hub, _ := startHub(t)
	c := newMockClient("a", "", 1)

	require.True(t, hub.Register(c))
	assert.Eventually(t, func() bool { return hub.Len() == 1 }, time.Second, 5*time.Millisecond)

	hub.Unregister(c)
	assert.Eventually(t, func() bool { return hub.Len() == 0 }, time.Second, 5*time.Millisecond)
	assert.True(t, c.isClosed())

	// A second unregister is ignored.
	hub.Unregister(c)
}

func TestHub_BroadcastFiltersByRoom(t *testing.T) {
	hub, _ := startHub(t)
	all := newMockClient("all", "", 4)
	roomA := newMockClient("a", "room-a", 4)
	roomB := newMockClient("b", "room-b", 4)
	for _, c := range []*mockClient{all, roomA, roomB} {
		require.True(t, hub.Register(c))
	}

	hub.Broadcast(context.Background(), models.RoomEvent{Type: models.EventParticipantJoined, RoomID: "room-a"})

	assert.Equal(t, "room-a", receive(t, all).RoomID)
	assert.Equal(t, models.EventParticipantJoined, receive(t, roomA).Type)
	assert.Never(t, func() bool { return len(roomB.send) > 0 }, 50*time.Millisecond, 5*time.Millisecond)
}

func TestHub_DropsSlowClient(t *testing.T) {
	hub, _ := startHub(t)
	slow := newMockClient("slow", "", 1)
	require.True(t, hub.Register(slow))

	hub.Broadcast(context.Background(), models.RoomEvent{RoomID: "r", Type: models.EventRoomUpdated})
	hub.Broadcast(context.Background(), models.RoomEvent{RoomID: "r", Type: models.EventRoomUpdated})

	assert.Eventually(t, slow.isClosed, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, hub.Len())
}

func TestHub_StopClosesClients(t *testing.T) {
	hub, cancel := startHub(t)
	c := newMockClient("a", "", 1)
	require.True(t, hub.Register(c))

	cancel()
	<-hub.Done()

	assert.True(t, c.isClosed())
	assert.False(t, hub.Register(newMockClient("late", "", 1)))
}

func TestHub_PubSubListener(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	store := storage.NewStorageService(nil, rdb)

	hub, _ := startHub(t)
	c := newMockClient("a", "", 4)
	require.True(t, hub.Register(c))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, hub.StartPubSubListener(ctx, store))

	require.NoError(t, store.PublishRoomEvent(ctx, models.RoomEvent{Type: models.EventRoomDeleted, RoomID: "room-9"}))

	got := receive(t, c)
	assert.Equal(t, models.EventRoomDeleted, got.Type)
	assert.Equal(t, "room-9", got.RoomID)
}

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveOperation(t *testing.T) {
	before := testutil.ToFloat64(roomOperations.WithLabelValues("join", "ROOM_FULL"))

	ObserveOperation("join", "ROOM_FULL", time.Now().Add(-5*time.Millisecond))

	assert.Equal(t, before+1, testutil.ToFloat64(roomOperations.WithLabelValues("join", "ROOM_FULL")))
	assert.Equal(t, 1, testutil.CollectAndCount(roomOperationDuration, "qufit_rooms_operation_duration_seconds"))
}

func TestFeedClientsGauge(t *testing.T) {
	before := testutil.ToFloat64(feedClients)

	FeedClientConnected()
	FeedClientConnected()
	FeedClientDisconnected()

	assert.Equal(t, before+1, testutil.ToFloat64(feedClients))
}

func TestTokenIssued(t *testing.T) {
	before := testutil.ToFloat64(tokensIssued)
	TokenIssued()
	assert.Equal(t, before+1, testutil.ToFloat64(tokensIssued))
}

package search_test

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"qufit/backend/internal/config"
	"qufit/backend/internal/models"
	"qufit/backend/internal/search"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   string
}

// fakeCluster answers like Elasticsearch and records every request.
type fakeCluster struct {
	mu       sync.Mutex
	requests []recordedRequest
	status   map[string]int
	body     map[string]string
}

func (c *fakeCluster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	key := r.Method + " " + r.URL.Path

	c.mu.Lock()
	c.requests = append(c.requests, recordedRequest{Method: r.Method, Path: r.URL.Path, Body: string(body)})
	status, ok := c.status[key]
	respBody := c.body[key]
	c.mu.Unlock()

	if !ok {
		status = http.StatusOK
	}
	if respBody == "" {
		respBody = `{}`
	}
	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, respBody)
}

func (c *fakeCluster) last() recordedRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requests[len(c.requests)-1]
}

func newIndexer(t *testing.T, cluster *fakeCluster) *search.RoomIndexer {
	t.Helper()
	srv := httptest.NewServer(cluster)
	t.Cleanup(srv.Close)

	client, err := search.NewClient(config.SearchConfig{URL: srv.URL, Username: "elastic", Password: "pw"})
	require.NoError(t, err)
	return search.NewRoomIndexer(client, "rooms_test")
}

func sampleRoom() *models.Room {
	return &models.Room{
		ID:              "room-1",
		Name:            "Trivia",
		MaxParticipants: 4,
		CurMaleCount:    1,
		CurFemaleCount:  2,
		Status:          models.RoomStatusReady,
		Hobbies:         []string{"quiz"},
		Personalities:   []string{"curious"},
		CreatedAt:       time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestNewClient_Disabled(t *testing.T) {
	_, err := search.NewClient(config.SearchConfig{})
	assert.ErrorIs(t, err, search.ErrDisabled)
}

func TestIndexRoom(t *testing.T) {
	cluster := &fakeCluster{}
	ix := newIndexer(t, cluster)

	require.NoError(t, ix.IndexRoom(context.Background(), sampleRoom()))

	req := cluster.last()
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/rooms_test/_doc/room-1", req.Path)

	var doc search.RoomDocument
	require.NoError(t, json.Unmarshal([]byte(req.Body), &doc))
	assert.Equal(t, "Trivia", doc.Name)
	assert.Equal(t, 3, doc.Occupancy)
	assert.Equal(t, models.RoomStatusReady, doc.Status)
	assert.Equal(t, []string{"quiz"}, doc.Hobbies)
}

func TestIndexRoom_ErrorStatus(t *testing.T) {
	cluster := &fakeCluster{
		status: map[string]int{"PUT /rooms_test/_doc/room-1": http.StatusBadRequest},
		body:   map[string]string{"PUT /rooms_test/_doc/room-1": `{"error":"mapper_parsing_exception"}`},
	}
	ix := newIndexer(t, cluster)

	err := ix.IndexRoom(context.Background(), sampleRoom())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mapper_parsing_exception")
}

func TestRemoveRoom_MissingIsFine(t *testing.T) {
	cluster := &fakeCluster{
		status: map[string]int{"DELETE /rooms_test/_doc/gone": http.StatusNotFound},
	}
	ix := newIndexer(t, cluster)

	require.NoError(t, ix.RemoveRoom(context.Background(), "gone"))
	assert.Equal(t, http.MethodDelete, cluster.last().Method)
}

func TestEnsureIndex(t *testing.T) {
	t.Run("creates missing index", func(t *testing.T) {
		cluster := &fakeCluster{status: map[string]int{"HEAD /rooms_test": http.StatusNotFound}}
		ix := newIndexer(t, cluster)

		require.NoError(t, ix.EnsureIndex(context.Background()))
		req := cluster.last()
		assert.Equal(t, http.MethodPut, req.Method)
		assert.Equal(t, "/rooms_test", req.Path)
		assert.Contains(t, req.Body, `"hobbies"`)
	})

	t.Run("keeps existing index", func(t *testing.T) {
		cluster := &fakeCluster{}
		ix := newIndexer(t, cluster)

		require.NoError(t, ix.EnsureIndex(context.Background()))
		assert.Len(t, cluster.requests, 1)
		assert.Equal(t, http.MethodHead, cluster.last().Method)
	})
}

func TestReindex(t *testing.T) {
	cluster := &fakeCluster{
		body: map[string]string{
			"POST /rooms_test/_bulk": `{"errors":true,"items":[
				{"index":{"_id":"room-1","status":201}},
				{"index":{"_id":"room-2","status":400}}
			]}`,
		},
	}
	ix := newIndexer(t, cluster)

	second := sampleRoom()
	second.ID = "room-2"
	n, err := ix.Reindex(context.Background(), []models.Room{*sampleRoom(), *second})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	req := cluster.last()
	assert.Equal(t, "/rooms_test/_bulk", req.Path)

	var lines []string
	sc := bufio.NewScanner(strings.NewReader(req.Body))
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	require.Len(t, lines, 4)
	assert.JSONEq(t, `{"index":{"_id":"room-1"}}`, lines[0])
	assert.JSONEq(t, `{"index":{"_id":"room-2"}}`, lines[2])
}

func TestReindex_Empty(t *testing.T) {
	cluster := &fakeCluster{}
	ix := newIndexer(t, cluster)

	n, err := ix.Reindex(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, cluster.requests)
}

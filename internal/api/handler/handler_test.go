package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"qufit/backend/internal/api/handler"
	"qufit/backend/internal/feed"
	"qufit/backend/internal/models"
	"qufit/backend/internal/roomlock"
	"qufit/backend/internal/storage/memstore"
	"qufit/backend/internal/token"
	"qufit/backend/internal/videoroom"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hubPublisher delivers manager events straight to the hub, standing in for Redis.
type hubPublisher struct {
	hub *feed.Hub
}

func (p hubPublisher) PublishRoomEvent(ctx context.Context, e models.RoomEvent) error {
	p.hub.Broadcast(ctx, e)
	return nil
}

type testServer struct {
	router *gin.Engine
	store  *memstore.Store
	hub    *feed.Hub
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memstore.New()
	issuer, err := token.NewIssuer("key", "secret", time.Hour)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	hub := feed.NewHub()
	go hub.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-hub.Done()
	})

	manager := videoroom.NewManager(store, roomlock.NewLocal(), issuer)
	manager.Events = hubPublisher{hub: hub}
	h := handler.NewHandler(manager, videoroom.NewQueryService(store), hub)

	for _, m := range []*models.Member{
		{ID: "alice", Nickname: "Alice", Gender: models.GenderFemale},
		{ID: "bob", Nickname: "Bob", Gender: models.GenderMale},
		{ID: "carl", Nickname: "Carl", Gender: models.GenderMale},
	} {
		require.NoError(t, store.SaveMember(context.Background(), m))
	}

	return &testServer{router: h.Router(), store: store, hub: hub}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

type createResponse struct {
	Room          models.Room `json:"room"`
	ParticipantID string      `json:"participantId"`
	Token         string      `json:"token"`
}

type errorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func (s *testServer) createRoom(t *testing.T, max int) createResponse {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/rooms", gin.H{
		"name": "Trivia", "maxParticipants": max, "memberId": "alice",
		"hobbies": []string{"quiz"}, "personalities": []string{"curious"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var res createResponse
	decode(t, w, &res)
	return res
}

func TestRoomLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)

	created := s.createRoom(t, 2)
	assert.NotEmpty(t, created.Token)
	assert.NotEmpty(t, created.ParticipantID)
	assert.Equal(t, 1, created.Room.CurFemaleCount)

	roomPath := "/api/v1/rooms/" + created.Room.ID

	w := s.do(t, http.MethodGet, roomPath, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var detail videoroom.RoomDetail
	decode(t, w, &detail)
	assert.Equal(t, "Trivia", detail.Name)
	require.Len(t, detail.Participants, 1)
	assert.Equal(t, "Alice", detail.Participants[0].Nickname)

	w = s.do(t, http.MethodPost, roomPath+"/participants", gin.H{"memberId": "bob"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var joined createResponse
	decode(t, w, &joined)

	w = s.do(t, http.MethodPost, roomPath+"/participants", gin.H{"memberId": "carl"})
	assert.Equal(t, http.StatusConflict, w.Code)
	var e errorResponse
	decode(t, w, &e)
	assert.Equal(t, videoroom.CodeRoomFull, e.Code)

	w = s.do(t, http.MethodPut, roomPath, gin.H{"name": "Movies", "maxParticipants": 3, "hobbies": []string{"film"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodDelete, roomPath+"/participants/"+joined.ParticipantID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"roomDeleted":false}`, w.Body.String())

	w = s.do(t, http.MethodDelete, roomPath+"/participants/"+created.ParticipantID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"roomDeleted":true}`, w.Body.String())

	w = s.do(t, http.MethodGet, roomPath, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListRoomsOverHTTP(t *testing.T) {
	s := newTestServer(t)
	first := s.createRoom(t, 4)
	second := s.createRoom(t, 4)

	w := s.do(t, http.MethodPut, "/api/v1/rooms/"+first.Room.ID+"/status", gin.H{"status": "ACTIVE"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/v1/rooms?page=0&size=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list videoroom.RoomList
	decode(t, w, &list)
	require.Len(t, list.Rooms, 1)
	assert.Equal(t, second.Room.ID, list.Rooms[0].ID)
	assert.Equal(t, models.PageInfo{TotalElements: 1, TotalPages: 1, CurrentPage: 0, PageSize: 5}, list.Page)

	w = s.do(t, http.MethodPost, "/api/v1/rooms/"+first.Room.ID+"/participants", gin.H{"memberId": "bob"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestErrorResponses(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
		code   string
	}{
		{"malformed body", http.MethodPost, "/api/v1/rooms", `{"name":`, http.StatusBadRequest, videoroom.CodeInvalidInput},
		{"invalid room input", http.MethodPost, "/api/v1/rooms", gin.H{"name": "", "maxParticipants": 2, "memberId": "alice"}, http.StatusBadRequest, videoroom.CodeInvalidInput},
		{"unknown member", http.MethodPost, "/api/v1/rooms", gin.H{"name": "r", "maxParticipants": 2, "memberId": "ghost"}, http.StatusNotFound, videoroom.CodeMemberNotFound},
		{"bad page", http.MethodGet, "/api/v1/rooms?page=abc", nil, http.StatusBadRequest, videoroom.CodeInvalidInput},
		{"negative page", http.MethodGet, "/api/v1/rooms?page=-1", nil, http.StatusBadRequest, videoroom.CodeInvalidInput},
		{"missing room", http.MethodGet, "/api/v1/rooms/nope", nil, http.StatusNotFound, videoroom.CodeRoomNotFound},
		{"delete missing room", http.MethodDelete, "/api/v1/rooms/nope", nil, http.StatusNotFound, videoroom.CodeRoomNotFound},
		{"leave missing room", http.MethodDelete, "/api/v1/rooms/nope/participants/p", nil, http.StatusNotFound, videoroom.CodeRoomNotFound},
		{"unknown status", http.MethodPut, "/api/v1/rooms/nope/status", gin.H{"status": "PAUSED"}, http.StatusBadRequest, videoroom.CodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			var e errorResponse
			decode(t, w, &e)
			assert.Equal(t, tt.code, e.Code)
			assert.NotEmpty(t, e.Error)
		})
	}
}

func TestDeleteRoomOverHTTP(t *testing.T) {
	s := newTestServer(t)
	created := s.createRoom(t, 2)

	w := s.do(t, http.MethodDelete, "/api/v1/rooms/"+created.Room.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/rooms/"+created.Room.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	s.createRoom(t, 2)
	w = s.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "qufit_rooms_operations_total")
}

func TestRoomFeedWebSocket(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.router)
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/rooms"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return s.hub.Len() == 1 }, time.Second, 5*time.Millisecond)

	created := s.createRoom(t, 2)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var event models.RoomEvent
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, models.EventRoomCreated, event.Type)
	assert.Equal(t, created.Room.ID, event.RoomID)
}

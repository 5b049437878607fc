package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"qufit/backend/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const roomMapping = `{
  "mappings": {
    "properties": {
      "roomId":          {"type": "keyword"},
      "name":            {"type": "text"},
      "status":          {"type": "keyword"},
      "maxParticipants": {"type": "integer"},
      "occupancy":       {"type": "integer"},
      "hobbies":         {"type": "keyword"},
      "personalities":   {"type": "keyword"},
      "createdAt":       {"type": "date"}
    }
  }
}`

// RoomDocument is the indexed form of a room.
type RoomDocument struct {
	RoomID          string            `json:"roomId"`
	Name            string            `json:"name"`
	Status          models.RoomStatus `json:"status"`
	MaxParticipants int               `json:"maxParticipants"`
	Occupancy       int               `json:"occupancy"`
	Hobbies         []string          `json:"hobbies"`
	Personalities   []string          `json:"personalities"`
	CreatedAt       time.Time         `json:"createdAt"`
}

// NewRoomDocument converts a room for indexing.
func NewRoomDocument(room *models.Room) RoomDocument {
	return RoomDocument{
		RoomID:          room.ID,
		Name:            room.Name,
		Status:          room.Status,
		MaxParticipants: room.MaxParticipants,
		Occupancy:       room.Occupancy(),
		Hobbies:         room.Hobbies,
		Personalities:   room.Personalities,
		CreatedAt:       room.CreatedAt,
	}
}

// RoomIndexer writes room documents to one index.
type RoomIndexer struct {
	Client *elasticsearch.Client
	Index  string
	Logger *slog.Logger
}

// NewRoomIndexer creates a RoomIndexer for index.
func NewRoomIndexer(client *elasticsearch.Client, index string) *RoomIndexer {
	return &RoomIndexer{
		Client: client,
		Index:  index,
		Logger: slog.Default(),
	}
}

// EnsureIndex creates the index with its mapping if it does not exist yet.
func (ix *RoomIndexer) EnsureIndex(ctx context.Context) error {
	res, err := ix.Client.Indices.Exists([]string{ix.Index}, ix.Client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("search: check index %s: %w", ix.Index, err)
	}
	drain(res)
	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = ix.Client.Indices.Create(ix.Index,
		ix.Client.Indices.Create.WithContext(ctx),
		ix.Client.Indices.Create.WithBody(strings.NewReader(roomMapping)),
	)
	if err != nil {
		return fmt.Errorf("search: create index %s: %w", ix.Index, err)
	}
	defer drain(res)
	if res.IsError() {
		return responseError("create index", res)
	}
	ix.Logger.Info("search index created", "index", ix.Index)
	return nil
}

// IndexRoom upserts the room document.
func (ix *RoomIndexer) IndexRoom(ctx context.Context, room *models.Room) error {
	body, err := json.Marshal(NewRoomDocument(room))
	if err != nil {
		return fmt.Errorf("search: encode room %s: %w", room.ID, err)
	}

	res, err := ix.Client.Index(ix.Index, bytes.NewReader(body),
		ix.Client.Index.WithContext(ctx),
		ix.Client.Index.WithDocumentID(room.ID),
	)
	if err != nil {
		return fmt.Errorf("search: index room %s: %w", room.ID, err)
	}
	defer drain(res)
	if res.IsError() {
		return responseError("index room", res)
	}
	return nil
}

// RemoveRoom deletes the room document. A missing document is not an error.
func (ix *RoomIndexer) RemoveRoom(ctx context.Context, roomID string) error {
	res, err := ix.Client.Delete(ix.Index, roomID, ix.Client.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("search: remove room %s: %w", roomID, err)
	}
	defer drain(res)
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return responseError("remove room", res)
	}
	return nil
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		ID     string `json:"_id"`
		Status int    `json:"status"`
	} `json:"items"`
}

// Reindex writes all rooms in one bulk request and returns how many were accepted.
func (ix *RoomIndexer) Reindex(ctx context.Context, rooms []models.Room) (int, error) {
	if len(rooms) == 0 {
		return 0, nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i := range rooms {
		meta := map[string]map[string]string{"index": {"_id": rooms[i].ID}}
		if err := enc.Encode(meta); err != nil {
			return 0, fmt.Errorf("search: encode bulk meta: %w", err)
		}
		if err := enc.Encode(NewRoomDocument(&rooms[i])); err != nil {
			return 0, fmt.Errorf("search: encode room %s: %w", rooms[i].ID, err)
		}
	}

	res, err := ix.Client.Bulk(&buf,
		ix.Client.Bulk.WithContext(ctx),
		ix.Client.Bulk.WithIndex(ix.Index),
	)
	if err != nil {
		return 0, fmt.Errorf("search: bulk index: %w", err)
	}
	defer drain(res)
	if res.IsError() {
		return 0, responseError("bulk index", res)
	}

	var br bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&br); err != nil {
		return 0, fmt.Errorf("search: decode bulk response: %w", err)
	}

	indexed := 0
	for _, item := range br.Items {
		for _, result := range item {
			if result.Status >= 200 && result.Status < 300 {
				indexed++
			} else {
				ix.Logger.Warn("bulk index item failed", "room_id", result.ID, "status", result.Status)
			}
		}
	}
	return indexed, nil
}

func responseError(op string, res *esapi.Response) error {
	body, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
	return fmt.Errorf("search: %s: %s: %s", op, res.Status(), strings.TrimSpace(string(body)))
}

func drain(res *esapi.Response) {
	if res != nil && res.Body != nil {
		_, _ = io.Copy(io.Discard, res.Body)
		_ = res.Body.Close()
	}
}

package videoroom

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"qufit/backend/internal/config"
	"qufit/backend/internal/models"
	"qufit/backend/internal/storage"
)

// ParticipantView is a participant enriched with its member profile.
type ParticipantView struct {
	ParticipantID string        `json:"participantId"`
	MemberID      string        `json:"memberId"`
	Nickname      string        `json:"nickname"`
	Gender        models.Gender `json:"gender"`
	JoinedAt      time.Time     `json:"joinedAt"`
}

// RoomDetail is a room with its participants and their aggregated tags.
type RoomDetail struct {
	models.Room
	Participants []ParticipantView `json:"participants"`
	// ParticipantHobbies and ParticipantPersonalities are the sorted unions of the
	// current participants' member tags.
	ParticipantHobbies       []string `json:"participantHobbies"`
	ParticipantPersonalities []string `json:"participantPersonalities"`
}

// RoomList is one page of joinable rooms.
type RoomList struct {
	Rooms []models.Room   `json:"rooms"`
	Page  models.PageInfo `json:"page"`
}

// QueryService serves read-only room views straight from the store.
type QueryService struct {
	Storage storage.Storage
}

// NewQueryService creates a QueryService.
func NewQueryService(s storage.Storage) *QueryService {
	return &QueryService{Storage: s}
}

// GetRoomDetail returns the room, its participants in join order and their tags.
func (q *QueryService) GetRoomDetail(ctx context.Context, roomID string) (*RoomDetail, error) {
	room, err := q.Storage.GetRoom(ctx, roomID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrRoomNotFound, roomID)
	}
	if err != nil {
		return nil, storeError("get room", err)
	}

	participants, err := q.Storage.ListParticipants(ctx, roomID)
	if err != nil {
		return nil, storeError("list participants", err)
	}
	members, err := q.Storage.ListRoomMembers(ctx, roomID)
	if err != nil {
		return nil, storeError("list room members", err)
	}

	byID := make(map[string]models.Member, len(members))
	for _, mem := range members {
		byID[mem.ID] = mem
	}

	detail := &RoomDetail{
		Room:         *room,
		Participants: make([]ParticipantView, 0, len(participants)),
	}
	hobbies := make(map[string]struct{})
	personalities := make(map[string]struct{})
	for _, p := range participants {
		mem := byID[p.MemberID]
		detail.Participants = append(detail.Participants, ParticipantView{
			ParticipantID: p.ID,
			MemberID:      p.MemberID,
			Nickname:      mem.Nickname,
			Gender:        p.Gender,
			JoinedAt:      p.JoinedAt,
		})
		for _, tag := range mem.Hobbies {
			hobbies[tag] = struct{}{}
		}
		for _, tag := range mem.Personalities {
			personalities[tag] = struct{}{}
		}
	}
	detail.ParticipantHobbies = sortedKeys(hobbies)
	detail.ParticipantPersonalities = sortedKeys(personalities)

	return detail, nil
}

// ListRooms returns READY rooms newest first. size defaults to
// config.DefaultPageSize and is capped at config.MaxPageSize.
func (q *QueryService) ListRooms(ctx context.Context, page, size int) (*RoomList, error) {
	if page < 0 {
		return nil, fmt.Errorf("%w: page must not be negative", ErrInvalidInput)
	}
	switch {
	case size <= 0:
		size = config.DefaultPageSize
	case size > config.MaxPageSize:
		size = config.MaxPageSize
	}
	if page > math.MaxInt/size {
		return nil, fmt.Errorf("%w: page %d is out of range", ErrInvalidInput, page)
	}

	p := models.Page{Number: page, Size: size}
	rooms, total, err := q.Storage.FindRoomsByStatus(ctx, models.RoomStatusReady, p)
	if err != nil {
		return nil, storeError("find rooms", err)
	}
	if rooms == nil {
		rooms = []models.Room{}
	}

	return &RoomList{Rooms: rooms, Page: models.NewPageInfo(p, total)}, nil
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

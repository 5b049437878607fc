// Package memstore is an in-process implementation of storage.Storage for
// development and tests.
//
// Transactions are atomic (an undo log restores every write when the callback
// fails) but not isolated: concurrent transactions observe each other's writes
// as they happen, and GetRoomForUpdate takes no lock. Callers serialize
// mutations per room with a roomlock.Locker, as they would under READ COMMITTED.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"qufit/backend/internal/models"
	"qufit/backend/internal/storage"
)

type roomRecord struct {
	room models.Room
	seq  uint64
}

// Store keeps rooms, participants and members in maps guarded by one RWMutex.
type Store struct {
	mu           sync.RWMutex
	rooms        map[string]roomRecord
	participants map[string]models.Participant
	members      map[string]models.Member
	seq          uint64
	now          func() time.Time
}

var _ storage.Storage = (*Store)(nil)

// New returns an empty Store.
func New() *Store {
	return &Store{
		rooms:        make(map[string]roomRecord),
		participants: make(map[string]models.Participant),
		members:      make(map[string]models.Member),
		now:          time.Now,
	}
}

// Transaction runs fn against a view that records an undo entry for every write.
func (s *Store) Transaction(ctx context.Context, fn func(tx storage.Storage) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx := &txStore{Store: s}
	if err := fn(tx); err != nil {
		tx.rollback()
		return err
	}
	return nil
}

func (s *Store) CreateRoom(ctx context.Context, room *models.Room) error {
	_, err := s.createRoom(room)
	return err
}

func (s *Store) SaveRoom(ctx context.Context, room *models.Room) error {
	_, err := s.saveRoom(room)
	return err
}

func (s *Store) GetRoom(ctx context.Context, roomID string) (*models.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.rooms[roomID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return rec.room.Clone(), nil
}

// GetRoomForUpdate is GetRoom; the store has no row locks.
func (s *Store) GetRoomForUpdate(ctx context.Context, roomID string) (*models.Room, error) {
	return s.GetRoom(ctx, roomID)
}

func (s *Store) DeleteRoom(ctx context.Context, roomID string) error {
	_, err := s.deleteRoom(roomID)
	return err
}

func (s *Store) FindRoomsByStatus(ctx context.Context, status models.RoomStatus, page models.Page) ([]models.Room, int64, error) {
	s.mu.RLock()
	matched := make([]roomRecord, 0, len(s.rooms))
	for _, rec := range s.rooms {
		if rec.room.Status == status {
			matched = append(matched, rec)
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.room.CreatedAt.Equal(b.room.CreatedAt) {
			return a.room.CreatedAt.After(b.room.CreatedAt)
		}
		return a.seq > b.seq
	})

	total := int64(len(matched))
	start := page.Offset()
	if start < 0 || start >= len(matched) || page.Size <= 0 {
		return []models.Room{}, total, nil
	}
	end := start + page.Size
	if end > len(matched) || end < start {
		end = len(matched)
	}

	rooms := make([]models.Room, 0, end-start)
	for _, rec := range matched[start:end] {
		rooms = append(rooms, *rec.room.Clone())
	}
	return rooms, total, nil
}

func (s *Store) CreateParticipant(ctx context.Context, p *models.Participant) error {
	_, err := s.createParticipant(p)
	return err
}

func (s *Store) GetParticipant(ctx context.Context, participantID string) (*models.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.participants[participantID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &p, nil
}

func (s *Store) FindParticipant(ctx context.Context, roomID, memberID string) (*models.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.participants {
		if p.RoomID == roomID && p.MemberID == memberID {
			found := p
			return &found, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *Store) ListParticipants(ctx context.Context, roomID string) ([]models.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.participantsOf(roomID), nil
}

func (s *Store) DeleteParticipant(ctx context.Context, participantID string) error {
	_, err := s.deleteParticipant(participantID)
	return err
}

func (s *Store) SaveMember(ctx context.Context, member *models.Member) error {
	_, err := s.saveMember(member)
	return err
}

func (s *Store) GetMember(ctx context.Context, memberID string) (*models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.members[memberID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return m.Clone(), nil
}

func (s *Store) ListRoomMembers(ctx context.Context, roomID string) ([]models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var members []models.Member
	for _, p := range s.participantsOf(roomID) {
		if m, ok := s.members[p.MemberID]; ok {
			members = append(members, *m.Clone())
		}
	}
	return members, nil
}

// participantsOf must be called with s.mu held.
func (s *Store) participantsOf(roomID string) []models.Participant {
	var out []models.Participant
	for _, p := range s.participants {
		if p.RoomID == roomID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].JoinedAt.Before(out[j].JoinedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// The write helpers below apply one change and return the function that reverts it.

func (s *Store) createRoom(room *models.Room) (func(), error) {
	if err := room.BeforeCreate(nil); err != nil {
		return nil, err
	}
	now := s.now()
	if room.CreatedAt.IsZero() {
		room.CreatedAt = now
	}
	room.UpdatedAt = now

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.rooms[room.ID]; exists {
		return nil, fmt.Errorf("room %s already exists", room.ID)
	}
	s.seq++
	s.rooms[room.ID] = roomRecord{room: *room.Clone(), seq: s.seq}

	id := room.ID
	return func() {
		s.mu.Lock()
		delete(s.rooms, id)
		s.mu.Unlock()
	}, nil
}

func (s *Store) saveRoom(room *models.Room) (func(), error) {
	room.UpdatedAt = s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	prev, existed := s.rooms[room.ID]
	seq := prev.seq
	if !existed {
		s.seq++
		seq = s.seq
	}
	s.rooms[room.ID] = roomRecord{room: *room.Clone(), seq: seq}

	id := room.ID
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if existed {
			s.rooms[id] = prev
		} else {
			delete(s.rooms, id)
		}
	}, nil
}

func (s *Store) deleteRoom(roomID string) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.rooms[roomID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	removed := s.participantsOf(roomID)
	for _, p := range removed {
		delete(s.participants, p.ID)
	}
	delete(s.rooms, roomID)

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.rooms[roomID] = rec
		for _, p := range removed {
			s.participants[p.ID] = p
		}
	}, nil
}

func (s *Store) createParticipant(p *models.Participant) (func(), error) {
	if err := p.BeforeCreate(nil); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.participants[p.ID]; exists {
		return nil, fmt.Errorf("participant %s already exists", p.ID)
	}
	for _, other := range s.participants {
		if other.RoomID == p.RoomID && other.MemberID == p.MemberID {
			return nil, fmt.Errorf("member %s already participates in room %s", p.MemberID, p.RoomID)
		}
	}
	s.participants[p.ID] = *p

	id := p.ID
	return func() {
		s.mu.Lock()
		delete(s.participants, id)
		s.mu.Unlock()
	}, nil
}

func (s *Store) deleteParticipant(participantID string) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.participants[participantID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	delete(s.participants, participantID)

	return func() {
		s.mu.Lock()
		s.participants[participantID] = prev
		s.mu.Unlock()
	}, nil
}

func (s *Store) saveMember(member *models.Member) (func(), error) {
	if member.ID == "" {
		return nil, fmt.Errorf("member id is required")
	}
	if member.CreatedAt.IsZero() {
		member.CreatedAt = s.now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	prev, existed := s.members[member.ID]
	s.members[member.ID] = *member.Clone()

	id := member.ID
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if existed {
			s.members[id] = prev
		} else {
			delete(s.members, id)
		}
	}, nil
}

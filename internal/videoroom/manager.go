// Package videoroom keeps a room's participants, capacity counters and status
// consistent under concurrent create, join, leave, update and delete requests.
package videoroom

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"qufit/backend/internal/metrics"
	"qufit/backend/internal/models"
	"qufit/backend/internal/roomlock"
	"qufit/backend/internal/storage"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// TokenIssuer signs room-join grants.
type TokenIssuer interface {
	IssueJoinToken(roomID, memberID string) (string, error)
}

// EventPublisher receives committed room changes.
type EventPublisher interface {
	PublishRoomEvent(ctx context.Context, event models.RoomEvent) error
}

// RoomIndexer mirrors rooms into the search index.
type RoomIndexer interface {
	IndexRoom(ctx context.Context, room *models.Room) error
	RemoveRoom(ctx context.Context, roomID string) error
}

// JoinResult is returned by CreateRoom and JoinRoom. When the join committed but
// the token could not be issued, it is returned along with the error and Token is empty.
type JoinResult struct {
	Room        *models.Room
	Participant *models.Participant
	Token       string
}

// LeaveResult is returned by LeaveRoom.
type LeaveResult struct {
	// RoomDeleted is true when the last participant left and the room was removed.
	RoomDeleted bool
}

// Manager is the room lifecycle manager. Every mutation holds the room lock
// for the duration of one store transaction.
type Manager struct {
	Storage storage.Storage
	Locker  roomlock.Locker
	Tokens  TokenIssuer

	// Events and Index are optional.
	Events EventPublisher
	Index  RoomIndexer

	Logger *slog.Logger

	validate *validator.Validate
	now      func() time.Time
}

// NewManager creates a Manager.
func NewManager(s storage.Storage, locker roomlock.Locker, tokens TokenIssuer) *Manager {
	return &Manager{
		Storage:  s,
		Locker:   locker,
		Tokens:   tokens,
		Logger:   slog.Default(),
		validate: validator.New(),
		now:      time.Now,
	}
}

// CreateRoom persists a READY room and joins the creator as participant zero.
func (m *Manager) CreateRoom(ctx context.Context, in CreateRoomInput) (res *JoinResult, err error) {
	defer m.observe("create", time.Now(), &err)

	in.normalize()
	if err := validateInput(m.validate, &in); err != nil {
		return nil, err
	}

	now := m.now()
	room := &models.Room{
		ID:              uuid.New().String(),
		Name:            in.Name,
		MaxParticipants: in.MaxParticipants,
		Status:          models.RoomStatusReady,
		Hobbies:         in.Hobbies,
		Personalities:   in.Personalities,
		CreatedBy:       in.MemberID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	var participant *models.Participant
	err = m.withRoomLock(ctx, room.ID, func() error {
		return m.Storage.Transaction(ctx, func(tx storage.Storage) error {
			// 1. The creator must exist before anything is written
			if _, err := m.loadMember(ctx, tx, in.MemberID); err != nil {
				return err
			}

			// 2. Persist the empty room
			if err := tx.CreateRoom(ctx, room); err != nil {
				return storeError("create room", err)
			}

			// 3. Join the creator
			p, _, err := m.join(ctx, tx, room, in.MemberID)
			participant = p
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	token, err := m.issueToken(room.ID, in.MemberID)
	if err != nil {
		m.Logger.Error("room created without join token", "room_id", room.ID, "participant_id", participant.ID, "error", err)
	} else {
		m.Logger.Info("room created", "room_id", room.ID, "member_id", in.MemberID, "max_participants", room.MaxParticipants)
	}
	m.publish(ctx, models.RoomEvent{Type: models.EventRoomCreated, RoomID: room.ID, Room: room.Clone(), MemberID: in.MemberID})
	m.index(ctx, room)

	return &JoinResult{Room: room, Participant: participant, Token: token}, err
}

// JoinRoom adds memberID to the room and returns a join token.
// Joining a room the member is already in returns the existing participant
// with a fresh token and leaves the counters untouched.
func (m *Manager) JoinRoom(ctx context.Context, roomID, memberID string) (res *JoinResult, err error) {
	defer m.observe("join", time.Now(), &err)

	if roomID == "" || memberID == "" {
		return nil, fmt.Errorf("%w: room id and member id are required", ErrInvalidInput)
	}

	var (
		room        *models.Room
		participant *models.Participant
		joined      bool
	)
	err = m.withRoomLock(ctx, roomID, func() error {
		return m.Storage.Transaction(ctx, func(tx storage.Storage) error {
			r, err := m.loadRoomForUpdate(ctx, tx, roomID)
			if err != nil {
				return err
			}
			room = r
			participant, joined, err = m.join(ctx, tx, room, memberID)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	token, err := m.issueToken(roomID, memberID)
	if err != nil {
		m.Logger.Error("member joined room without join token", "room_id", roomID, "participant_id", participant.ID, "error", err)
	}

	if joined {
		m.Logger.Info("member joined room", "room_id", roomID, "member_id", memberID, "participant_id", participant.ID)
		m.publish(ctx, models.RoomEvent{
			Type:          models.EventParticipantJoined,
			RoomID:        roomID,
			Room:          room.Clone(),
			ParticipantID: participant.ID,
			MemberID:      memberID,
		})
		m.index(ctx, room)
	}

	return &JoinResult{Room: room, Participant: participant, Token: token}, err
}

// join adds memberID to room inside tx. room must be locked and loaded from tx.
// The bool result is false when the member was already a participant.
func (m *Manager) join(ctx context.Context, tx storage.Storage, room *models.Room, memberID string) (*models.Participant, bool, error) {
	member, err := m.loadMember(ctx, tx, memberID)
	if err != nil {
		return nil, false, err
	}

	existing, err := tx.FindParticipant(ctx, room.ID, memberID)
	switch {
	case err == nil:
		return existing, false, nil
	case !errors.Is(err, storage.ErrNotFound):
		return nil, false, storeError("find participant", err)
	}

	if room.Status != models.RoomStatusReady {
		return nil, false, fmt.Errorf("%w: room %s is %s", ErrRoomNotReady, room.ID, room.Status)
	}
	if room.IsFull() {
		return nil, false, fmt.Errorf("%w: %d/%d", ErrRoomFull, room.Occupancy(), room.MaxParticipants)
	}

	if err := room.Increment(member.Gender); err != nil {
		return nil, false, fmt.Errorf("%w: member %s: %v", ErrInvalidInput, memberID, err)
	}

	participant := &models.Participant{
		RoomID:   room.ID,
		MemberID: memberID,
		Gender:   member.Gender,
		JoinedAt: m.now(),
	}
	if err := tx.CreateParticipant(ctx, participant); err != nil {
		return nil, false, storeError("create participant", err)
	}

	room.UpdatedAt = m.now()
	if err := tx.SaveRoom(ctx, room); err != nil {
		return nil, false, storeError("save room", err)
	}
	return participant, true, nil
}

// LeaveRoom removes a participant, addressed by its own participant id.
// When it is the last one the room is deleted with it.
func (m *Manager) LeaveRoom(ctx context.Context, roomID, participantID string) (res *LeaveResult, err error) {
	defer m.observe("leave", time.Now(), &err)

	if roomID == "" || participantID == "" {
		return nil, fmt.Errorf("%w: room id and participant id are required", ErrInvalidInput)
	}

	var (
		room        *models.Room
		participant *models.Participant
		deleted     bool
	)
	err = m.withRoomLock(ctx, roomID, func() error {
		return m.Storage.Transaction(ctx, func(tx storage.Storage) error {
			// 1. Find the room
			r, err := m.loadRoomForUpdate(ctx, tx, roomID)
			if err != nil {
				return err
			}
			room = r

			// 2. The participant must belong to this room
			p, err := tx.GetParticipant(ctx, participantID)
			if errors.Is(err, storage.ErrNotFound) || (err == nil && p.RoomID != roomID) {
				return fmt.Errorf("%w: %s in room %s", ErrParticipantNotFound, participantID, roomID)
			}
			if err != nil {
				return storeError("get participant", err)
			}
			participant = p

			// 3. Last one out removes the room
			if room.Occupancy() <= 1 {
				if err := tx.DeleteRoom(ctx, roomID); err != nil {
					return storeError("delete room", err)
				}
				deleted = true
				return nil
			}

			// 4. Remove the membership and its counter
			if err := room.Decrement(p.Gender); err != nil {
				if errors.Is(err, models.ErrCounterUnderflow) {
					return fmt.Errorf("%w: room %s: %v", ErrNegativeCounter, roomID, err)
				}
				return fmt.Errorf("%w: participant %s: %v", ErrInvalidInput, participantID, err)
			}
			if err := tx.DeleteParticipant(ctx, p.ID); err != nil {
				return storeError("delete participant", err)
			}
			room.UpdatedAt = m.now()
			return storeError("save room", tx.SaveRoom(ctx, room))
		})
	})
	if err != nil {
		return nil, err
	}

	m.Logger.Info("participant left room", "room_id", roomID, "participant_id", participantID, "room_deleted", deleted)
	m.publish(ctx, models.RoomEvent{
		Type:          models.EventParticipantLeft,
		RoomID:        roomID,
		ParticipantID: participantID,
		MemberID:      participant.MemberID,
	})
	if deleted {
		m.publish(ctx, models.RoomEvent{Type: models.EventRoomDeleted, RoomID: roomID})
		m.unindex(ctx, roomID)
	} else {
		m.index(ctx, room)
	}

	return &LeaveResult{RoomDeleted: deleted}, nil
}

// UpdateRoom overwrites name, capacity and both tag sets.
func (m *Manager) UpdateRoom(ctx context.Context, roomID string, in UpdateRoomInput) (res *models.Room, err error) {
	defer m.observe("update", time.Now(), &err)

	in.normalize()
	if err := validateInput(m.validate, &in); err != nil {
		return nil, err
	}

	var room *models.Room
	err = m.withRoomLock(ctx, roomID, func() error {
		return m.Storage.Transaction(ctx, func(tx storage.Storage) error {
			r, err := m.loadRoomForUpdate(ctx, tx, roomID)
			if err != nil {
				return err
			}
			if occupancy := r.Occupancy(); occupancy > in.MaxParticipants {
				return fmt.Errorf("%w: %d participants, requested capacity %d", ErrInvalidCapacity, occupancy, in.MaxParticipants)
			}

			r.Name = in.Name
			r.MaxParticipants = in.MaxParticipants
			r.Hobbies = in.Hobbies
			r.Personalities = in.Personalities
			r.UpdatedAt = m.now()
			if err := tx.SaveRoom(ctx, r); err != nil {
				return storeError("save room", err)
			}
			room = r
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	m.publish(ctx, models.RoomEvent{Type: models.EventRoomUpdated, RoomID: roomID, Room: room.Clone()})
	m.index(ctx, room)
	return room, nil
}

// DeleteRoom removes the room and all of its participants.
func (m *Manager) DeleteRoom(ctx context.Context, roomID string) (err error) {
	defer m.observe("delete", time.Now(), &err)

	err = m.withRoomLock(ctx, roomID, func() error {
		return m.Storage.Transaction(ctx, func(tx storage.Storage) error {
			if _, err := m.loadRoomForUpdate(ctx, tx, roomID); err != nil {
				return err
			}
			return storeError("delete room", tx.DeleteRoom(ctx, roomID))
		})
	})
	if err != nil {
		return err
	}

	m.Logger.Info("room deleted", "room_id", roomID)
	m.publish(ctx, models.RoomEvent{Type: models.EventRoomDeleted, RoomID: roomID})
	m.unindex(ctx, roomID)
	return nil
}

// SetRoomStatus moves a room between READY and ACTIVE.
func (m *Manager) SetRoomStatus(ctx context.Context, roomID string, status models.RoomStatus) (res *models.Room, err error) {
	defer m.observe("set_status", time.Now(), &err)

	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}

	var (
		room    *models.Room
		changed bool
	)
	err = m.withRoomLock(ctx, roomID, func() error {
		return m.Storage.Transaction(ctx, func(tx storage.Storage) error {
			r, err := m.loadRoomForUpdate(ctx, tx, roomID)
			if err != nil {
				return err
			}
			room = r
			if r.Status == status {
				return nil
			}
			r.Status = status
			r.UpdatedAt = m.now()
			changed = true
			return storeError("save room", tx.SaveRoom(ctx, r))
		})
	})
	if err != nil {
		return nil, err
	}

	if changed {
		m.publish(ctx, models.RoomEvent{Type: models.EventRoomStatusChanged, RoomID: roomID, Room: room.Clone()})
		m.index(ctx, room)
	}
	return room, nil
}

// withRoomLock runs fn while holding the lock of roomID.
func (m *Manager) withRoomLock(ctx context.Context, roomID string, fn func() error) error {
	unlock, err := m.Locker.Lock(ctx, roomID)
	if err != nil {
		return storeError("lock room", err)
	}
	defer unlock()
	return fn()
}

func (m *Manager) loadRoomForUpdate(ctx context.Context, tx storage.Storage, roomID string) (*models.Room, error) {
	room, err := tx.GetRoomForUpdate(ctx, roomID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrRoomNotFound, roomID)
	}
	if err != nil {
		return nil, storeError("get room", err)
	}
	return room, nil
}

func (m *Manager) loadMember(ctx context.Context, tx storage.Storage, memberID string) (*models.Member, error) {
	member, err := tx.GetMember(ctx, memberID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrMemberNotFound, memberID)
	}
	if err != nil {
		return nil, storeError("get member", err)
	}
	return member, nil
}

func (m *Manager) issueToken(roomID, memberID string) (string, error) {
	token, err := m.Tokens.IssueJoinToken(roomID, memberID)
	if err != nil {
		return "", fmt.Errorf("issue join token: %w", err)
	}
	metrics.TokenIssued()
	return token, nil
}

// publish and index run after commit. Their failures are logged, not returned.
func (m *Manager) publish(ctx context.Context, event models.RoomEvent) {
	if m.Events == nil {
		return
	}
	event.At = m.now()
	if err := m.Events.PublishRoomEvent(context.WithoutCancel(ctx), event); err != nil {
		m.Logger.Warn("failed to publish room event", "room_id", event.RoomID, "type", event.Type, "error", err)
	}
}

func (m *Manager) index(ctx context.Context, room *models.Room) {
	if m.Index == nil {
		return
	}
	if err := m.Index.IndexRoom(context.WithoutCancel(ctx), room); err != nil {
		m.Logger.Warn("failed to index room", "room_id", room.ID, "error", err)
	}
}

func (m *Manager) unindex(ctx context.Context, roomID string) {
	if m.Index == nil {
		return
	}
	if err := m.Index.RemoveRoom(context.WithoutCancel(ctx), roomID); err != nil {
		m.Logger.Warn("failed to remove room from index", "room_id", roomID, "error", err)
	}
}

func (m *Manager) observe(operation string, start time.Time, err *error) {
	code := ErrorCode(*err)
	metrics.ObserveOperation(operation, code, start)
	if code == CodeStoreError || code == CodeInternal {
		m.Logger.Error("room operation failed", "operation", operation, "error", *err)
	}
}

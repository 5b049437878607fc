package videoroom_test

import (
	"context"

	"qufit/backend/internal/models"
	"qufit/backend/internal/storage"

	"github.com/stretchr/testify/mock"
)

type MockStorage struct {
	mock.Mock
}

var _ storage.Storage = (*MockStorage)(nil)

// Transaction runs fn against the mock itself.
func (m *MockStorage) Transaction(ctx context.Context, fn func(tx storage.Storage) error) error {
	m.Called(ctx)
	return fn(m)
}

func (m *MockStorage) CreateRoom(ctx context.Context, room *models.Room) error {
	args := m.Called(ctx, room)
	return args.Error(0)
}

func (m *MockStorage) SaveRoom(ctx context.Context, room *models.Room) error {
	args := m.Called(ctx, room)
	return args.Error(0)
}

func (m *MockStorage) GetRoom(ctx context.Context, roomID string) (*models.Room, error) {
	args := m.Called(ctx, roomID)
	room, _ := args.Get(0).(*models.Room)
	return room, args.Error(1)
}

func (m *MockStorage) GetRoomForUpdate(ctx context.Context, roomID string) (*models.Room, error) {
	args := m.Called(ctx, roomID)
	room, _ := args.Get(0).(*models.Room)
	return room, args.Error(1)
}

func (m *MockStorage) DeleteRoom(ctx context.Context, roomID string) error {
	args := m.Called(ctx, roomID)
	return args.Error(0)
}

func (m *MockStorage) FindRoomsByStatus(ctx context.Context, status models.RoomStatus, page models.Page) ([]models.Room, int64, error) {
	args := m.Called(ctx, status, page)
	rooms, _ := args.Get(0).([]models.Room)
	return rooms, args.Get(1).(int64), args.Error(2)
}

func (m *MockStorage) CreateParticipant(ctx context.Context, p *models.Participant) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockStorage) GetParticipant(ctx context.Context, participantID string) (*models.Participant, error) {
	args := m.Called(ctx, participantID)
	p, _ := args.Get(0).(*models.Participant)
	return p, args.Error(1)
}

func (m *MockStorage) FindParticipant(ctx context.Context, roomID, memberID string) (*models.Participant, error) {
	args := m.Called(ctx, roomID, memberID)
	p, _ := args.Get(0).(*models.Participant)
	return p, args.Error(1)
}

func (m *MockStorage) ListParticipants(ctx context.Context, roomID string) ([]models.Participant, error) {
	args := m.Called(ctx, roomID)
	ps, _ := args.Get(0).([]models.Participant)
	return ps, args.Error(1)
}

func (m *MockStorage) DeleteParticipant(ctx context.Context, participantID string) error {
	args := m.Called(ctx, participantID)
	return args.Error(0)
}

func (m *MockStorage) SaveMember(ctx context.Context, member *models.Member) error {
	args := m.Called(ctx, member)
	return args.Error(0)
}

func (m *MockStorage) GetMember(ctx context.Context, memberID string) (*models.Member, error) {
	args := m.Called(ctx, memberID)
	member, _ := args.Get(0).(*models.Member)
	return member, args.Error(1)
}

func (m *MockStorage) ListRoomMembers(ctx context.Context, roomID string) ([]models.Member, error) {
	args := m.Called(ctx, roomID)
	members, _ := args.Get(0).([]models.Member)
	return members, args.Error(1)
}

package storage

import (
	"context"
	"errors"
	"log/slog"

	"qufit/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Storage is the persistence boundary of the room core.
// Methods called on the Storage passed to a Transaction callback run inside that transaction.
type Storage interface {
	Transaction(ctx context.Context, fn func(tx Storage) error) error

	CreateRoom(ctx context.Context, room *models.Room) error
	SaveRoom(ctx context.Context, room *models.Room) error
	GetRoom(ctx context.Context, roomID string) (*models.Room, error)
	GetRoomForUpdate(ctx context.Context, roomID string) (*models.Room, error)
	DeleteRoom(ctx context.Context, roomID string) error
	FindRoomsByStatus(ctx context.Context, status models.RoomStatus, page models.Page) ([]models.Room, int64, error)

	CreateParticipant(ctx context.Context, p *models.Participant) error
	GetParticipant(ctx context.Context, participantID string) (*models.Participant, error)
	FindParticipant(ctx context.Context, roomID, memberID string) (*models.Participant, error)
	ListParticipants(ctx context.Context, roomID string) ([]models.Participant, error)
	DeleteParticipant(ctx context.Context, participantID string) error

	SaveMember(ctx context.Context, member *models.Member) error
	GetMember(ctx context.Context, memberID string) (*models.Member, error)
	ListRoomMembers(ctx context.Context, roomID string) ([]models.Member, error)
}

// Service implements Storage on PostgreSQL through gorm, and room events on Redis.
type Service struct {
	DB     *gorm.DB
	Redis  *redis.Client
	Logger *slog.Logger

	// inTx marks a Service bound to one transaction, whose connection
	// cannot serve two queries at once.
	inTx bool
}

// NewStorageService Constructor. rdb may be nil when events are not needed.
func NewStorageService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{
		DB:     db,
		Redis:  rdb,
		Logger: slog.Default(),
	}
}

// Models lists every table owned by the service, in migration order.
func Models() []interface{} {
	return []interface{}{
		&models.Member{},
		&models.Room{},
		&models.Participant{},
	}
}

// AutoMigrate creates or updates the tables.
func (s *Service) AutoMigrate(ctx context.Context) error {
	return s.DB.WithContext(ctx).AutoMigrate(Models()...)
}

// Transaction runs fn inside a database transaction. fn's error rolls it back.
func (s *Service) Transaction(ctx context.Context, fn func(tx Storage) error) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Service{DB: tx, Redis: s.Redis, Logger: s.Logger, inTx: true})
	})
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

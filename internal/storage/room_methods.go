package storage

import (
	"context"

	"qufit/backend/internal/models"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm/clause"
)

// CreateRoom inserts a new room. The ID is generated when empty.
func (s *Service) CreateRoom(ctx context.Context, room *models.Room) error {
	if err := s.DB.WithContext(ctx).Create(room).Error; err != nil {
		s.Logger.Error("failed to create room", "error", err)
		return err
	}
	return nil
}

// SaveRoom writes every column of an existing room.
func (s *Service) SaveRoom(ctx context.Context, room *models.Room) error {
	if err := s.DB.WithContext(ctx).Save(room).Error; err != nil {
		s.Logger.Error("failed to save room", "room_id", room.ID, "error", err)
		return err
	}
	return nil
}

func (s *Service) GetRoom(ctx context.Context, roomID string) (*models.Room, error) {
	var room models.Room
	if err := s.DB.WithContext(ctx).Where("id = ?", roomID).First(&room).Error; err != nil {
		return nil, notFound(err)
	}
	return &room, nil
}

// GetRoomForUpdate loads a room and locks its row until the surrounding transaction ends.
func (s *Service) GetRoomForUpdate(ctx context.Context, roomID string) (*models.Room, error) {
	var room models.Room
	err := s.DB.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", roomID).
		First(&room).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &room, nil
}

// DeleteRoom removes a room together with all of its participants.
func (s *Service) DeleteRoom(ctx context.Context, roomID string) error {
	db := s.DB.WithContext(ctx)
	if err := db.Where("room_id = ?", roomID).Delete(&models.Participant{}).Error; err != nil {
		s.Logger.Error("failed to delete room participants", "room_id", roomID, "error", err)
		return err
	}

	result := db.Where("id = ?", roomID).Delete(&models.Room{})
	if result.Error != nil {
		s.Logger.Error("failed to delete room", "room_id", roomID, "error", result.Error)
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// FindRoomsByStatus returns one page of rooms in the given status, newest first,
// and the total number of rooms in that status. The count and page queries run
// concurrently except inside a transaction.
func (s *Service) FindRoomsByStatus(ctx context.Context, status models.RoomStatus, page models.Page) ([]models.Room, int64, error) {
	var (
		rooms []models.Room
		total int64
	)

	g, gctx := errgroup.WithContext(ctx)
	if s.inTx {
		g.SetLimit(1)
	}
	g.Go(func() error {
		return s.DB.WithContext(gctx).
			Model(&models.Room{}).
			Where("status = ?", status).
			Count(&total).Error
	})
	g.Go(func() error {
		return s.DB.WithContext(gctx).
			Where("status = ?", status).
			Order("created_at DESC").
			Order("id DESC").
			Offset(page.Offset()).
			Limit(page.Size).
			Find(&rooms).Error
	})

	if err := g.Wait(); err != nil {
		s.Logger.Error("failed to list rooms", "status", status, "error", err)
		return nil, 0, err
	}
	return rooms, total, nil
}

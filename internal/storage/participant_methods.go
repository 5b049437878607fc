package storage

import (
	"context"

	"qufit/backend/internal/models"
)

// CreateParticipant inserts a membership row. The ID is generated when empty.
func (s *Service) CreateParticipant(ctx context.Context, p *models.Participant) error {
	if err := s.DB.WithContext(ctx).Create(p).Error; err != nil {
		s.Logger.Error("failed to create participant", "room_id", p.RoomID, "member_id", p.MemberID, "error", err)
		return err
	}
	return nil
}

func (s *Service) GetParticipant(ctx context.Context, participantID string) (*models.Participant, error) {
	var p models.Participant
	if err := s.DB.WithContext(ctx).Where("id = ?", participantID).First(&p).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// FindParticipant looks up the membership of memberID in roomID.
func (s *Service) FindParticipant(ctx context.Context, roomID, memberID string) (*models.Participant, error) {
	var p models.Participant
	err := s.DB.WithContext(ctx).
		Where("room_id = ? AND member_id = ?", roomID, memberID).
		First(&p).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// ListParticipants returns the participants of a room in join order.
func (s *Service) ListParticipants(ctx context.Context, roomID string) ([]models.Participant, error) {
	var participants []models.Participant
	err := s.DB.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("joined_at ASC").
		Order("id ASC").
		Find(&participants).Error
	if err != nil {
		s.Logger.Error("failed to list participants", "room_id", roomID, "error", err)
		return nil, err
	}
	return participants, nil
}

func (s *Service) DeleteParticipant(ctx context.Context, participantID string) error {
	result := s.DB.WithContext(ctx).Where("id = ?", participantID).Delete(&models.Participant{})
	if result.Error != nil {
		s.Logger.Error("failed to delete participant", "participant_id", participantID, "error", result.Error)
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

package storage

import (
	"context"

	"qufit/backend/internal/models"
)

// SaveMember upserts a member. Members are owned by the profile service; this is
// used by the admin CLI to seed them.
func (s *Service) SaveMember(ctx context.Context, member *models.Member) error {
	if err := s.DB.WithContext(ctx).Save(member).Error; err != nil {
		s.Logger.Error("failed to save member", "member_id", member.ID, "error", err)
		return err
	}
	return nil
}

func (s *Service) GetMember(ctx context.Context, memberID string) (*models.Member, error) {
	var member models.Member
	if err := s.DB.WithContext(ctx).Where("id = ?", memberID).First(&member).Error; err != nil {
		return nil, notFound(err)
	}
	return &member, nil
}

// ListRoomMembers returns the members currently participating in a room.
func (s *Service) ListRoomMembers(ctx context.Context, roomID string) ([]models.Member, error) {
	var members []models.Member
	err := s.DB.WithContext(ctx).
		Joins("JOIN participants ON participants.member_id = members.id").
		Where("participants.room_id = ?", roomID).
		Order("participants.joined_at ASC").
		Find(&members).Error
	if err != nil {
		s.Logger.Error("failed to list room members", "room_id", roomID, "error", err)
		return nil, err
	}
	return members, nil
}

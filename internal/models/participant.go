package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Participant is the membership edge between a Member and a Room.
type Participant struct {
	// ID is the participant identifier (UUID). Leave requests address it.
	ID string `gorm:"primaryKey;type:varchar(36)" json:"participantId"`
	// RoomID references the owning room.
	RoomID string `gorm:"type:varchar(36);not null;uniqueIndex:idx_participants_room_member" json:"roomId"`
	// MemberID references the external member.
	MemberID string `gorm:"type:varchar(64);not null;uniqueIndex:idx_participants_room_member" json:"memberId"`
	// Gender is the member's gender at join time; leave decrements this bucket.
	Gender Gender `gorm:"not null" json:"gender"`
	// JoinedAt is when the member joined the room.
	JoinedAt time.Time `gorm:"not null" json:"joinedAt"`
}

// BeforeCreate generates a UUID for the participant when none is set.
func (p *Participant) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return
}

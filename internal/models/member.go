package models

import "time"

// Member is an external user identity. The room core only reads it.
type Member struct {
	ID            string    `gorm:"primaryKey;type:varchar(64)" json:"memberId"`
	Nickname      string    `gorm:"type:varchar(50)" json:"nickname"`
	Gender        Gender    `gorm:"not null" json:"gender"`
	Hobbies       []string  `gorm:"serializer:json" json:"hobbies"`
	Personalities []string  `gorm:"serializer:json" json:"personalities"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Clone returns a deep copy of the member.
func (m *Member) Clone() *Member {
	c := *m
	c.Hobbies = cloneStrings(m.Hobbies)
	c.Personalities = cloneStrings(m.Personalities)
	return &c
}

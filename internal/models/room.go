package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RoomStatus is the lifecycle state of a video room.
type RoomStatus string

const (
	// RoomStatusReady marks a room that accepts joins and shows up in listings.
	RoomStatusReady RoomStatus = "READY"
	// RoomStatusActive marks a room whose session has started.
	RoomStatusActive RoomStatus = "ACTIVE"
)

// Valid reports whether s is a known status.
func (s RoomStatus) Valid() bool {
	return s == RoomStatusReady || s == RoomStatusActive
}

var (
	// ErrUnknownGender is returned when a counter is addressed with an invalid Gender.
	ErrUnknownGender = errors.New("unknown gender")
	// ErrCounterUnderflow is returned when a counter would drop below zero.
	ErrCounterUnderflow = errors.New("counter would become negative")
)

// Room is a matchmaking video room.
// Membership is stored in the participants table; the per-gender counters
// mirror it and are only changed together with a participant row.
type Room struct {
	// ID is the room identifier (UUID).
	ID string `gorm:"primaryKey;type:varchar(36)" json:"roomId"`
	// Name is the display name. Names are not unique.
	Name string `gorm:"type:varchar(100);not null" json:"name"`
	// MaxParticipants is the capacity of the room.
	MaxParticipants int `gorm:"not null" json:"maxParticipants"`
	// CurMaleCount is the number of male participants currently in the room.
	CurMaleCount int `gorm:"not null;default:0" json:"curMaleCount"`
	// CurFemaleCount is the number of female participants currently in the room.
	CurFemaleCount int `gorm:"not null;default:0" json:"curFemaleCount"`
	// Status is READY or ACTIVE.
	Status RoomStatus `gorm:"type:varchar(16);not null;index:idx_rooms_status_created" json:"status"`
	// Hobbies are the hobby tags chosen by the room creator.
	Hobbies []string `gorm:"serializer:json" json:"hobbies"`
	// Personalities are the personality tags chosen by the room creator.
	Personalities []string `gorm:"serializer:json" json:"personalities"`
	// CreatedBy is the member id of the creator.
	CreatedBy string `gorm:"type:varchar(64)" json:"createdBy"`
	// CreatedAt is used to order listings newest-first.
	CreatedAt time.Time `gorm:"index:idx_rooms_status_created" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BeforeCreate generates a UUID for the room when none is set.
func (r *Room) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return
}

func (r *Room) counter(g Gender) (*int, error) {
	counters := map[Gender]*int{
		GenderMale:   &r.CurMaleCount,
		GenderFemale: &r.CurFemaleCount,
	}
	c, ok := counters[g]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownGender, uint8(g))
	}
	return c, nil
}

// Count returns the number of participants of gender g.
func (r *Room) Count(g Gender) int {
	c, err := r.counter(g)
	if err != nil {
		return 0
	}
	return *c
}

// Occupancy is the total number of participants in the room.
func (r *Room) Occupancy() int {
	total := 0
	for _, g := range Genders {
		total += r.Count(g)
	}
	return total
}

// IsFull reports whether another participant would exceed the capacity.
func (r *Room) IsFull() bool {
	return r.Occupancy() >= r.MaxParticipants
}

// Increment adds one participant of gender g.
func (r *Room) Increment(g Gender) error {
	c, err := r.counter(g)
	if err != nil {
		return err
	}
	*c++
	return nil
}

// Decrement removes one participant of gender g. It never lets a counter go negative.
func (r *Room) Decrement(g Gender) error {
	c, err := r.counter(g)
	if err != nil {
		return err
	}
	if *c <= 0 {
		return fmt.Errorf("%w: %s", ErrCounterUnderflow, g)
	}
	*c--
	return nil
}

// Clone returns a deep copy of the room.
func (r *Room) Clone() *Room {
	c := *r
	c.Hobbies = cloneStrings(r.Hobbies)
	c.Personalities = cloneStrings(r.Personalities)
	return &c
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

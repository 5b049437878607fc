package videoroom

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// CreateRoomInput is the request to open a room with its creator as first participant.
type CreateRoomInput struct {
	Name            string   `json:"name" validate:"required,max=100"`
	MaxParticipants int      `json:"maxParticipants" validate:"min=1"`
	Hobbies         []string `json:"hobbies" validate:"dive,required,max=30"`
	Personalities   []string `json:"personalities" validate:"dive,required,max=30"`
	MemberID        string   `json:"memberId" validate:"required"`
}

// UpdateRoomInput replaces a room's editable fields wholesale.
type UpdateRoomInput struct {
	Name            string   `json:"name" validate:"required,max=100"`
	MaxParticipants int      `json:"maxParticipants" validate:"min=1"`
	Hobbies         []string `json:"hobbies" validate:"dive,required,max=30"`
	Personalities   []string `json:"personalities" validate:"dive,required,max=30"`
}

func (in *CreateRoomInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.MemberID = strings.TrimSpace(in.MemberID)
	in.Hobbies = normalizeTags(in.Hobbies)
	in.Personalities = normalizeTags(in.Personalities)
}

func (in *UpdateRoomInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Hobbies = normalizeTags(in.Hobbies)
	in.Personalities = normalizeTags(in.Personalities)
}

// normalizeTags trims and de-duplicates tags, keeping first-seen order.
// Blank tags are kept so validation can reject them.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

func validateInput(v *validator.Validate, in interface{}) error {
	err := v.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			fields = append(fields, fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			fields = append(fields, fmt.Sprintf("%s is %s", fe.Field(), fe.Tag()))
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(fields, "; "))
}

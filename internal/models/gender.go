package models

import (
	"fmt"
	"strings"
)

// Gender is the closed set of member genders used to bucket room occupancy.
// The zero value is not a valid gender.
type Gender uint8

const (
	GenderMale Gender = iota + 1
	GenderFemale
)

// Genders lists every valid Gender in counter order.
var Genders = []Gender{GenderMale, GenderFemale}

// ParseGender accepts "m", "male", "f" and "female" in any case.
func ParseGender(s string) (Gender, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "m", "male":
		return GenderMale, nil
	case "f", "female":
		return GenderFemale, nil
	default:
		return 0, fmt.Errorf("unknown gender %q", s)
	}
}

// Valid reports whether g is one of the declared genders.
func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

func (g Gender) String() string {
	switch g {
	case GenderMale:
		return "male"
	case GenderFemale:
		return "female"
	default:
		return "unknown"
	}
}

func (g Gender) MarshalText() ([]byte, error) {
	if !g.Valid() {
		return nil, fmt.Errorf("invalid gender %d", uint8(g))
	}
	return []byte(g.String()), nil
}

func (g *Gender) UnmarshalText(text []byte) error {
	parsed, err := ParseGender(string(text))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

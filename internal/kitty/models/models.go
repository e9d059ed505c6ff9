package models

import (
	"encoding/json"
	"fmt"

	id "kitties/pkg/domain"
)

// Gender is derived once from the parity of the raw DNA input and never changes.
type Gender uint8

const (
	GenderMale Gender = iota
	GenderFemale
)

func (g Gender) String() string {
	switch g {
	case GenderMale:
		return "male"
	case GenderFemale:
		return "female"
	default:
		return fmt.Sprintf("gender(%d)", uint8(g))
	}
}

// ParseGender is the inverse of String.
func ParseGender(s string) (Gender, error) {
	switch s {
	case "male":
		return GenderMale, nil
	case "female":
		return GenderFemale, nil
	default:
		return 0, fmt.Errorf("unknown gender %q: %w", s, ErrCannotConvert)
	}
}

func (g Gender) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.String())
}

func (g *Gender) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseGender(s)
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

// Kitty is a registry record. It is created once, keyed by its own DNA, and
// never updated or removed.
//
// Invariants:
//   - DNA is the registry key the record is stored under
//   - Owner is the caller that created it
//   - Gender matches the parity of the raw bytes the DNA was derived from
type Kitty struct {
	DNA    id.DNA       `json:"dna"`
	Owner  id.AccountID `json:"owner"`
	Gender Gender       `json:"gender"`
}

// NewKitty builds a record from already derived parts.
func NewKitty(dna id.DNA, owner id.AccountID, gender Gender) (*Kitty, error) {
	if owner.IsZero() {
		return nil, fmt.Errorf("kitty owner is required: %w", ErrNotOwner)
	}
	if gender != GenderMale && gender != GenderFemale {
		return nil, fmt.Errorf("invalid gender %d: %w", gender, ErrCannotConvert)
	}
	return &Kitty{DNA: dna, Owner: owner, Gender: gender}, nil
}

// Package dna derives kitty identifiers and attributes from caller bytes.
//
// Everything here is pure: identical inputs always yield identical outputs,
// which is what makes duplicate detection in the registry deterministic.
package dna

import (
	"kitties/internal/kitty/models"
	id "kitties/pkg/domain"
)

// Deriver binds the derivation functions to a hash function.
type Deriver struct {
	hasher Hasher
}

// NewDeriver returns a Deriver; a nil hasher means SHA2-256.
func NewDeriver(hasher Hasher) *Deriver {
	if hasher == nil {
		hasher = sha2Hasher{}
	}
	return &Deriver{hasher: hasher}
}

// Hasher returns the bound hash function.
func (d *Deriver) Hasher() Hasher {
	return d.hasher
}

// Gender is even length ⇒ male, odd length ⇒ female. Total over all inputs.
func (d *Deriver) Gender(raw []byte) models.Gender {
	return DeriveGender(raw)
}

// DNA hashes SCALE((counter, raw)). Two calls with the same raw bytes in the
// same counter tick collide by construction.
func (d *Deriver) DNA(raw []byte, counter uint32) id.DNA {
	return id.DNA(d.hasher.Sum256(encodeCounterAndBytes(counter, raw)))
}

// DeriveGender is the hasher-independent attribute derivation.
func DeriveGender(raw []byte) models.Gender {
	if len(raw)%2 == 0 {
		return models.GenderMale
	}
	return models.GenderFemale
}

// DeriveDNA derives DNA with the default SHA2-256 hasher.
func DeriveDNA(raw []byte, counter uint32) id.DNA {
	return id.DNA(sha2Hasher{}.Sum256(encodeCounterAndBytes(counter, raw)))
}

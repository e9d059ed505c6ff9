package handler

import (
	"fmt"

	"kitties/internal/kitty/models"
)

// KittyResponse is the body returned for a created kitty.
type KittyResponse struct {
	DNA    string `json:"dna"`
	CID    string `json:"cid"`
	Owner  string `json:"owner"`
	Gender string `json:"gender"`
}

// ErrorResponse mirrors the platform error envelope with a registry reason.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// FromKitty renders a kitty; hashCode selects the CID multihash.
func FromKitty(k *models.Kitty, hashCode uint64) (*KittyResponse, error) {
	if k == nil {
		return nil, fmt.Errorf("kitty is required")
	}
	c, err := k.DNA.CID(hashCode)
	if err != nil {
		return nil, err
	}
	return &KittyResponse{
		DNA:    k.DNA.String(),
		CID:    c.String(),
		Owner:  k.Owner.String(),
		Gender: k.Gender.String(),
	}, nil
}

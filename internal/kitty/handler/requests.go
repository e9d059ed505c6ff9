package handler

import (
	"encoding/hex"
	"strings"

	id "kitties/pkg/domain"
	dErrors "kitties/pkg/domain-errors"
)

const (
	maxBodyBytes   = 16 << 10
	maxRawDNABytes = 4096
	maxMessageLen  = 1024
)

// CreateKittyRequest is the body of POST /kitties. DNA is the caller's raw
// bytes, hex encoded with an optional 0x prefix.
type CreateKittyRequest struct {
	Owner string `json:"owner"`
	DNA   string `json:"dna"`

	parsedOwner id.AccountID
	parsedDNA   []byte
}

func (r *CreateKittyRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Owner = strings.TrimSpace(r.Owner)
	if r.Owner == "" {
		return dErrors.New(dErrors.CodeValidation, "owner is required")
	}
	owner, err := id.ParseAccountID(r.Owner)
	if err != nil {
		return err
	}
	r.parsedOwner = owner

	raw := strings.TrimSpace(r.DNA)
	raw = strings.TrimPrefix(strings.TrimPrefix(raw, "0x"), "0X")
	if len(raw) > 2*maxRawDNABytes {
		return dErrors.New(dErrors.CodeValidation, "dna must be at most 4096 bytes")
	}
	decoded, err := hex.DecodeString(raw)
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "dna must be hex encoded")
	}
	r.parsedDNA = decoded
	return nil
}

func (r *CreateKittyRequest) ParsedOwner() id.AccountID { return r.parsedOwner }

func (r *CreateKittyRequest) ParsedDNA() []byte { return r.parsedDNA }

// DebugLogRequest is the body of POST /debug/log.
type DebugLogRequest struct {
	Message string `json:"message"`
}

func (r *DebugLogRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.Message) > maxMessageLen {
		return dErrors.New(dErrors.CodeValidation, "message must be at most 1024 characters")
	}
	return nil
}

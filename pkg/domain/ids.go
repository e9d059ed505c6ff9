package domain

import (
	"encoding/hex"
	"strings"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"

	dErrors "kitties/pkg/domain-errors"
)

// HashLength is the byte length of account IDs and kitty DNA.
const HashLength = 32

// AccountID is an opaque principal reference. Owners and callers are compared
// only by equality.
type AccountID [HashLength]byte

// DNA is the content-derived identifier of a kitty. It is both the registry
// key and a field of the stored record.
type DNA [HashLength]byte

// ParseAccountID parses a 32-byte hex string, with or without a 0x prefix.
// The all-zero account is rejected since it stands for "no caller".
func ParseAccountID(s string) (AccountID, error) {
	raw, err := parseHash32(s, "account id")
	if err != nil {
		return AccountID{}, err
	}
	a := AccountID(raw)
	if a.IsZero() {
		return AccountID{}, dErrors.New(dErrors.CodeInvalidInput, "account id must not be zero")
	}
	return a, nil
}

func (a AccountID) String() string { return "0x" + hex.EncodeToString(a[:]) }

func (a AccountID) IsZero() bool { return a == AccountID{} }

func (a AccountID) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

func (a *AccountID) UnmarshalText(text []byte) error {
	parsed, err := ParseAccountID(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseDNA parses a 32-byte hex DNA string, with or without a 0x prefix.
func ParseDNA(s string) (DNA, error) {
	raw, err := parseHash32(s, "dna")
	if err != nil {
		return DNA{}, err
	}
	return DNA(raw), nil
}

func (d DNA) String() string { return "0x" + hex.EncodeToString(d[:]) }

func (d DNA) Bytes() []byte { return append([]byte(nil), d[:]...) }

func (d DNA) IsZero() bool { return d == DNA{} }

func (d DNA) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *DNA) UnmarshalText(text []byte) error {
	parsed, err := ParseDNA(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// CID renders the DNA as a CIDv1 (raw codec) over a multihash of the given
// multicodec hash function, e.g. multihash.SHA2_256.
func (d DNA) CID(hashCode uint64) (cid.Cid, error) {
	mh, err := multihash.Encode(d[:], hashCode)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, mh), nil
}

func parseHash32(s, what string) ([HashLength]byte, error) {
	var out [HashLength]byte
	if s == "" {
		return out, dErrors.New(dErrors.CodeInvalidInput, what+" is required")
	}
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(s) != hex.EncodedLen(HashLength) {
		return out, dErrors.New(dErrors.CodeInvalidInput, what+" must be 32 hex-encoded bytes")
	}
	if _, err := hex.Decode(out[:], []byte(s)); err != nil {
		return out, dErrors.New(dErrors.CodeInvalidInput, what+" must be hex encoded")
	}
	return out, nil
}

package dna

import (
	"fmt"

	"github.com/minio/sha256-simd"
	"github.com/multiformats/go-multihash"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

// Hasher produces the 256-bit digest used as kitty DNA.
type Hasher interface {
	Name() string
	Sum256(data []byte) [32]byte
	// MultihashCode identifies the function when rendering DNA as a CID.
	MultihashCode() uint64
}

const (
	HasherSHA2    = "sha2-256"
	HasherBlake2  = "blake2-256"
	HasherKeccak  = "keccak-256"
	DefaultHasher = HasherSHA2
)

type sha2Hasher struct{}

func (sha2Hasher) Name() string                { return HasherSHA2 }
func (sha2Hasher) Sum256(data []byte) [32]byte { return sha256.Sum256(data) }
func (sha2Hasher) MultihashCode() uint64       { return multihash.SHA2_256 }

type blake2Hasher struct{}

func (blake2Hasher) Name() string                { return HasherBlake2 }
func (blake2Hasher) Sum256(data []byte) [32]byte { return blake2b.Sum256(data) }
func (blake2Hasher) MultihashCode() uint64       { return multihash.BLAKE2B_MIN + 31 }

type keccakHasher struct{}

func (keccakHasher) Name() string { return HasherKeccak }

func (keccakHasher) Sum256(data []byte) [32]byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	var out [32]byte
	h.Sum(out[:0])
	return out
}

func (keccakHasher) MultihashCode() uint64 { return multihash.KECCAK_256 }

// HasherByName resolves a configured hasher name.
func HasherByName(name string) (Hasher, error) {
	switch name {
	case "", HasherSHA2:
		return sha2Hasher{}, nil
	case HasherBlake2:
		return blake2Hasher{}, nil
	case HasherKeccak:
		return keccakHasher{}, nil
	default:
		return nil, fmt.Errorf("unknown dna hasher %q", name)
	}
}

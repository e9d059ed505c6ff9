package dna

import (
	"encoding/binary"
	"math/bits"
)

// The identifier pre-image is the SCALE encoding of the tuple
// (u32 counter, Vec<u8> raw). SCALE is little-endian, and a byte vector is its
// compact-encoded length followed by the bytes.

const (
	compactSingleMax = 1<<6 - 1
	compactTwoMax    = 1<<14 - 1
	compactFourMax   = 1<<30 - 1
)

// appendCompact appends the SCALE compact encoding of n.
func appendCompact(dst []byte, n uint64) []byte {
	switch {
	case n <= compactSingleMax:
		return append(dst, byte(n<<2))
	case n <= compactTwoMax:
		return binary.LittleEndian.AppendUint16(dst, uint16(n<<2)|0b01)
	case n <= compactFourMax:
		return binary.LittleEndian.AppendUint32(dst, uint32(n<<2)|0b10)
	default:
		size := (bits.Len64(n) + 7) / 8
		dst = append(dst, byte((size-4)<<2)|0b11)
		for i := 0; i < size; i++ {
			dst = append(dst, byte(n>>(8*i)))
		}
		return dst
	}
}

// encodeCounterAndBytes returns SCALE((counter, raw)).
func encodeCounterAndBytes(counter uint32, raw []byte) []byte {
	out := make([]byte, 0, 4+5+len(raw))
	out = binary.LittleEndian.AppendUint32(out, counter)
	out = appendCompact(out, uint64(len(raw)))
	return append(out, raw...)
}

package dna

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppendCompact(t *testing.T) {
	tests := []struct {
		name string
		n    uint64
		want string
	}{
		{"zero", 0, "00"},
		{"single byte max", 63, "fc"},
		{"two byte min", 64, "0101"},
		{"two byte max", 16383, "fdff"},
		{"four byte min", 16384, "02000100"},
		{"four byte max", 1<<30 - 1, "feffffff"},
		{"big integer min", 1 << 30, "0300000040"},
		{"big integer u64 max", ^uint64(0), "13ffffffffffffffff"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, hex.EncodeToString(appendCompact(nil, tt.n)))
		})
	}
}

func TestEncodeCounterAndBytes(t *testing.T) {
	assert.Equal(t, "0a0000001001020304", hex.EncodeToString(encodeCounterAndBytes(10, []byte{1, 2, 3, 4})))
	assert.Equal(t, "0000000000", hex.EncodeToString(encodeCounterAndBytes(0, nil)))

	long := encodeCounterAndBytes(1, make([]byte, 64))
	assert.Equal(t, "01000000"+"0101", hex.EncodeToString(long[:6]))
	assert.Len(t, long, 4+2+64)
}

// FuzzEncodeCounterAndBytes checks the encoding is injective on the counter
// prefix and always ends with the raw bytes.
func FuzzEncodeCounterAndBytes(f *testing.F) {
	f.Add(uint32(0), []byte{})
	f.Add(uint32(10), []byte{1, 2, 3, 4})
	f.Add(^uint32(0), make([]byte, 70))

	f.Fuzz(func(t *testing.T, counter uint32, raw []byte) {
		enc := encodeCounterAndBytes(counter, raw)
		if len(enc) < 4+1+len(raw) {
			t.Fatalf("encoding too short: %d", len(enc))
		}
		got := uint32(enc[0]) | uint32(enc[1])<<8 | uint32(enc[2])<<16 | uint32(enc[3])<<24
		if got != counter {
			t.Fatalf("counter prefix mismatch: %d != %d", got, counter)
		}
		if string(enc[len(enc)-len(raw):]) != string(raw) {
			t.Fatal("raw bytes are not the encoding suffix")
		}
	})
}

package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/multiformats/go-multihash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "kitties/pkg/domain-errors"
)

const aliceHex = "d43593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d"

// TestParseAccountID_Invariants validates the parsing invariant:
// "account ids are 32 non-zero bytes, hex encoded"
func TestParseAccountID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseAccountID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid hex", func(t *testing.T) {
		_, err := ParseAccountID(strings.Repeat("zz", 32))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects zero account", func(t *testing.T) {
		_, err := ParseAccountID(strings.Repeat("00", 32))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts with and without prefix", func(t *testing.T) {
		plain, err := ParseAccountID(aliceHex)
		require.NoError(t, err)
		prefixed, err := ParseAccountID("0x" + aliceHex)
		require.NoError(t, err)
		assert.Equal(t, plain, prefixed)
		assert.Equal(t, "0x"+aliceHex, plain.String())
	})
}

func TestParseID_SecurityInvariants(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"SQL injection attempt", "'; DROP TABLE kitties;--", true},
		{"Path traversal", "../../../etc/passwd", true},
		{"Null byte injection", aliceHex[:20] + "\x00" + aliceHex[21:], true},
		{"Oversized input", strings.Repeat("a", 1000), true},
		{"Short input", aliceHex[:62], true},
		{"Whitespace only", "   ", true},
		{"Uppercase hex", strings.ToUpper(aliceHex), false},
		{"Valid lowercase", aliceHex, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDNA(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestDNA_ZeroIsParseable(t *testing.T) {
	dna, err := ParseDNA(strings.Repeat("00", 32))
	require.NoError(t, err)
	assert.True(t, dna.IsZero())
}

func TestJSONRoundTrip(t *testing.T) {
	type payload struct {
		Owner AccountID `json:"owner"`
		DNA   DNA       `json:"dna"`
	}
	owner, err := ParseAccountID(aliceHex)
	require.NoError(t, err)
	in := payload{Owner: owner, DNA: DNA{1, 2, 3}}

	raw, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"owner":"0x`+aliceHex+`"`)

	var out payload
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, in, out)
}

func TestDNA_CID(t *testing.T) {
	dna := DNA{0xde, 0xad, 0xbe, 0xef}

	c, err := dna.CID(multihash.SHA2_256)
	require.NoError(t, err)

	decoded, err := multihash.Decode(c.Hash())
	require.NoError(t, err)
	assert.Equal(t, uint64(multihash.SHA2_256), decoded.Code)
	assert.Equal(t, dna.Bytes(), decoded.Digest)
	assert.True(t, strings.HasPrefix(c.String(), "b"), "CIDv1 defaults to base32")
}

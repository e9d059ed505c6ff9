package main

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jwttoken "kitties/internal/jwt_token"
	id "kitties/pkg/domain"
)

const aliceHex = "0x0a00000000000000000000000000000000000000000000000000000000000000"

func TestTokenCommand(t *testing.T) {
	t.Setenv("JWT_SIGNING_KEY", "cli-test-key")

	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs([]string{"--caller", aliceHex, "--ttl", "5m"})
	require.NoError(t, cmd.Execute())

	claims, err := jwttoken.NewJWTService("cli-test-key", "kitties", "kitties-api").
		ValidateToken(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	caller, err := claims.Caller()
	require.NoError(t, err)
	want, err := id.ParseAccountID(aliceHex)
	require.NoError(t, err)
	assert.Equal(t, want, caller)
}

func TestTokenCommand_RejectsBadCaller(t *testing.T) {
	cmd := newRootCmd(io.Discard)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--caller", "0x00"})
	assert.Error(t, cmd.Execute())

	cmd = newRootCmd(io.Discard)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{})
	assert.Error(t, cmd.Execute(), "caller flag is required")
}

package jwttoken

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "kitties/pkg/domain"
	dErrors "kitties/pkg/domain-errors"
)

var jwtService = NewJWTService(
	"test-signing-key",
	"test-issuer",
	"test-audience",
)
var caller = id.AccountID{0x0a}
var expiresIn = time.Hour

func Test_GenerateCallerToken(t *testing.T) {
	token, err := jwtService.GenerateCallerToken(caller, expiresIn)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := jwtService.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, caller.String(), claims.Subject)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, time.Now().Add(expiresIn), claims.ExpiresAt.Time, time.Minute)

	got, err := claims.Caller()
	require.NoError(t, err)
	assert.Equal(t, caller, got)
}

func Test_ValidateToken_InvalidToken(t *testing.T) {
	_, err := jwtService.ValidateToken("invalid-token-string")
	require.ErrorIs(t, err, dErrors.New(dErrors.CodeUnauthorized, "invalid token"))
}

func Test_ValidateToken_ExpiredToken(t *testing.T) {
	token, err := jwtService.GenerateCallerToken(caller, -time.Hour)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(token)
	require.ErrorIs(t, err, dErrors.New(dErrors.CodeUnauthorized, "token has expired"))
}

func Test_ValidateToken_WrongKeyOrAudience(t *testing.T) {
	other := NewJWTService("other-key", "test-issuer", "test-audience")
	token, err := other.GenerateCallerToken(caller, expiresIn)
	require.NoError(t, err)
	_, err = jwtService.ValidateToken(token)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))

	otherAud := NewJWTService("test-signing-key", "test-issuer", "elsewhere")
	token, err = otherAud.GenerateCallerToken(caller, expiresIn)
	require.NoError(t, err)
	_, err = jwtService.ValidateToken(token)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_ValidateToken_RejectsNoneAlg(t *testing.T) {
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:  caller.String(),
		Issuer:   "test-issuer",
		Audience: []string{"test-audience"},
	}})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(token)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_Adapter(t *testing.T) {
	adapter := NewJWTServiceAdapter(jwtService)

	token, err := jwtService.GenerateCallerToken(caller, expiresIn)
	require.NoError(t, err)
	claims, err := adapter.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, caller, claims.Caller)
	assert.NotEmpty(t, claims.JTI)

	zero, err := jwtService.GenerateCallerToken(id.AccountID{}, expiresIn)
	require.NoError(t, err)
	_, err = adapter.ValidateToken(zero)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

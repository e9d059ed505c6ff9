package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	t.Run("matches outer code", func(t *testing.T) {
		err := New(CodeConflict, "taken")
		assert.True(t, HasCode(err, CodeConflict))
		assert.False(t, HasCode(err, CodeNotFound))
	})

	t.Run("matches code through fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("outer: %w", New(CodeForbidden, "nope"))
		assert.True(t, HasCode(err, CodeForbidden))
	})

	t.Run("matches inner coded cause", func(t *testing.T) {
		err := Wrap(New(CodeTimeout, "slow"), CodeInternal, "failed")
		assert.True(t, HasCode(err, CodeInternal))
		assert.True(t, HasCode(err, CodeTimeout))
	})

	t.Run("plain errors have no code", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("boom"), CodeInternal))
		assert.False(t, HasCode(nil, CodeInternal))
	})
}

func TestErrorsIs(t *testing.T) {
	cause := errors.New("root cause")
	err := Wrap(cause, CodeInternal, "failed to save")

	require.ErrorIs(t, err, cause)
	require.ErrorIs(t, err, New(CodeInternal, "failed to save"))
	require.ErrorIs(t, err, &Error{Code: CodeInternal})
	assert.NotErrorIs(t, err, New(CodeInternal, "other message"))
}

func TestToHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeBadRequest, http.StatusBadRequest},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeForbidden, http.StatusForbidden},
		{CodeNotFound, http.StatusNotFound},
		{CodeConflict, http.StatusConflict},
		{CodeUnavailable, http.StatusServiceUnavailable},
		{CodeInternal, http.StatusInternalServerError},
		{Code("unknown"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, ToHTTPStatus(tt.code))
		})
	}
}

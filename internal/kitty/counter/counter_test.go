package counter

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedAndManual(t *testing.T) {
	ctx := context.Background()

	h, err := Fixed(10).Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint32(10), h)

	m := NewManual(5)
	h, _ = m.Current(ctx)
	assert.Equal(t, uint32(5), h)
	assert.Equal(t, uint32(8), m.Advance(3))
}

func TestEpoch(t *testing.T) {
	genesis := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	now := genesis
	src, err := NewEpoch(genesis, 6*time.Second, WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("genesis is height zero", func(t *testing.T) {
		h, err := src.Current(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint32(0), h)
	})

	t.Run("advances one block per interval", func(t *testing.T) {
		now = genesis.Add(61 * time.Second)
		h, err := src.Current(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint32(10), h)
	})

	t.Run("before genesis clamps to zero", func(t *testing.T) {
		now = genesis.Add(-time.Hour)
		h, err := src.Current(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint32(0), h)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := src.Current(cctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestEpoch_HeightOverflow(t *testing.T) {
	genesis := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	now := genesis
	src, err := NewEpoch(genesis, time.Nanosecond, WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	ctx := context.Background()

	now = genesis.Add(time.Duration(math.MaxUint32))
	h, err := src.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint32(math.MaxUint32), h)

	now = genesis.Add(time.Duration(math.MaxUint32) + 1)
	_, err = src.Current(ctx)
	assert.ErrorContains(t, err, "block height overflow")

	now = genesis.Add(math.MaxInt64)
	_, err = src.Current(ctx)
	assert.ErrorContains(t, err, "block height overflow")
}

func TestNewEpoch_RejectsNonPositiveInterval(t *testing.T) {
	_, err := NewEpoch(time.Now(), 0)
	assert.Error(t, err)
}

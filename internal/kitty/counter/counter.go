// Package counter supplies the monotonic tick mixed into DNA derivation.
//
// The registry trusts the source: it assumes successive reads are
// non-decreasing but never checks. Sources that can go backwards (for
// example a clock reset) make previously rejected duplicates creatable again.
package counter

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"
	"time"
)

// Source returns the current tick (block height).
type Source interface {
	Current(ctx context.Context) (uint32, error)
}

// Fixed always reports the same height. Tests use it to replay a tick.
type Fixed uint32

func (f Fixed) Current(context.Context) (uint32, error) { return uint32(f), nil }

// Manual is a settable height for tests and tooling.
type Manual struct {
	height atomic.Uint32
}

func NewManual(start uint32) *Manual {
	m := &Manual{}
	m.height.Store(start)
	return m
}

func (m *Manual) Current(context.Context) (uint32, error) { return m.height.Load(), nil }

// Advance moves the height forward by n and returns the new value.
func (m *Manual) Advance(n uint32) uint32 { return m.height.Add(n) }

// Epoch derives a block height from wall time: one block per interval since
// genesis. Heights before genesis are reported as 0.
type Epoch struct {
	genesis  time.Time
	interval time.Duration
	now      func() time.Time
}

// EpochOption configures an Epoch.
type EpochOption func(*Epoch)

// WithClock sets the clock function for testability.
func WithClock(now func() time.Time) EpochOption {
	return func(e *Epoch) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEpoch builds an Epoch source. interval must be positive.
func NewEpoch(genesis time.Time, interval time.Duration, opts ...EpochOption) (*Epoch, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("block interval must be positive, got %s", interval)
	}
	e := &Epoch{genesis: genesis, interval: interval, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func (e *Epoch) Current(ctx context.Context) (uint32, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	elapsed := e.now().Sub(e.genesis)
	if elapsed < 0 {
		return 0, nil
	}
	height := int64(elapsed / e.interval)
	if height > math.MaxUint32 {
		return 0, fmt.Errorf("block height overflow: %d", height)
	}
	return uint32(height), nil
}

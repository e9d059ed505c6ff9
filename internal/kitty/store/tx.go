package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	dErrors "kitties/pkg/domain-errors"
	txcontext "kitties/pkg/platform/tx"
)

// numShards spreads check-then-insert critical sections across independent
// locks keyed by DNA. Creations of distinct DNA rarely contend.
const numShards = 128

// defaultTxTimeout bounds a transaction when the caller set no deadline.
const defaultTxTimeout = 5 * time.Second

type lockKey struct{}

// WithLockKey names the resource a transaction guards. ShardedTx uses it to
// pick a shard; other runners ignore it.
func WithLockKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, lockKey{}, key)
}

// ShardedTx serializes transactions on the same key with sharded mutexes.
// Used with the in-memory and redis backends.
type ShardedTx struct {
	shards  [numShards]sync.Mutex
	timeout time.Duration
}

func NewShardedTx() *ShardedTx {
	return &ShardedTx{timeout: defaultTxTimeout}
}

// Atomic reports false: writes made under the lock are not undone when fn
// fails after them.
func (t *ShardedTx) Atomic() bool { return false }

func (t *ShardedTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	ctx, cancel, err := prepareTx(ctx, t.timeout)
	if err != nil {
		return err
	}
	defer cancel()

	shard := selectShard(ctx)
	t.shards[shard].Lock()
	defer t.shards[shard].Unlock()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	return fn(ctx)
}

// PostgresTx runs fn inside a database transaction carried in the context.
// Stores and the outbox writer pick it up through txcontext.
type PostgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

func NewPostgresTx(db *sql.DB) *PostgresTx {
	return &PostgresTx{db: db, timeout: defaultTxTimeout}
}

// Atomic reports true: a failing fn rolls back every write it made.
func (t *PostgresTx) Atomic() bool { return true }

func (t *PostgresTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	ctx, cancel, err := prepareTx(ctx, t.timeout)
	if err != nil {
		return err
	}
	defer cancel()

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(txcontext.WithTx(ctx, tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func prepareTx(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc, error) {
	if err := ctx.Err(); err != nil {
		return ctx, func() {}, dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}, nil
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, cancel, nil
}

func selectShard(ctx context.Context) int {
	if key, ok := ctx.Value(lockKey{}).(string); ok && key != "" {
		return int(hashString(key) % numShards)
	}
	return 0
}

// hashString is FNV-1a.
func hashString(s string) uint32 {
	const (
		fnvOffset = 2166136261
		fnvPrime  = 16777619
	)
	h := uint32(fnvOffset)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime
	}
	return h
}

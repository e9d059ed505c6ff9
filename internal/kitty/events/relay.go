package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"kitties/pkg/platform/circuit"
)

const (
	defaultRelayInterval  = time.Second
	defaultRelayBatchSize = 100
)

// Producer publishes one record to a Kafka topic and waits for the ack.
type Producer interface {
	Produce(ctx context.Context, topic string, key, value []byte, headers map[string]string) error
}

// OutboxSource is the subset of Outbox the relay needs.
type OutboxSource interface {
	FetchUnpublished(ctx context.Context, limit int) ([]OutboxEntry, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error
}

// TxRunner runs fn in a transaction; the outbox reads and the
// published stamp share it.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error
}

// RelayMetrics receives relay counters. Nil disables them.
type RelayMetrics interface {
	IncOutboxPublished(n int)
	IncOutboxFailures()
}

// Relay polls the outbox and publishes pending rows to Kafka. Delivery is
// at-least-once: a crash between produce and commit republishes the batch.
type Relay struct {
	outbox    OutboxSource
	producer  Producer
	tx        TxRunner
	topic     string
	interval  time.Duration
	batchSize int
	logger    *slog.Logger
	metrics   RelayMetrics
	breaker   *circuit.Breaker
}

// RelayOption configures a Relay.
type RelayOption func(*Relay)

func WithRelayInterval(d time.Duration) RelayOption {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithRelayBatchSize(n int) RelayOption {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

func WithRelayLogger(logger *slog.Logger) RelayOption {
	return func(r *Relay) {
		r.logger = logger
	}
}

func WithRelayMetrics(m RelayMetrics) RelayOption {
	return func(r *Relay) {
		r.metrics = m
	}
}

// WithRelayBreaker replaces the default breaker guarding the producer.
func WithRelayBreaker(b *circuit.Breaker) RelayOption {
	return func(r *Relay) {
		if b != nil {
			r.breaker = b
		}
	}
}

func NewRelay(outbox OutboxSource, producer Producer, tx TxRunner, topic string, opts ...RelayOption) *Relay {
	r := &Relay{
		outbox:    outbox,
		producer:  producer,
		tx:        tx,
		topic:     topic,
		interval:  defaultRelayInterval,
		batchSize: defaultRelayBatchSize,
		breaker:   circuit.New("outbox-relay"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run relays on every tick until ctx is cancelled. While the breaker is open
// the relay keeps retrying but logs failures at debug level.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

func (r *Relay) tick(ctx context.Context) {
	if _, err := r.RelayOnce(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		if r.metrics != nil {
			r.metrics.IncOutboxFailures()
		}
		useFallback, change := r.breaker.RecordFailure()
		if r.logger == nil {
			return
		}
		switch {
		case change.Opened:
			r.logger.WarnContext(ctx, "outbox relay circuit opened", "breaker", r.breaker.Name(), "error", err)
		case useFallback:
			r.logger.DebugContext(ctx, "outbox relay still failing", "breaker", r.breaker.Name(), "error", err)
		default:
			r.logger.ErrorContext(ctx, "outbox relay failed", "error", err)
		}
		return
	}
	if _, change := r.breaker.RecordSuccess(); change.Closed && r.logger != nil {
		r.logger.InfoContext(ctx, "outbox relay circuit closed", "breaker", r.breaker.Name())
	}
}

// Health fails while the relay's breaker is open.
func (r *Relay) Health(context.Context) error {
	if r.breaker.IsOpen() {
		return fmt.Errorf("outbox relay circuit %s is open", r.breaker.Name())
	}
	return nil
}

// RelayOnce publishes one batch and returns how many rows were delivered.
// A produce failure aborts the batch; nothing in it is marked published.
func (r *Relay) RelayOnce(ctx context.Context) (int, error) {
	var published int
	err := r.tx.RunInTx(ctx, func(txCtx context.Context) error {
		entries, err := r.outbox.FetchUnpublished(txCtx, r.batchSize)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}
		ids := make([]uuid.UUID, 0, len(entries))
		for _, e := range entries {
			headers := map[string]string{
				"event_type": string(e.EventType),
				"event_id":   e.ID.String(),
			}
			if err := r.producer.Produce(txCtx, r.topic, []byte(e.AggregateID), e.Payload, headers); err != nil {
				return fmt.Errorf("produce outbox entry %s: %w", e.ID, err)
			}
			ids = append(ids, e.ID)
		}
		if err := r.outbox.MarkPublished(txCtx, ids, time.Now().UTC()); err != nil {
			return err
		}
		published = len(ids)
		return nil
	})
	if err != nil {
		return 0, err
	}
	if published > 0 && r.metrics != nil {
		r.metrics.IncOutboxPublished(published)
	}
	return published, nil
}

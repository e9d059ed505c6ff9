package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"kitties/internal/kitty/counter"
	"kitties/internal/kitty/dna"
	kittymetrics "kitties/internal/kitty/metrics"
	"kitties/internal/kitty/models"
	"kitties/internal/kitty/store"
	id "kitties/pkg/domain"
	dErrors "kitties/pkg/domain-errors"
	"kitties/pkg/platform/sentinel"
	"kitties/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

const tracerName = "kitties/internal/kitty/service"

// Store is the keyed kitty registry. Insert must never overwrite and
// reports a taken key as sentinel.ErrAlreadyUsed.
type Store interface {
	FindByDNA(ctx context.Context, dna id.DNA) (*models.Kitty, error)
	Contains(ctx context.Context, dna id.DNA) (bool, error)
	Insert(ctx context.Context, kitty *models.Kitty) error
	Count(ctx context.Context) (int, error)
}

// StoreTx scopes the duplicate check, the insert, and the event emission.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error
}

// atomicTx is implemented by runners that roll back on failure.
type atomicTx interface {
	Atomic() bool
}

// Publisher receives registry events. Under an atomic StoreTx Emit runs
// inside the transaction and a failure aborts the creation. Otherwise Emit
// runs after the insert and a failure is logged and counted as dropped.
type Publisher interface {
	Emit(ctx context.Context, event models.Event) error
}

// Service owns the registry and its single mutating operation.
type Service struct {
	store     Store
	counter   counter.Source
	deriver   *dna.Deriver
	tx        StoreTx
	publisher Publisher
	logger    *slog.Logger
	metrics   *kittymetrics.Metrics
	tracer    trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *kittymetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

// WithTx sets the transaction runner. Defaults to a sharded in-process lock.
func WithTx(tx StoreTx) Option {
	return func(s *Service) {
		s.tx = tx
	}
}

// WithDeriver selects the DNA hasher. Defaults to SHA2-256.
func WithDeriver(d *dna.Deriver) Option {
	return func(s *Service) {
		s.deriver = d
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// New constructs a Service over an injected store and counter source.
func New(kitties Store, counterSource counter.Source, opts ...Option) *Service {
	s := &Service{store: kitties, counter: counterSource}
	for _, opt := range opts {
		opt(s)
	}
	if s.deriver == nil {
		s.deriver = dna.NewDeriver(nil)
	}
	if s.tx == nil {
		s.tx = store.NewShardedTx()
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer(tracerName)
	}
	return s
}

// CreateKitty registers a kitty for owner from raw bytes.
//
// Checks run in order and the first failure wins:
//  1. the authenticated caller must equal owner (NotOwner)
//  2. gender is derived from the length parity of raw
//  3. DNA is derived from raw and the current block height
//  4. the DNA must not already be registered (DuplicateKitty)
//
// On any failure the registry is unchanged and no event is emitted.
func (s *Service) CreateKitty(ctx context.Context, owner id.AccountID, raw []byte) (*models.Kitty, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "kitty.CreateKitty",
		trace.WithAttributes(
			attribute.String("kitty.owner", owner.String()),
			attribute.Int("kitty.raw_len", len(raw)),
		),
	)
	defer span.End()

	kitty, height, err := s.createKitty(ctx, owner, raw)
	s.observeCreate(start)
	if err != nil {
		s.recordFailure(ctx, span, owner, err)
		return nil, err
	}

	span.SetAttributes(
		attribute.String("kitty.dna", kitty.DNA.String()),
		attribute.Int64("kitty.counter", int64(height)),
	)
	s.incrementCreated()
	s.logger.InfoContext(ctx, "kitty created",
		"dna", kitty.DNA.String(),
		"owner", kitty.Owner.String(),
		"gender", kitty.Gender.String(),
		"counter", height,
		"request_id", requestcontext.RequestID(ctx),
	)
	return kitty, nil
}

func (s *Service) createKitty(ctx context.Context, owner id.AccountID, raw []byte) (*models.Kitty, uint32, error) {
	caller, ok := requestcontext.Caller(ctx)
	if !ok || caller != owner {
		return nil, 0, models.ErrNotOwner.Wrap()
	}

	height, err := s.counter.Current(ctx)
	if err != nil {
		return nil, 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read block height")
	}

	gender := s.deriver.Gender(raw)
	kittyDNA := s.deriver.DNA(raw, height)

	kitty, err := models.NewKitty(kittyDNA, owner, gender)
	if err != nil {
		return nil, 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build kitty")
	}

	event := models.Created{
		Kitty:   kitty.DNA,
		Owner:   kitty.Owner,
		Gender:  kitty.Gender,
		Counter: height,
	}
	emitInTx := s.atomic()

	txCtx := store.WithLockKey(ctx, kittyDNA.String())
	err = s.tx.RunInTx(txCtx, func(txCtx context.Context) error {
		exists, err := s.store.Contains(txCtx, kittyDNA)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check kitty")
		}
		if exists {
			return duplicateErr()
		}
		if err := s.store.Insert(txCtx, kitty); err != nil {
			if errors.Is(err, sentinel.ErrAlreadyUsed) {
				return duplicateErr()
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store kitty")
		}
		if s.publisher == nil || !emitInTx {
			return nil
		}
		event.OccurredAt = requestcontext.Now(txCtx).UTC()
		if err := s.publisher.Emit(txCtx, event); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to emit kitty created")
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	if s.publisher != nil && !emitInTx {
		event.OccurredAt = requestcontext.Now(ctx).UTC()
		s.emitCommitted(ctx, event)
	}
	return kitty, height, nil
}

func (s *Service) atomic() bool {
	tx, ok := s.tx.(atomicTx)
	return ok && tx.Atomic()
}

// emitCommitted publishes an event for a record that is already stored.
// The record stays, so a sink failure cannot fail the creation.
func (s *Service) emitCommitted(ctx context.Context, event models.Event) {
	if err := s.publisher.Emit(ctx, event); err != nil {
		if s.metrics != nil {
			s.metrics.IncrementEventsDropped()
		}
		s.logger.ErrorContext(ctx, "kitty event dropped",
			"event_type", string(event.Type()),
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
}

// FindKitty returns a registered kitty by DNA.
func (s *Service) FindKitty(ctx context.Context, kittyDNA id.DNA) (*models.Kitty, error) {
	kitty, err := s.store.FindByDNA(ctx, kittyDNA)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, models.ErrNoKitty.Wrap()
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load kitty")
	}
	return kitty, nil
}

// Count reports the registry size.
func (s *Service) Count(ctx context.Context) (int, error) {
	n, err := s.store.Count(ctx)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count kitties")
	}
	return n, nil
}

// DebugLog writes message to the debug log. It has no other effect.
func (s *Service) DebugLog(ctx context.Context, message string) {
	s.logger.DebugContext(ctx, message,
		"log_type", "debug",
		"request_id", requestcontext.RequestID(ctx),
	)
}

// HashCode is the multihash code of the DNA hasher, for CID rendering.
func (s *Service) HashCode() uint64 {
	return s.deriver.Hasher().MultihashCode()
}

func duplicateErr() error {
	return models.ErrDuplicateKitty.Wrap()
}

func (s *Service) recordFailure(ctx context.Context, span trace.Span, owner id.AccountID, err error) {
	reason := models.Reason("")
	var kerr *models.Error
	if errors.As(err, &kerr) {
		reason = kerr.Reason
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
	if s.metrics != nil {
		s.metrics.IncrementCreateFailure(reason)
	}

	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		s.logger.ErrorContext(ctx, "kitty creation failed",
			"owner", owner.String(),
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		return
	}
	s.logger.WarnContext(ctx, "kitty creation rejected",
		"owner", owner.String(),
		"reason", string(reason),
		"request_id", requestcontext.RequestID(ctx),
	)
}

func (s *Service) observeCreate(start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveCreate(start)
	}
}

func (s *Service) incrementCreated() {
	if s.metrics != nil {
		s.metrics.IncrementKittiesCreated()
	}
}

package events

import (
	"context"
	"log/slog"

	"kitties/internal/kitty/models"
)

// Sink is anything that accepts registry events.
type Sink interface {
	Emit(ctx context.Context, event models.Event) error
}

// AsyncPublisher hands events to a Worker over a bounded channel so slow
// sinks do not hold up creation. Events are dropped when the buffer is full;
// use the outbox when delivery must be guaranteed.
type AsyncPublisher struct {
	inbox   chan models.Event
	logger  *slog.Logger
	dropped func()
}

// AsyncOption configures an AsyncPublisher.
type AsyncOption func(*AsyncPublisher)

func WithAsyncLogger(logger *slog.Logger) AsyncOption {
	return func(p *AsyncPublisher) {
		p.logger = logger
	}
}

// WithDropHook is called once per dropped event.
func WithDropHook(fn func()) AsyncOption {
	return func(p *AsyncPublisher) {
		p.dropped = fn
	}
}

func NewAsyncPublisher(buffer int, opts ...AsyncOption) *AsyncPublisher {
	if buffer <= 0 {
		buffer = 1
	}
	p := &AsyncPublisher{inbox: make(chan models.Event, buffer)}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *AsyncPublisher) Emit(ctx context.Context, event models.Event) error {
	select {
	case p.inbox <- event:
	default:
		if p.dropped != nil {
			p.dropped()
		}
		if p.logger != nil {
			p.logger.WarnContext(ctx, "event buffer full, dropping event", "event_type", event.Type())
		}
	}
	return nil
}

// Inbox is the channel a Worker drains.
func (p *AsyncPublisher) Inbox() <-chan models.Event {
	return p.inbox
}

// Worker consumes events from a channel and forwards them to a sink.
type Worker struct {
	sink   Sink
	inbox  <-chan models.Event
	logger *slog.Logger
}

func NewWorker(sink Sink, inbox <-chan models.Event, logger *slog.Logger) *Worker {
	return &Worker{sink: sink, inbox: inbox, logger: logger}
}

// Run forwards events until ctx is cancelled. Sink failures are logged and
// the event is dropped.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.sink.Emit(ctx, event); err != nil && w.logger != nil {
				w.logger.ErrorContext(ctx, "failed to forward event",
					"event_type", event.Type(),
					"error", err,
				)
			}
		}
	}
}

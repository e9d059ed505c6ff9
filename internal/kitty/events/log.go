package events

import (
	"context"
	"log/slog"

	"kitties/internal/kitty/models"
)

// LogSink writes each event as a structured log line.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Emit(ctx context.Context, event models.Event) error {
	env, err := NewEnvelope(event)
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "registry event",
		"event_id", env.ID.String(),
		"event_type", string(env.Type),
		"topics", env.Topics,
		"payload", string(env.Payload),
	)
	return nil
}

package sink

import (
	"context"
	"log/slog"

	"relay/internal/message"
	"relay/internal/messaging"
)

// Log writes messages through a slog.Logger, at the level messaging.Level
// assigns to them.
type Log struct {
	logger *slog.Logger
}

// NewLog creates a log sink. A nil logger means slog.Default().
func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{logger: logger}
}

// OnMessage logs m with its kind, status, origin and cause as attributes.
func (l *Log) OnMessage(m *message.Message) {
	level := messaging.Level(m)
	ctx := context.Background()
	if !l.logger.Enabled(ctx, level) {
		return
	}
	attrs := []slog.Attr{
		slog.String("kind", m.Kind().String()),
		slog.String("severity", m.Severity().String()),
	}
	if s := m.Status(); s != message.StatusNotApplicable {
		attrs = append(attrs, slog.String("status", s.String()))
	}
	if s := m.OperationStatus(); s != message.OperationStatusNotApplicable {
		attrs = append(attrs, slog.String("operation", s.String()))
	}
	if origin := m.Origin(); origin != "" {
		attrs = append(attrs, slog.String("origin", origin))
	}
	if err := m.Cause(); err != nil {
		attrs = append(attrs, slog.Any("cause", err))
	}
	l.logger.LogAttrs(ctx, level, m.Formatted(), attrs...)
}

// Flush is a no-op.
func (l *Log) Flush() error { return nil }

// Close is a no-op.
func (l *Log) Close() error { return nil }

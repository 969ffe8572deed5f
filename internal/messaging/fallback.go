package messaging

import (
	"context"
	"log/slog"
	"sync/atomic"

	"relay/internal/message"
)

type listenerHolder struct {
	l Listener
}

var (
	fallback atomic.Pointer[listenerHolder]
	strict   atomic.Bool
)

func init() {
	fallback.Store(&listenerHolder{l: slogListener{}})
}

// SetFallback installs the process-wide listener that receives messages from
// broadcasters without an audience, along with infrastructure diagnostics
// such as recovered listener panics. A nil l restores the slog default.
// It returns the previous fallback.
func SetFallback(l Listener) Listener {
	if l == nil {
		l = slogListener{}
	}
	return fallback.Swap(&listenerHolder{l: l}).l
}

// Fallback returns the current process-wide fallback listener.
func Fallback() Listener {
	return fallback.Load().l
}

// SetStrict turns strict mode on or off. In strict mode a message reaching a
// broadcaster without listeners panics with *UnterminatedChainError.
func SetStrict(on bool) {
	strict.Store(on)
}

// IsStrict reports whether strict mode is on.
func IsStrict() bool {
	return strict.Load()
}

// Level maps a message to the slog level used to log it.
func Level(m *message.Message) slog.Level {
	switch {
	case m.IsFailure(), m.Severity() >= message.SeverityHigh:
		return slog.LevelError
	case m.Severity() > message.SeverityNone, m.Status() == message.StatusResultCompromised:
		return slog.LevelWarn
	case m.Kind() == message.Trace, m.Kind() == message.Step:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// slogListener is the default fallback; it writes through slog.Default.
type slogListener struct{}

func (slogListener) Name() string { return "fallback" }

func (slogListener) OnMessage(m *message.Message) {
	attrs := []slog.Attr{slog.String("kind", m.Kind().String())}
	if origin := m.Origin(); origin != "" {
		attrs = append(attrs, slog.String("origin", origin))
	}
	if err := m.Cause(); err != nil {
		attrs = append(attrs, slog.String("cause", err.Error()))
	}
	slog.Default().LogAttrs(context.Background(), Level(m), m.Formatted(), attrs...)
}

// report delivers an infrastructure diagnostic to the fallback listener.
// A panic inside the fallback is dropped unless it must propagate.
func report(m *message.Message) {
	defer func() {
		if r := recover(); r != nil && ShouldPropagate(r) {
			panic(r)
		}
	}()
	Fallback().OnMessage(m)
}

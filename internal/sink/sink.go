// Package sink provides the terminal listeners of relay: console, log,
// stream, ring, channel and metrics sinks, plus the archive decoder used to
// replay recorded messages.
package sink

import (
	"fmt"
	"io"
	"os"
	"strings"

	"relay/internal/message"
	"relay/internal/messaging"
)

// EnvVar names the log destination read by the CLI.
const EnvVar = "RELAY_LOG"

// Sink is a terminal listener that may buffer or own resources.
type Sink interface {
	messaging.Listener

	// Flush ensures all buffered messages are written.
	Flush() error

	// Close flushes and releases resources.
	Close() error
}

// Config holds sink configuration.
type Config struct {
	// Destination is one of console, stdout, stderr, log, ring, off, or a
	// file path. Empty means console. A ring keeps the last RingSize
	// messages and writes them to Output (stderr) on Close.
	Destination string
	Format      Format    // stream format (FormatAuto detects from the path)
	Color       ColorMode // console only
	Output      io.Writer // overrides the console/stdout/stderr writer
	RingSize    int       // ring only (default 4096)
	ShowStacks  bool      // console only
}

// Open creates a Sink based on Config.
func Open(cfg Config) (Sink, error) {
	dest := strings.TrimSpace(cfg.Destination)
	switch strings.ToLower(dest) {
	case "", "console":
		c := NewConsole(writerOr(cfg.Output, os.Stderr), cfg.Color)
		c.ShowStacks(cfg.ShowStacks)
		return c, nil
	case "stderr":
		return NewStream(nopCloser{writerOr(cfg.Output, os.Stderr)}, textIfAuto(cfg.Format)), nil
	case "stdout":
		return NewStream(nopCloser{writerOr(cfg.Output, os.Stdout)}, textIfAuto(cfg.Format)), nil
	case "log", "slog":
		return NewLog(nil), nil
	case "ring":
		return NewRing(cfg.RingSize).DumpOnClose(writerOr(cfg.Output, os.Stderr), textIfAuto(cfg.Format)), nil
	case "off", "none":
		return discard{}, nil
	}

	format := cfg.Format
	if format == FormatAuto {
		format = DetectFormat(dest)
	}
	f, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open sink output: %w", err)
	}
	return NewStream(f, format), nil
}

func writerOr(w, fallback io.Writer) io.Writer {
	if w != nil {
		return w
	}
	return fallback
}

func textIfAuto(f Format) Format {
	if f == FormatAuto {
		return FormatText
	}
	return f
}

// nopCloser keeps Stream.Close from closing the process's standard streams.
type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// discard drops everything.
type discard struct{}

func (discard) OnMessage(*message.Message) {}
func (discard) Flush() error               { return nil }
func (discard) Close() error               { return nil }

var (
	_ Sink = (*Console)(nil)
	_ Sink = (*Stream)(nil)
	_ Sink = (*Ring)(nil)
	_ Sink = (*Log)(nil)
	_ Sink = (*Metrics)(nil)
	_ Sink = (*Multi)(nil)
	_ Sink = Channel{}
)

package sink

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"golang.org/x/term"

	"relay/internal/message"
)

// ColorMode selects whether the console colors its output.
type ColorMode uint8

const (
	ColorAuto ColorMode = iota // color when writing to a terminal
	ColorOn
	ColorOff
)

// ParseColorMode converts an auto|on|off flag value.
func ParseColorMode(s string) (ColorMode, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return ColorAuto, nil
	case "on", "always":
		return ColorOn, nil
	case "off", "never":
		return ColorOff, nil
	default:
		return ColorAuto, fmt.Errorf("invalid color mode: %q (expected: auto|on|off)", s)
	}
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Console prints messages for humans, one "Kind: text" line each, colored by
// severity.
type Console struct {
	mu        sync.Mutex
	w         io.Writer
	showStack bool

	trace, info, operation, low, medium, high, critical *color.Color
}

// NewConsole creates a console sink writing to w.
func NewConsole(w io.Writer, mode ColorMode) *Console {
	c := &Console{
		w:         w,
		trace:     color.New(color.FgHiBlack),
		info:      color.New(color.Reset),
		operation: color.New(color.FgCyan),
		low:       color.New(color.FgYellow),
		medium:    color.New(color.FgHiYellow, color.Bold),
		high:      color.New(color.FgRed, color.Bold),
		critical:  color.New(color.FgHiRed, color.Bold, color.Underline),
	}
	useColor := mode == ColorOn || (mode == ColorAuto && IsTerminal(w) && os.Getenv("NO_COLOR") == "")
	for _, col := range c.palette() {
		if useColor {
			col.EnableColor()
		} else {
			col.DisableColor()
		}
	}
	return c
}

// ShowStacks makes the console print the stack trace of failures.
func (c *Console) ShowStacks(on bool) {
	c.mu.Lock()
	c.showStack = on
	c.mu.Unlock()
}

func (c *Console) palette() []*color.Color {
	return []*color.Color{c.trace, c.info, c.operation, c.low, c.medium, c.high, c.critical}
}

func (c *Console) colorFor(m *message.Message) *color.Color {
	sev := m.Severity()
	switch {
	case sev >= message.SeverityCritical:
		return c.critical
	case sev >= message.SeverityHigh:
		return c.high
	case sev >= message.SeverityMedium:
		return c.medium
	case sev > message.SeverityNone:
		return c.low
	case m.OperationStatus() != message.OperationStatusNotApplicable:
		return c.operation
	case m.Kind() == message.Trace || m.Kind() == message.Step:
		return c.trace
	default:
		return c.info
	}
}

// OnMessage prints m.
func (c *Console) OnMessage(m *message.Message) {
	var sb strings.Builder
	sb.WriteString(c.colorFor(m).Sprint(m.Kind().String() + ":"))
	sb.WriteByte(' ')
	sb.WriteString(m.Formatted())
	sb.WriteByte('\n')
	if cause := m.Cause(); cause != nil {
		sb.WriteString("  caused by: ")
		sb.WriteString(cause.Error())
		sb.WriteByte('\n')
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.showStack {
		for _, line := range strings.Split(strings.TrimRight(m.StackTrace(), "\n"), "\n") {
			if line != "" {
				sb.WriteString("    at ")
				sb.WriteString(line)
				sb.WriteByte('\n')
			}
		}
	}
	// Best-effort write
	_, _ = io.WriteString(c.w, sb.String())
}

// Flush is a no-op; the console writes immediately.
func (c *Console) Flush() error { return nil }

// Close is a no-op; the console does not own its writer.
func (c *Console) Close() error { return nil }

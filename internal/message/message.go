package message

import (
	"fmt"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// ReentrantFormatting replaces the text of a message whose arguments format
// the message itself while it is being formatted.
const ReentrantFormatting = "[message formatting re-entered itself; check arguments for cycles]"

// timeNow is a variable to allow testing with fixed timestamps.
var timeNow = time.Now

// maxStackDepth bounds the stack captured for failure messages.
const maxStackDepth = 32

// Message is a unit of diagnostic communication. Create it with New or one of
// the per-kind constructors and always pass it by pointer.
type Message struct {
	kind    Kind
	text    string
	args    []any
	created time.Time
	cause   error

	// back-filled once by the first broadcaster that transmits the message
	mu      sync.Mutex
	stamped bool
	origin  string
	stack   []uintptr

	formatted  atomic.Pointer[string]
	formatMu   sync.Mutex
	formatting map[uint64]struct{} // goroutines currently rendering m
}

// New creates a message of the given kind. Text is a fmt format string when
// args are present and is used verbatim otherwise.
func New(kind Kind, text string, args ...any) *Message {
	return &Message{
		kind:    kind,
		text:    text,
		args:    args,
		created: timeNow(),
	}
}

// Per-kind constructors.

func NewTrace(text string, args ...any) *Message {
	return New(Trace, text, args...)
}

func NewStep(text string, args ...any) *Message {
	return New(Step, text, args...)
}

func NewInformation(text string, args ...any) *Message {
	return New(Information, text, args...)
}

func NewNarration(text string, args ...any) *Message {
	return New(Narration, text, args...)
}

func NewAnnouncement(text string, args ...any) *Message {
	return New(Announcement, text, args...)
}

func NewOperationStarted(text string, args ...any) *Message {
	return New(OperationStarted, text, args...)
}

func NewOperationSucceeded(text string, args ...any) *Message {
	return New(OperationSucceeded, text, args...)
}

func NewOperationHalted(text string, args ...any) *Message {
	return New(OperationHalted, text, args...)
}

func NewGlitch(text string, args ...any) *Message {
	return New(Glitch, text, args...)
}

func NewWarning(text string, args ...any) *Message {
	return New(Warning, text, args...)
}

func NewQuibble(text string, args ...any) *Message {
	return New(Quibble, text, args...)
}

func NewIncomplete(text string, args ...any) *Message {
	return New(Incomplete, text, args...)
}

func NewOperationFailed(text string, args ...any) *Message {
	return New(OperationFailed, text, args...)
}

func NewProblem(text string, args ...any) *Message {
	return New(Problem, text, args...)
}

func NewAlert(text string, args ...any) *Message {
	return New(Alert, text, args...)
}

func NewFatalProblem(text string, args ...any) *Message {
	return New(FatalProblem, text, args...)
}

func NewCriticalAlert(text string, args ...any) *Message {
	return New(CriticalAlert, text, args...)
}

// WithCause attaches the error that caused the message and returns m.
// Call it before the message is transmitted.
func (m *Message) WithCause(err error) *Message {
	m.cause = err
	return m
}

func (m *Message) Kind() Kind                       { return m.kind }
func (m *Message) Text() string                     { return m.text }
func (m *Message) Created() time.Time               { return m.created }
func (m *Message) Cause() error                     { return m.cause }
func (m *Message) Severity() Severity               { return m.kind.Severity() }
func (m *Message) Importance() Importance           { return m.kind.Importance() }
func (m *Message) Status() Status                   { return m.kind.Status() }
func (m *Message) OperationStatus() OperationStatus { return m.kind.OperationStatus() }
func (m *Message) MaxFrequency() time.Duration      { return m.kind.MaxFrequency() }

// Arguments returns a copy of the positional arguments.
func (m *Message) Arguments() []any {
	if len(m.args) == 0 {
		return nil
	}
	out := make([]any, len(m.args))
	copy(out, m.args)
	return out
}

// IsFailure is true when the message's kind reports a failure.
func (m *Message) IsFailure() bool {
	return m.kind.IsFailure()
}

// IsWorseThan compares the message's status by ordinal.
func (m *Message) IsWorseThan(s Status) bool {
	return m.Status().IsWorseThan(s)
}

// IsWorseThanOrEqualTo compares the message's status by ordinal.
func (m *Message) IsWorseThanOrEqualTo(s Status) bool {
	return m.Status().IsWorseThanOrEqualTo(s)
}

// Formatted renders the message text with its arguments. The result is
// cached once rendered. Formatting the message again from inside its own
// formatting, on the same goroutine, yields ReentrantFormatting. No lock is
// held while rendering, so concurrent first calls may each render once.
func (m *Message) Formatted() string {
	if s := m.formatted.Load(); s != nil {
		return *s
	}

	gid := goroutineID()
	if !m.enterFormatting(gid) {
		return ReentrantFormatting
	}
	s := func() string {
		defer m.leaveFormatting(gid)
		return m.render()
	}()

	if !m.formatted.CompareAndSwap(nil, &s) {
		return *m.formatted.Load()
	}
	return s
}

// enterFormatting marks gid as rendering m. It reports false when gid is
// already rendering m. A zero gid is never tracked.
func (m *Message) enterFormatting(gid uint64) bool {
	if gid == 0 {
		return true
	}
	m.formatMu.Lock()
	defer m.formatMu.Unlock()
	if _, busy := m.formatting[gid]; busy {
		return false
	}
	if m.formatting == nil {
		m.formatting = make(map[uint64]struct{}, 1)
	}
	m.formatting[gid] = struct{}{}
	return true
}

func (m *Message) leaveFormatting(gid uint64) {
	if gid == 0 {
		return
	}
	m.formatMu.Lock()
	delete(m.formatting, gid)
	m.formatMu.Unlock()
}

func (m *Message) render() string {
	if len(m.args) == 0 {
		return m.text
	}
	return fmt.Sprintf(m.text, m.args...)
}

// String returns "Kind: formatted text".
func (m *Message) String() string {
	return m.kind.String() + ": " + m.Formatted()
}

// Stamp records the broadcaster that first transmitted the message. Only the
// first call has an effect; failure messages without a stack trace capture
// one at that point.
func (m *Message) Stamp(origin string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stamped {
		return
	}
	m.stamped = true
	m.origin = origin
	if m.stack == nil && m.IsFailure() {
		pcs := make([]uintptr, maxStackDepth)
		n := runtime.Callers(2, pcs)
		m.stack = pcs[:n]
	}
}

// IsStamped reports whether Stamp has been called.
func (m *Message) IsStamped() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stamped
}

// Origin returns the name of the broadcaster that first transmitted the message.
func (m *Message) Origin() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.origin
}

// StackTrace renders the captured stack, one "function (file:line)" per line.
// It is empty for messages that never captured one.
func (m *Message) StackTrace() string {
	m.mu.Lock()
	pcs := m.stack
	m.mu.Unlock()
	if len(pcs) == 0 {
		return ""
	}

	var sb strings.Builder
	frames := runtime.CallersFrames(pcs)
	for {
		frame, more := frames.Next()
		fmt.Fprintf(&sb, "%s (%s:%d)\n", frame.Function, frame.File, frame.Line)
		if !more {
			break
		}
	}
	return sb.String()
}

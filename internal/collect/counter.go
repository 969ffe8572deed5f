// Package collect accumulates messages for later inspection: List keeps
// them, Counter only counts them. Both are listeners and both implement
// MessageCounter.
package collect

import (
	"fmt"
	"sync"

	"relay/internal/message"
)

// MessageCounter is the read side of anything that accumulates messages.
type MessageCounter interface {
	// Count returns how many messages of kind were seen.
	Count(kind message.Kind) int

	// CountWorseThanOrEqualTo returns how many messages had a status at
	// least as bad as s.
	CountWorseThanOrEqualTo(s message.Status) int

	// Failed reports whether a failure was seen.
	Failed() bool

	// Succeeded reports whether nothing was compromised, incomplete or
	// failed.
	Succeeded() bool

	// IfFailedError returns a *FailureError when Failed, nil otherwise.
	IfFailedError() error
}

// FailureError reports the failures a MessageCounter has seen.
type FailureError struct {
	Failures int
	First    *message.Message // nil for counters that keep no messages
}

func (e *FailureError) Error() string {
	noun := "failures"
	if e.Failures == 1 {
		noun = "failure"
	}
	if e.First == nil {
		return fmt.Sprintf("%d %s", e.Failures, noun)
	}
	return fmt.Sprintf("%d %s, first: %s", e.Failures, noun, e.First)
}

// Counter counts messages by kind and status without keeping them.
type Counter struct {
	mu       sync.Mutex
	byKind   map[message.Kind]int
	byStatus map[message.Status]int
	failures int
	total    int
}

// NewCounter creates an empty counter.
func NewCounter() *Counter {
	return &Counter{
		byKind:   make(map[message.Kind]int),
		byStatus: make(map[message.Status]int),
	}
}

// OnMessage counts m.
func (c *Counter) OnMessage(m *message.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byKind[m.Kind()]++
	c.byStatus[m.Status()]++
	if m.IsFailure() {
		c.failures++
	}
	c.total++
}

func (c *Counter) Count(kind message.Kind) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.byKind[kind]
}

func (c *Counter) CountWorseThanOrEqualTo(s message.Status) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for status, count := range c.byStatus {
		if status.IsWorseThanOrEqualTo(s) {
			n += count
		}
	}
	return n
}

// Total returns the number of messages counted.
func (c *Counter) Total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

// Counts returns the per-kind counts.
func (c *Counter) Counts() map[message.Kind]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[message.Kind]int, len(c.byKind))
	for k, v := range c.byKind {
		out[k] = v
	}
	return out
}

func (c *Counter) Failed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failures > 0
}

func (c *Counter) Succeeded() bool {
	return !c.Failed() && c.CountWorseThanOrEqualTo(message.StatusResultCompromised) == 0
}

func (c *Counter) IfFailedError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failures == 0 {
		return nil
	}
	return &FailureError{Failures: c.failures}
}

// Reset clears all counts.
func (c *Counter) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.byKind)
	clear(c.byStatus)
	c.failures = 0
	c.total = 0
}

var (
	_ MessageCounter = (*Counter)(nil)
	_ MessageCounter = (*List)(nil)
)

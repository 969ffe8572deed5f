package messaging

import (
	"sync"

	"relay/internal/message"
)

// FailureTracker is a terminal repeater that remembers whether a failure
// passed through it. It repeats only when it has listeners, so it can end a
// chain without tripping strict mode.
type FailureTracker struct {
	*BaseRepeater

	mu       sync.Mutex
	failures int
	first    *message.Message
}

// NewFailureTracker creates a failure tracker named name.
func NewFailureTracker(name string) *FailureTracker {
	t := &FailureTracker{BaseRepeater: NewRepeater(name)}
	t.Handle(t.track)
	return t
}

// track records failures and repeats m when there is an audience.
func (t *FailureTracker) track(m *message.Message) {
	if m.IsFailure() {
		t.mu.Lock()
		t.failures++
		if t.first == nil {
			t.first = m
		}
		t.mu.Unlock()
	}
	if t.HasListeners() {
		t.Repeat(m)
	}
}

// Terminates reports that a failure tracker may end a chain.
func (t *FailureTracker) Terminates() bool { return true }

// OK reports whether no failure has been seen.
func (t *FailureTracker) OK() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.failures == 0
}

// Failures returns the number of failures seen.
func (t *FailureTracker) Failures() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.failures
}

// FirstFailure returns the first failure seen, or nil.
func (t *FailureTracker) FirstFailure() *message.Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.first
}

// Reset forgets all recorded failures.
func (t *FailureTracker) Reset() {
	t.mu.Lock()
	t.failures = 0
	t.first = nil
	t.mu.Unlock()
}

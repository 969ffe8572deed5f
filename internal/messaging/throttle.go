package messaging

import (
	"sync"
	"time"

	"relay/internal/message"
)

// timeNow is a variable to allow testing with a fake clock.
var timeNow = time.Now

// Throttle is a repeater that drops a message when an identical one (same
// kind and formatted text) was repeated less than the kind's MaxFrequency
// ago. Kinds without a max frequency always pass.
type Throttle struct {
	*BaseRepeater

	mu         sync.Mutex
	last       map[throttleKey]time.Time
	suppressed int
}

type throttleKey struct {
	kind message.Kind
	text string
}

// maxThrottleKeys is the map size above which expired entries are pruned.
const maxThrottleKeys = 1024

// NewThrottle creates a throttle named name.
func NewThrottle(name string) *Throttle {
	t := &Throttle{
		BaseRepeater: NewRepeater(name),
		last:         make(map[throttleKey]time.Time),
	}
	t.Handle(t.pass)
	return t
}

// pass repeats m unless it arrives too soon after an identical message.
func (t *Throttle) pass(m *message.Message) {
	if every := m.MaxFrequency(); every > 0 {
		key := throttleKey{kind: m.Kind(), text: m.Formatted()}
		now := timeNow()

		t.mu.Lock()
		prev, seen := t.last[key]
		if seen && now.Sub(prev) < every {
			t.suppressed++
			t.mu.Unlock()
			return
		}
		t.last[key] = now
		if len(t.last) > maxThrottleKeys {
			t.prune(now)
		}
		t.mu.Unlock()
	}
	t.Repeat(m)
}

// Suppressed returns how many messages were dropped.
func (t *Throttle) Suppressed() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.suppressed
}

// prune drops entries whose interval has elapsed. Callers hold t.mu.
func (t *Throttle) prune(now time.Time) {
	for key, at := range t.last {
		if now.Sub(at) >= key.kind.MaxFrequency() {
			delete(t.last, key)
		}
	}
}

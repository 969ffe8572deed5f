package testkit

import (
	"fmt"

	"relay/internal/message"
	"relay/internal/messaging"
)

// Thrower is a terminal listener that panics with a propagating error for
// every message its filter accepts. The panic escapes Transmit, so the test
// that triggered the message fails at the emitting call.
type Thrower struct {
	filter messaging.Filter
}

// NewThrower creates a thrower. Without filters it throws on failures.
func NewThrower(filters ...messaging.Filter) *Thrower {
	f := messaging.Failures
	if len(filters) > 0 {
		f = messaging.And(filters...)
	}
	return &Thrower{filter: f}
}

// OnMessage panics when m is accepted.
func (t *Thrower) OnMessage(m *message.Message) {
	if t.filter(m) {
		err := fmt.Errorf("unexpected message %s", m)
		if cause := m.Cause(); cause != nil {
			err = fmt.Errorf("unexpected message %s: %w", m, cause)
		}
		panic(messaging.Propagate(err))
	}
}

func (t *Thrower) Name() string { return "thrower" }

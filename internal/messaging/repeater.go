package messaging

import (
	"sync/atomic"

	"relay/internal/message"
	"relay/internal/transceiver"
)

// Repeater is a listener that is also a broadcaster and a receiver.
type Repeater interface {
	Listener
	Broadcaster
	transceiver.Receiver[*message.Message]
	IsRepeating() bool
}

// BaseRepeater re-transmits every message it receives while repeating, which
// is the default. Types that need extra behaviour embed *BaseRepeater and
// install their own handler with Handle, calling Repeat to pass messages on.
// OnMessage and Receive both go through the receive gate into that handler.
type BaseRepeater struct {
	*Multicaster
	receive transceiver.ReceiveGate[*message.Message]
	muted   atomic.Bool
}

// NewRepeater creates a repeater named name.
func NewRepeater(name string) *BaseRepeater {
	r := &BaseRepeater{Multicaster: NewMulticaster(name)}
	r.receive.OnReceive = r.Repeat
	return r
}

// Handle replaces what happens to a received message. Call it before the
// repeater is wired; the default handler is Repeat.
func (r *BaseRepeater) Handle(fn func(m *message.Message)) {
	r.receive.OnReceive = fn
}

// OnMessage receives m.
func (r *BaseRepeater) OnMessage(m *message.Message) {
	r.Receive(m)
}

// Receive passes m through the receive gate and repeats it.
func (r *BaseRepeater) Receive(m *message.Message) *message.Message {
	return r.receive.Receive(m)
}

// IsReceiving reports whether the receive gate is open.
func (r *BaseRepeater) IsReceiving() bool { return r.receive.IsReceiving() }

// EnableReception opens or closes the receive gate.
func (r *BaseRepeater) EnableReception(on bool) { r.receive.EnableReception(on) }

// IsRepeating reports whether received messages are re-transmitted.
func (r *BaseRepeater) IsRepeating() bool { return !r.muted.Load() }

// SetRepeating turns re-transmission on or off. A repeater that does not
// repeat still receives.
func (r *BaseRepeater) SetRepeating(on bool) { r.muted.Store(!on) }

// Repeat re-transmits m while repeating.
func (r *BaseRepeater) Repeat(m *message.Message) {
	if r.IsRepeating() {
		r.Transmit(m)
	}
}

var _ Repeater = (*BaseRepeater)(nil)

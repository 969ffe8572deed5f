// Package debug implements per-type debug gates. A type asks for its Debug
// handle once; whether the handle is on is decided at that moment from a
// pattern list (RELAY_DEBUG for the default registry). Trace calls on a
// handle that is off cost one atomic load.
package debug

import (
	"sync/atomic"

	"relay/internal/message"
	"relay/internal/messaging"
	"relay/internal/transceiver"
)

// Transceiver is what a Debug handle transmits trace messages through.
type Transceiver = transceiver.Transceiver[*message.Message]

// Debug is the debug gate of one type.
type Debug struct {
	owner string
	on    atomic.Bool
	out   Transceiver
	sink  messaging.Listener
}

func newDebug(owner string, on bool, out Transceiver) *Debug {
	d := &Debug{owner: owner, out: out}
	d.on.Store(on)
	if l, ok := out.(messaging.Listener); ok {
		d.sink = l
	} else {
		d.sink = &transmitter{d: d}
	}
	return d
}

// Owner returns the qualified name of the type the handle belongs to.
func (d *Debug) Owner() string { return d.owner }

// IsOn reports whether debugging is enabled.
func (d *Debug) IsOn() bool { return d.on.Load() }

// SetEnabled overrides the pattern decision.
func (d *Debug) SetEnabled(on bool) { d.on.Store(on) }

// Trace transmits a Trace message when debugging is on. When it is off the
// text is not formatted and no message is created.
func (d *Debug) Trace(text string, args ...any) {
	if !d.on.Load() {
		return
	}
	d.send(message.NewTrace(text, args...))
}

// Listener returns the handle's destination while debugging is on and
// messaging.Null otherwise, so callers can transmit unconditionally.
func (d *Debug) Listener() messaging.Listener {
	if !d.on.Load() {
		return messaging.Null
	}
	return d.sink
}

func (d *Debug) send(m *message.Message) {
	if d.out == nil {
		messaging.Fallback().OnMessage(m)
		return
	}
	d.out.Transmit(m)
}

// transmitter adapts a Transceiver that is not itself a listener.
type transmitter struct {
	d *Debug
}

func (t *transmitter) OnMessage(m *message.Message) {
	t.d.send(m)
}

func (t *transmitter) Name() string { return t.d.owner }

// Package transceiver defines the send and receive capability contracts that
// broadcasters, listeners and repeaters are built from.
//
// Each contract is a gate plus one operation. Gates are open by default; the
// embeddable TransmitGate and ReceiveGate implement the gate and call a hook
// only while open, so a type overrides only the behaviour it needs.
package transceiver

import "sync/atomic"

// Transmitter sends values of type T.
type Transmitter[T any] interface {
	// IsTransmitting reports whether Transmit currently does anything.
	IsTransmitting() bool

	// Transmit sends v if the gate is open and returns v.
	Transmit(v T) T

	// EnableTransmission opens or closes the gate.
	EnableTransmission(on bool)
}

// Receiver accepts values of type T.
type Receiver[T any] interface {
	// IsReceiving reports whether Receive currently does anything.
	IsReceiving() bool

	// Receive handles v if the gate is open and returns v.
	Receive(v T) T
}

// Transceiver is both a Transmitter and a Receiver with a name.
type Transceiver[T any] interface {
	Transmitter[T]
	Receiver[T]
	Name() string
}

// TransmitGate implements the transmit half of a Transceiver. The zero value
// is open and has no hook.
type TransmitGate[T any] struct {
	closed atomic.Bool

	// OnTransmit is called for every value transmitted while the gate is open.
	OnTransmit func(T)
}

// IsTransmitting reports whether the gate is open.
func (g *TransmitGate[T]) IsTransmitting() bool {
	return !g.closed.Load()
}

// EnableTransmission opens or closes the gate.
func (g *TransmitGate[T]) EnableTransmission(on bool) {
	g.closed.Store(!on)
}

// Transmit calls OnTransmit when the gate is open.
func (g *TransmitGate[T]) Transmit(v T) T {
	if g.IsTransmitting() && g.OnTransmit != nil {
		g.OnTransmit(v)
	}
	return v
}

// ReceiveGate implements the receive half of a Transceiver. The zero value is
// open and has no hook.
type ReceiveGate[T any] struct {
	closed atomic.Bool

	// OnReceive is called for every value received while the gate is open.
	OnReceive func(T)
}

// IsReceiving reports whether the gate is open.
func (g *ReceiveGate[T]) IsReceiving() bool {
	return !g.closed.Load()
}

// EnableReception opens or closes the gate.
func (g *ReceiveGate[T]) EnableReception(on bool) {
	g.closed.Store(!on)
}

// Receive calls OnReceive when the gate is open.
func (g *ReceiveGate[T]) Receive(v T) T {
	if g.IsReceiving() && g.OnReceive != nil {
		g.OnReceive(v)
	}
	return v
}

package transceiver

// Station is a bare Transceiver: transmitting a value hands it to the local
// Receive, so sending means handling locally. Both gates apply in sequence.
type Station[T any] struct {
	TransmitGate[T]
	ReceiveGate[T]
	name string
}

// NewStation creates a station named name that handles values with handle.
func NewStation[T any](name string, handle func(T)) *Station[T] {
	s := &Station[T]{name: name}
	s.OnReceive = handle
	s.OnTransmit = func(v T) { s.Receive(v) }
	return s
}

// Name returns the station's name.
func (s *Station[T]) Name() string {
	return s.name
}

var _ Transceiver[int] = (*Station[int])(nil)

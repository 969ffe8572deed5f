package sink

import (
	"go.uber.org/multierr"

	"relay/internal/message"
)

// Multi fans messages out to several sinks.
type Multi struct {
	sinks []Sink
}

// NewMulti creates a sink that forwards to all of sinks.
func NewMulti(sinks ...Sink) *Multi {
	return &Multi{sinks: sinks}
}

// OnMessage forwards m to every sink.
func (s *Multi) OnMessage(m *message.Message) {
	for _, sk := range s.sinks {
		sk.OnMessage(m)
	}
}

// Flush flushes all sinks and combines their errors.
func (s *Multi) Flush() error {
	var err error
	for _, sk := range s.sinks {
		err = multierr.Append(err, sk.Flush())
	}
	return err
}

// Close closes all sinks and combines their errors.
func (s *Multi) Close() error {
	var err error
	for _, sk := range s.sinks {
		err = multierr.Append(err, sk.Close())
	}
	return err
}

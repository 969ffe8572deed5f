package sink

import "relay/internal/message"

// Channel forwards messages into a channel. The send blocks while the
// channel is full, so the reader paces the broadcaster. Close closes the
// channel; call it once, after the last OnMessage.
type Channel struct {
	Ch chan<- *message.Message
}

func (s Channel) OnMessage(m *message.Message) {
	if s.Ch == nil {
		return
	}
	s.Ch <- m
}

// Flush is a no-op; delivery is synchronous.
func (s Channel) Flush() error { return nil }

func (s Channel) Close() error {
	if s.Ch != nil {
		close(s.Ch)
	}
	return nil
}

package sink

import (
	"io"
	"sync"

	"relay/internal/message"
)

// Stream writes every message immediately to an io.Writer.
type Stream struct {
	mu     sync.Mutex
	w      io.Writer
	format Format
	errs   int
}

// NewStream creates a stream sink. FormatAuto means text.
func NewStream(w io.Writer, format Format) *Stream {
	if format == FormatAuto {
		format = FormatText
	}
	return &Stream{w: w, format: format}
}

// OnMessage writes m. Write errors are counted, not returned, so a broken
// output never disturbs the broadcaster.
func (s *Stream) OnMessage(m *message.Message) {
	data, err := FormatRecord(m.Record(), s.format)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.errs++
		return
	}
	if _, err := s.w.Write(data); err != nil {
		s.errs++
	}
}

// WriteErrors returns how many messages could not be written.
func (s *Stream) WriteErrors() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errs
}

// Flush flushes the writer if it can be flushed.
func (s *Stream) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if flusher, ok := s.w.(interface{ Flush() error }); ok {
		return flusher.Flush()
	}
	return nil
}

// Close flushes and closes the writer if it implements io.Closer.
func (s *Stream) Close() error {
	if err := s.Flush(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if closer, ok := s.w.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

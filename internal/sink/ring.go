package sink

import (
	"io"
	"sync"

	"relay/internal/message"
)

// defaultRingSize is used when a ring is created without a capacity.
const defaultRingSize = 4096

// Ring keeps the last N messages in memory (circular buffer).
type Ring struct {
	mu       sync.RWMutex
	records  []message.Record
	capacity int
	head     int  // next write position
	full     bool // has wrapped around

	dump       io.Writer // written to on Close when set
	dumpFormat Format
	dumped     bool
}

// NewRing creates a ring holding capacity records.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = defaultRingSize
	}
	return &Ring{
		records:  make([]message.Record, capacity),
		capacity: capacity,
	}
}

// OnMessage stores a snapshot of m, overwriting the oldest when full.
func (r *Ring) OnMessage(m *message.Message) {
	rec := m.Record()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[r.head] = rec
	r.head = (r.head + 1) % r.capacity
	if r.head == 0 {
		r.full = true
	}
}

// Snapshot returns the stored records in chronological order.
func (r *Ring) Snapshot() []message.Record {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.full {
		out := make([]message.Record, r.head)
		copy(out, r.records[:r.head])
		return out
	}
	out := make([]message.Record, r.capacity)
	copy(out, r.records[r.head:])
	copy(out[r.capacity-r.head:], r.records[:r.head])
	return out
}

// Dump writes all stored records to w in the given format.
func (r *Ring) Dump(w io.Writer, format Format) error {
	for _, rec := range r.Snapshot() {
		data, err := FormatRecord(rec, format)
		if err != nil {
			return err
		}
		if _, err := w.Write(data); err != nil {
			return err
		}
	}
	return nil
}

// DumpOnClose makes Close write the stored records to w in format.
func (r *Ring) DumpOnClose(w io.Writer, format Format) *Ring {
	r.mu.Lock()
	r.dump = w
	r.dumpFormat = format
	r.mu.Unlock()
	return r
}

// Flush is a no-op since everything is in memory.
func (r *Ring) Flush() error { return nil }

// Close dumps the stored records once when DumpOnClose was set.
func (r *Ring) Close() error {
	r.mu.Lock()
	w, format := r.dump, r.dumpFormat
	if w == nil || r.dumped {
		r.mu.Unlock()
		return nil
	}
	r.dumped = true
	r.mu.Unlock()
	return r.Dump(w, format)
}

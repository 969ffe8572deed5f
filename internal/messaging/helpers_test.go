package messaging

import (
	"sync"
	"testing"

	"relay/internal/message"
)

type recorder struct {
	name string
	mu   sync.Mutex
	msgs []*message.Message
}

func (r *recorder) OnMessage(m *message.Message) {
	r.mu.Lock()
	r.msgs = append(r.msgs, m)
	r.mu.Unlock()
}

func (r *recorder) Name() string { return r.name }

func (r *recorder) kinds() []message.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]message.Kind, len(r.msgs))
	for i, m := range r.msgs {
		out[i] = m.Kind()
	}
	return out
}

func (r *recorder) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.msgs)
}

type panicker struct{ value any }

func (p panicker) OnMessage(*message.Message) { panic(p.value) }

// tagged has an interface field that may hold an uncomparable value.
type tagged struct{ tag any }

func (tagged) OnMessage(*message.Message) {}

type deafListener struct {
	recorder
	deaf bool
}

func (d *deafListener) IsDeaf() bool { return d.deaf }

// captureFallback routes fallback output to a recorder for the duration of t.
func captureFallback(t *testing.T) *recorder {
	t.Helper()
	rec := &recorder{name: "captured"}
	prev := SetFallback(rec)
	t.Cleanup(func() { SetFallback(prev) })
	return rec
}

func strictMode(t *testing.T) {
	t.Helper()
	prev := IsStrict()
	SetStrict(true)
	t.Cleanup(func() { SetStrict(prev) })
}

package messaging

import (
	"fmt"
	"reflect"

	"relay/internal/message"
)

// Listener consumes messages.
type Listener interface {
	OnMessage(m *message.Message)
}

// Deaf is implemented by listeners that can temporarily ignore everything.
type Deaf interface {
	IsDeaf() bool
}

// IsDeaf reports whether l implements Deaf and is currently deaf.
func IsDeaf(l Listener) bool {
	d, ok := l.(Deaf)
	return ok && d.IsDeaf()
}

// ListenTo registers l with b. It is the listener-side spelling of
// b.AddListener(l, filters...).
func ListenTo(l Listener, b Broadcaster, filters ...Filter) {
	b.AddListener(l, filters...)
}

// Func adapts fn to a Listener. Every call returns a distinct listener, so
// the result can be removed again by identity.
func Func(fn func(m *message.Message)) Listener {
	return &funcListener{fn: fn}
}

type funcListener struct {
	fn func(m *message.Message)
}

func (f *funcListener) OnMessage(m *message.Message) {
	f.fn(m)
}

// nullListener discards everything.
type nullListener struct{}

func (nullListener) OnMessage(*message.Message) {}

func (nullListener) Name() string { return "null" }

// Null is the listener that consumes and discards every message.
var Null Listener = nullListener{}

// receiving reports whether l accepts deliveries right now.
func receiving(l Listener) bool {
	if r, ok := l.(interface{ IsReceiving() bool }); ok && !r.IsReceiving() {
		return false
	}
	return !IsDeaf(l)
}

// sameListener compares listeners by identity. Values that are comparable
// right now compare with ==; funcs, maps and slices compare by pointer and
// anything else, such as a struct holding a slice in an interface field,
// compares deeply.
func sameListener(a, b Listener) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if reflect.TypeOf(a) != reflect.TypeOf(b) {
		return false
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Comparable() && vb.Comparable() {
		return a == b
	}
	switch va.Kind() {
	case reflect.Func, reflect.Map, reflect.Slice:
		return va.Pointer() == vb.Pointer()
	default:
		return reflect.DeepEqual(a, b)
	}
}

// describe names l for diagnostics.
func describe(l Listener) string {
	if n, ok := l.(interface{ Name() string }); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", l)
}

package messaging

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"relay/internal/message"
	"relay/internal/transceiver"
)

// Broadcaster fans messages out to an audience of listeners. Implementations
// embed *Multicaster.
type Broadcaster interface {
	transceiver.Transmitter[*message.Message]

	Name() string

	// AddListener registers l. Without filters l receives every message;
	// several filters must all accept. Adding a listener that is already
	// registered does nothing.
	AddListener(l Listener, filters ...Filter)
	RemoveListener(l Listener)
	ClearListeners()
	HasListeners() bool

	// Listeners returns the audience in registration order.
	Listeners() []Listener

	// Silence replaces the audience with Null.
	Silence()

	multicaster() *Multicaster
}

type member struct {
	listener Listener
	filter   Filter
}

// Multicaster is the audience registry behind every Broadcaster.
type Multicaster struct {
	name string
	gate transceiver.TransmitGate[*message.Message]

	mu       sync.RWMutex
	audience []member // replaced, never mutated in place

	source atomic.Pointer[Multicaster]
}

// NewMulticaster creates a multicaster. An empty name is replaced by a
// generated one.
func NewMulticaster(name string) *Multicaster {
	if name == "" {
		name = "multicaster-" + uuid.NewString()[:8]
	}
	mc := &Multicaster{name: name}
	mc.gate.OnTransmit = mc.deliver
	return mc
}

func (mc *Multicaster) multicaster() *Multicaster { return mc }

// Name returns the multicaster's name. It is stamped as the origin of every
// message the multicaster transmits first.
func (mc *Multicaster) Name() string { return mc.name }

func (mc *Multicaster) String() string { return mc.name }

// IsTransmitting reports whether Transmit delivers anything.
func (mc *Multicaster) IsTransmitting() bool { return mc.gate.IsTransmitting() }

// EnableTransmission opens or closes the transmit gate.
func (mc *Multicaster) EnableTransmission(on bool) { mc.gate.EnableTransmission(on) }

// Transmit delivers m to the audience and returns m.
func (mc *Multicaster) Transmit(m *message.Message) *message.Message {
	return mc.gate.Transmit(m)
}

// AddListener registers l with optional filters. A broadcaster cannot listen
// to itself; the attempt is reported to the fallback listener as a Warning.
// When l is a broadcaster, mc becomes its message source.
func (mc *Multicaster) AddListener(l Listener, filters ...Filter) {
	if l == nil {
		return
	}
	var downstream *Multicaster
	if b, ok := l.(interface{ multicaster() *Multicaster }); ok {
		downstream = b.multicaster()
		if downstream == mc {
			report(message.NewWarning("%s cannot listen to itself", mc.name))
			return
		}
	}

	mc.mu.Lock()
	for _, mem := range mc.audience {
		if sameListener(mem.listener, l) {
			mc.mu.Unlock()
			return
		}
	}
	next := make([]member, len(mc.audience), len(mc.audience)+1)
	copy(next, mc.audience)
	mc.audience = append(next, member{listener: l, filter: And(filters...)})
	mc.mu.Unlock()

	if downstream != nil {
		downstream.source.Store(mc)
	}
}

// RemoveListener unregisters l. Removing an unknown listener does nothing.
func (mc *Multicaster) RemoveListener(l Listener) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	for i, mem := range mc.audience {
		if sameListener(mem.listener, l) {
			next := make([]member, 0, len(mc.audience)-1)
			next = append(next, mc.audience[:i]...)
			mc.audience = append(next, mc.audience[i+1:]...)
			return
		}
	}
}

// ClearListeners empties the audience.
func (mc *Multicaster) ClearListeners() {
	mc.mu.Lock()
	mc.audience = nil
	mc.mu.Unlock()
}

// Silence replaces the audience with Null in one step, so that every later
// message is consumed and discarded.
func (mc *Multicaster) Silence() {
	mc.mu.Lock()
	mc.audience = []member{{listener: Null, filter: AcceptAll}}
	mc.mu.Unlock()
}

// HasListeners reports whether the audience is non-empty.
func (mc *Multicaster) HasListeners() bool {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return len(mc.audience) > 0
}

// Listeners returns a copy of the audience in registration order.
func (mc *Multicaster) Listeners() []Listener {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	out := make([]Listener, len(mc.audience))
	for i, mem := range mc.audience {
		out[i] = mem.listener
	}
	return out
}

// MessageSource returns the broadcaster mc was last added to as a listener,
// or nil.
func (mc *Multicaster) MessageSource() *Multicaster {
	return mc.source.Load()
}

// Chain returns mc's name followed by the names of its upstream sources.
func (mc *Multicaster) Chain() []string {
	var chain []string
	seen := make(map[*Multicaster]bool)
	for cur := mc; cur != nil && !seen[cur]; cur = cur.source.Load() {
		seen[cur] = true
		chain = append(chain, cur.name)
	}
	return chain
}

func (mc *Multicaster) deliver(m *message.Message) {
	if m == nil {
		return
	}

	mc.mu.RLock()
	audience := mc.audience
	mc.mu.RUnlock()

	if len(audience) == 0 {
		mc.unterminated(m)
		return
	}

	m.Stamp(mc.name)
	for _, mem := range audience {
		mc.deliverTo(mem, m)
	}
}

func (mc *Multicaster) deliverTo(mem member, m *message.Message) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if ShouldPropagate(r) {
			panic(r)
		}
		problem := message.NewProblem("listener %s of %s panicked on %q: %v",
			describe(mem.listener), mc.name, m.Formatted(), r)
		if err, ok := r.(error); ok {
			problem.WithCause(err)
		}
		report(problem)
	}()

	if !receiving(mem.listener) || !mem.filter(m) {
		return
	}
	mem.listener.OnMessage(m)
}

func (mc *Multicaster) unterminated(m *message.Message) {
	if IsStrict() {
		panic(&UnterminatedChainError{Chain: mc.Chain(), Message: m})
	}
	m.Stamp(mc.name)
	report(m)
}

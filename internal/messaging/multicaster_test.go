package messaging

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relay/internal/message"
)

func TestTransmitDeliversInRegistrationOrder(t *testing.T) {
	mc := NewMulticaster("source")
	var order []string
	for _, name := range []string{"first", "second", "third"} {
		mc.AddListener(Func(func(*message.Message) { order = append(order, name) }))
	}

	m := message.NewInformation("hello")
	assert.Same(t, m, mc.Transmit(m))
	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestListenersHoldingSlicesInInterfaceFields(t *testing.T) {
	mc := NewMulticaster("source")
	a := tagged{tag: []string{"a"}}
	b := tagged{tag: []string{"b"}}

	require.NotPanics(t, func() {
		mc.AddListener(a)
		mc.AddListener(b)
		mc.AddListener(tagged{tag: []string{"a"}})
	})
	assert.Len(t, mc.Listeners(), 2, "an equal listener is not added twice")

	require.NotPanics(t, func() { mc.RemoveListener(a) })
	require.Len(t, mc.Listeners(), 1)
	assert.Equal(t, b, mc.Listeners()[0])

	mc.AddListener(tagged{tag: 7})
	mc.AddListener(tagged{tag: 7})
	assert.Len(t, mc.Listeners(), 2)
}

func TestListenerPanicIsIsolated(t *testing.T) {
	fallback := captureFallback(t)
	mc := NewMulticaster("source")

	before, after := &recorder{}, &recorder{}
	mc.AddListener(before)
	mc.AddListener(panicker{value: "boom"})
	mc.AddListener(after)

	mc.Transmit(message.NewWarning("careful"))

	assert.Equal(t, 1, before.len())
	assert.Equal(t, 1, after.len(), "delivery continues after a panicking listener")
	require.Equal(t, []message.Kind{message.Problem}, fallback.kinds())
	assert.Contains(t, fallback.msgs[0].Formatted(), "boom")
	assert.Contains(t, fallback.msgs[0].Formatted(), "source")
}

func TestListenerPanicWithErrorKeepsCause(t *testing.T) {
	fallback := captureFallback(t)
	mc := NewMulticaster("source")
	cause := errors.New("disk gone")
	mc.AddListener(panicker{value: cause})

	mc.Transmit(message.NewInformation("x"))

	require.Equal(t, 1, fallback.len())
	assert.Same(t, cause, fallback.msgs[0].Cause())
}

func TestPropagatingPanicEscapesTransmit(t *testing.T) {
	captureFallback(t)
	mc := NewMulticaster("source")
	after := &recorder{}
	cause := errors.New("unexpected problem")
	mc.AddListener(panicker{value: Propagate(cause)})
	mc.AddListener(after)

	var recovered any
	func() {
		defer func() { recovered = recover() }()
		mc.Transmit(message.NewProblem("bad"))
	}()

	require.NotNil(t, recovered)
	assert.True(t, ShouldPropagate(recovered))
	err, ok := recovered.(error)
	require.True(t, ok)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 0, after.len())
}

func TestShouldPropagate(t *testing.T) {
	assert.True(t, ShouldPropagate(Propagate(errors.New("x"))))
	assert.True(t, ShouldPropagate(&UnterminatedChainError{Chain: []string{"a"}, Message: message.NewTrace("t")}))
	assert.False(t, ShouldPropagate(errors.New("plain")))
	assert.False(t, ShouldPropagate("string"))
	assert.False(t, ShouldPropagate(nil))
}

func TestAudienceIdentity(t *testing.T) {
	mc := NewMulticaster("source")
	rec := &recorder{}

	mc.AddListener(rec, OfKind(message.Problem))
	mc.AddListener(rec)
	require.Len(t, mc.Listeners(), 1)

	// the first registration's filter stays in force
	mc.Transmit(message.NewInformation("ignored"))
	mc.Transmit(message.NewProblem("kept"))
	assert.Equal(t, []message.Kind{message.Problem}, rec.kinds())

	mc.RemoveListener(rec)
	assert.False(t, mc.HasListeners())
}

func TestFuncListenersAreDistinct(t *testing.T) {
	mc := NewMulticaster("source")
	var calls int
	f1 := Func(func(*message.Message) { calls++ })
	f2 := Func(func(*message.Message) { calls++ })
	mc.AddListener(f1)
	mc.AddListener(f2)
	mc.AddListener(f1)
	require.Len(t, mc.Listeners(), 2)

	mc.Transmit(message.NewStep("s"))
	assert.Equal(t, 2, calls)

	mc.RemoveListener(f1)
	assert.Equal(t, []Listener{f2}, mc.Listeners())
}

func TestSelfListeningIsRejected(t *testing.T) {
	fallback := captureFallback(t)
	r := NewRepeater("loop")

	r.AddListener(r)

	assert.False(t, r.HasListeners())
	require.Equal(t, []message.Kind{message.Warning}, fallback.kinds())
	assert.Contains(t, fallback.msgs[0].Formatted(), "loop")
}

func TestAddListenerRecordsSource(t *testing.T) {
	a := NewMulticaster("a")
	b := NewRepeater("b")
	c := NewRepeater("c")
	a.AddListener(b)
	b.AddListener(c)

	assert.Same(t, a, b.MessageSource())
	assert.Same(t, b.Multicaster, c.MessageSource())
	assert.Equal(t, []string{"c", "b", "a"}, c.Chain())
	assert.Nil(t, a.MessageSource())
}

func TestEmptyAudienceUsesFallback(t *testing.T) {
	fallback := captureFallback(t)
	mc := NewMulticaster("lonely")

	m := message.NewWarning("nobody listens")
	mc.Transmit(m)

	require.Equal(t, 1, fallback.len())
	assert.Same(t, m, fallback.msgs[0])
	assert.Equal(t, "lonely", m.Origin())
}

func TestStrictModePanicsOnUnterminatedChain(t *testing.T) {
	captureFallback(t)
	strictMode(t)

	a := NewMulticaster("a")
	b := NewRepeater("b")
	a.AddListener(b)

	var recovered any
	func() {
		defer func() { recovered = recover() }()
		a.Transmit(message.NewProblem("lost"))
	}()

	chainErr, ok := recovered.(*UnterminatedChainError)
	require.True(t, ok, "got %v", recovered)
	assert.Equal(t, []string{"b", "a"}, chainErr.Chain)
	assert.Equal(t, "lost", chainErr.Message.Formatted())
	assert.Contains(t, chainErr.Error(), "b <- a")
}

func TestSilence(t *testing.T) {
	fallback := captureFallback(t)
	strictMode(t)
	mc := NewMulticaster("muted")
	rec := &recorder{}
	mc.AddListener(rec)

	mc.Silence()
	mc.Transmit(message.NewCriticalAlert("ignored"))

	assert.Equal(t, []Listener{Null}, mc.Listeners())
	assert.Equal(t, 0, rec.len())
	assert.Equal(t, 0, fallback.len())
}

func TestClosedTransmitGateDeliversNothing(t *testing.T) {
	fallback := captureFallback(t)
	mc := NewMulticaster("gated")
	rec := &recorder{}
	mc.AddListener(rec)

	mc.EnableTransmission(false)
	assert.False(t, mc.IsTransmitting())
	mc.Transmit(message.NewProblem("dropped"))
	mc.EnableTransmission(true)
	mc.Transmit(message.NewProblem("kept"))

	assert.Equal(t, 1, rec.len())
	assert.Equal(t, 0, fallback.len())
}

func TestDeafAndClosedReceiversAreSkipped(t *testing.T) {
	mc := NewMulticaster("source")
	deaf := &deafListener{deaf: true}
	closed := NewRepeater("closed")
	downstream := &recorder{}
	closed.AddListener(downstream)
	closed.EnableReception(false)
	mc.AddListener(deaf)
	mc.AddListener(closed)

	mc.Transmit(message.NewInformation("x"))
	assert.Equal(t, 0, deaf.len())
	assert.Equal(t, 0, downstream.len())

	deaf.deaf = false
	closed.EnableReception(true)
	mc.Transmit(message.NewInformation("y"))
	assert.Equal(t, 1, deaf.len())
	assert.Equal(t, 1, downstream.len())
}

func TestStampedByFirstBroadcaster(t *testing.T) {
	a := NewMulticaster("a")
	b := NewRepeater("b")
	rec := &recorder{}
	a.AddListener(b)
	b.AddListener(rec)

	m := message.NewProblem("p")
	a.Transmit(m)

	assert.Equal(t, "a", m.Origin())
	assert.NotEmpty(t, m.StackTrace())
}

func TestListenerMayChangeAudienceDuringDelivery(t *testing.T) {
	mc := NewMulticaster("source")
	late := &recorder{}
	var once sync.Once
	mc.AddListener(Func(func(*message.Message) {
		once.Do(func() { mc.AddListener(late) })
	}))

	mc.Transmit(message.NewStep("one"))
	assert.Equal(t, 0, late.len(), "audience is snapshotted per transmit")
	mc.Transmit(message.NewStep("two"))
	assert.Equal(t, 1, late.len())
}

func TestConcurrentTransmitAndMutation(t *testing.T) {
	mc := NewMulticaster("busy")
	stable := &recorder{}
	mc.AddListener(stable)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				mc.Transmit(message.NewTrace("t"))
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				l := &recorder{}
				mc.AddListener(l)
				mc.RemoveListener(l)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 800, stable.len())
	assert.Len(t, mc.Listeners(), 1)
}

func TestListenTo(t *testing.T) {
	mc := NewMulticaster("")
	assert.Contains(t, mc.Name(), "multicaster-")

	rec := &recorder{}
	ListenTo(rec, mc, Failures)
	mc.Transmit(message.NewWarning("w"))
	mc.Transmit(message.NewFatalProblem("f"))
	assert.Equal(t, []message.Kind{message.FatalProblem}, rec.kinds())
}

package alarm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relay/internal/message"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

// burst feeds n problems spread evenly over d.
func burst(a *Alarm, clock *fakeClock, n int, d time.Duration) {
	step := d / time.Duration(n)
	for i := 0; i < n; i++ {
		a.OnMessage(message.NewProblem("request %d failed", i))
		clock.Advance(step)
	}
}

func TestCoolDown(t *testing.T) {
	clock := newFakeClock()
	var rates []Rate
	a := New(Config{
		TriggerRate: 100,
		CoolDown:    5 * time.Minute,
		Clock:       clock.Now,
	}, func(r Rate) { rates = append(rates, r) })

	burst(a, clock, 1000, 10*time.Second)
	require.Len(t, rates, 1, "a burst triggers once")
	assert.Greater(t, float64(rates[0]), 100.0)

	clock.Advance(time.Minute)
	burst(a, clock, 1000, 10*time.Second)
	assert.Len(t, rates, 1, "no trigger during cool-down")

	clock.Advance(5 * time.Minute)
	burst(a, clock, 1000, 10*time.Second)
	assert.Len(t, rates, 2, "triggers again after cool-down")
	assert.Equal(t, 2, a.Triggers())
}

func TestBelowTriggerRateNeverFires(t *testing.T) {
	clock := newFakeClock()
	a := New(Config{TriggerRate: 100, Clock: clock.Now}, func(Rate) {
		t.Fatal("unexpected trigger")
	})

	// 90 per minute for ten minutes
	for i := 0; i < 10; i++ {
		burst(a, clock, 90, time.Minute)
	}
	assert.Zero(t, a.Triggers())
	assert.InDelta(t, 90, float64(a.Rate()), 3)
}

func TestOnlyAlarmingMessagesCount(t *testing.T) {
	clock := newFakeClock()
	a := New(Config{TriggerRate: 1, Clock: clock.Now}, nil)

	for i := 0; i < 50; i++ {
		a.OnMessage(message.NewWarning("w"))
		a.OnMessage(message.NewIncomplete("i"))
		a.OnMessage(message.NewOperationHalted("h"))
	}
	assert.Zero(t, float64(a.Rate()))

	a.OnMessage(message.NewOperationFailed("deploy"))
	a.OnMessage(message.NewCriticalAlert("down"))
	assert.Equal(t, 1, a.Triggers())
}

func TestThresholdIsConfigurable(t *testing.T) {
	clock := newFakeClock()
	a := New(Config{TriggerRate: 100, Threshold: message.StatusResultCompromised, Clock: clock.Now}, nil)

	assert.True(t, a.IsAlarming(message.NewWarning("w")))
	assert.False(t, a.IsAlarming(message.NewGlitch("g")))
	assert.Equal(t, time.Minute, a.Config().Window)
}

func TestWindowExpiresOldCounts(t *testing.T) {
	clock := newFakeClock()
	w := newWindow(time.Minute)

	for i := 0; i < 30; i++ {
		w.add(clock.Now())
		clock.Advance(time.Second)
	}
	assert.Equal(t, 30, w.count(clock.Now()))

	clock.Advance(45 * time.Second)
	assert.Equal(t, 14, w.count(clock.Now()))

	clock.Advance(2 * time.Minute)
	assert.Zero(t, w.count(clock.Now()))

	// a clock going backwards keeps the current buckets
	w.add(clock.Now())
	clock.Advance(-10 * time.Second)
	assert.Equal(t, 1, w.count(clock.Now()))
}

func TestRateString(t *testing.T) {
	assert.Equal(t, "12.5/min", Rate(12.5).String())
	assert.Equal(t, "100/min", Rate(100).String())
}

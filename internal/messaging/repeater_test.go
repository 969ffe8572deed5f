package messaging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relay/internal/message"
	"relay/internal/transceiver"
)

func TestRepeaterChain(t *testing.T) {
	a := NewMulticaster("a")
	b := NewRepeater("b")
	c := &recorder{name: "c"}
	a.AddListener(b)
	b.AddListener(c)

	a.Transmit(message.NewProblem("disk full"))

	require.Equal(t, []message.Kind{message.Problem}, c.kinds())
	assert.Equal(t, "disk full", c.msgs[0].Formatted())
}

func TestRepeaterNotRepeating(t *testing.T) {
	fallback := captureFallback(t)
	r := NewRepeater("r")
	rec := &recorder{}
	r.AddListener(rec)

	assert.True(t, r.IsRepeating())
	r.SetRepeating(false)
	r.OnMessage(message.NewInformation("held"))
	assert.Equal(t, 0, rec.len())
	assert.Equal(t, 0, fallback.len())

	r.SetRepeating(true)
	r.Receive(message.NewInformation("passed"))
	assert.Equal(t, 1, rec.len())
}

func TestFailureTracker(t *testing.T) {
	strictMode(t)
	tracker := NewFailureTracker("tracker")
	src := NewMulticaster("src")
	src.AddListener(tracker)

	src.Transmit(message.NewWarning("not a failure"))
	assert.True(t, tracker.OK())

	first := message.NewOperationFailed("build")
	src.Transmit(first)
	src.Transmit(message.NewProblem("again"))

	assert.False(t, tracker.OK())
	assert.Equal(t, 2, tracker.Failures())
	assert.Same(t, first, tracker.FirstFailure())

	tracker.Reset()
	assert.True(t, tracker.OK())
	assert.Nil(t, tracker.FirstFailure())
}

func TestFailureTrackerRepeatsWhenItHasListeners(t *testing.T) {
	tracker := NewFailureTracker("tracker")
	rec := &recorder{}
	tracker.AddListener(rec)

	tracker.OnMessage(message.NewAlert("a"))
	assert.Equal(t, 1, rec.len())
	assert.False(t, tracker.OK())
}

func TestFailureTrackerReceive(t *testing.T) {
	fallback := captureFallback(t)
	tracker := NewFailureTracker("tracker")
	var r transceiver.Receiver[*message.Message] = tracker

	m := message.NewProblem("disk full")
	assert.Same(t, m, r.Receive(m))
	assert.False(t, tracker.OK())
	assert.Equal(t, 1, tracker.Failures())
	assert.Equal(t, 0, fallback.len(), "a tracker without listeners ends the chain")

	tracker.Reset()
	tracker.EnableReception(false)
	r.Receive(message.NewProblem("ignored"))
	tracker.OnMessage(message.NewProblem("ignored"))
	assert.True(t, tracker.OK())
}

func TestThrottleReceive(t *testing.T) {
	kind, err := message.RegisterKind(message.KindSpec{
		Name:         "NoisyFan",
		Severity:     message.SeverityLow,
		Status:       message.StatusResultCompromised,
		MaxFrequency: time.Minute,
	}, message.Quibble, message.Incomplete)
	require.NoError(t, err)

	th := NewThrottle("throttle")
	rec := &recorder{}
	th.AddListener(rec)

	th.Receive(message.New(kind, "fan 1"))
	th.Receive(message.New(kind, "fan 1"))
	th.OnMessage(message.New(kind, "fan 1"))

	assert.Equal(t, 1, rec.len())
	assert.Equal(t, 2, th.Suppressed())

	th.EnableReception(false)
	th.Receive(message.New(kind, "fan 2"))
	assert.Equal(t, 1, rec.len())
	assert.Equal(t, 2, th.Suppressed())
}

func TestThrottleSuppressesFastRepeats(t *testing.T) {
	kind, err := message.RegisterKind(message.KindSpec{
		Name:         "FlakyLink",
		Severity:     message.SeverityLow,
		Status:       message.StatusResultCompromised,
		MaxFrequency: time.Second,
	}, message.Warning, message.Quibble)
	require.NoError(t, err)

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	old := timeNow
	timeNow = func() time.Time { return now }
	defer func() { timeNow = old }()

	th := NewThrottle("throttle")
	rec := &recorder{}
	th.AddListener(rec)

	th.OnMessage(message.New(kind, "link %d down", 1))
	th.OnMessage(message.New(kind, "link %d down", 1))
	th.OnMessage(message.New(kind, "link %d down", 2))
	now = now.Add(500 * time.Millisecond)
	th.OnMessage(message.New(kind, "link %d down", 1))
	now = now.Add(600 * time.Millisecond)
	th.OnMessage(message.New(kind, "link %d down", 1))

	// kinds without a max frequency are never throttled
	th.OnMessage(message.NewWarning("w"))
	th.OnMessage(message.NewWarning("w"))

	assert.Equal(t, 5, rec.len())
	assert.Equal(t, 2, th.Suppressed())
}

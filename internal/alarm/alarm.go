// Package alarm raises an alarm when failures arrive faster than a configured
// rate, at most once per cool-down.
package alarm

import (
	"time"

	"github.com/dustin/go-humanize"

	"relay/internal/message"
)

// Rate is a message rate in messages per minute.
type Rate float64

func (r Rate) String() string {
	return humanize.FtoaWithDigits(float64(r), 2) + "/min"
}

// Config configures an Alarm. Zero fields take defaults.
type Config struct {
	// Window is the trailing duration the rate is computed over. Default 1m.
	Window time.Duration

	// TriggerRate is the rate the alarm must exceed to trigger.
	TriggerRate Rate

	// CoolDown is the minimum time between two triggers.
	CoolDown time.Duration

	// Threshold is the status at or beyond which a message is alarming.
	// Default StatusProblem. Failed operations are always alarming.
	Threshold message.Status

	// Clock defaults to time.Now.
	Clock func() time.Time
}

func (c Config) withDefaults() Config {
	if c.Window <= 0 {
		c.Window = time.Minute
	}
	if c.Threshold == message.StatusNotApplicable {
		c.Threshold = message.StatusProblem
	}
	if c.Clock == nil {
		c.Clock = time.Now
	}
	return c
}

// Alarm is a listener that calls its trigger when the rate of alarming
// messages exceeds the trigger rate, then stays quiet until the cool-down has
// passed. An Alarm is not safe for concurrent use; serialize the goroutines
// that feed it.
type Alarm struct {
	cfg       Config
	onTrigger func(Rate)

	counter     *window
	nextAllowed time.Time
	triggers    int
}

// New creates an alarm that calls onTrigger with the rate that tripped it.
func New(cfg Config, onTrigger func(Rate)) *Alarm {
	cfg = cfg.withDefaults()
	return &Alarm{
		cfg:       cfg,
		onTrigger: onTrigger,
		counter:   newWindow(cfg.Window),
	}
}

// Config returns the effective configuration.
func (a *Alarm) Config() Config { return a.cfg }

// IsAlarming reports whether m counts towards the rate.
func (a *Alarm) IsAlarming(m *message.Message) bool {
	return m.IsWorseThanOrEqualTo(a.cfg.Threshold) ||
		m.OperationStatus() == message.OperationStatusFailed
}

// OnMessage counts alarming messages and triggers when due.
func (a *Alarm) OnMessage(m *message.Message) {
	if !a.IsAlarming(m) {
		return
	}
	now := a.cfg.Clock()
	a.counter.add(now)

	rate := a.rate(now)
	if rate <= a.cfg.TriggerRate || now.Before(a.nextAllowed) {
		return
	}
	a.counter.reset()
	a.nextAllowed = now.Add(a.cfg.CoolDown)
	a.triggers++
	if a.onTrigger != nil {
		a.onTrigger(rate)
	}
}

// Rate returns the current rate of alarming messages.
func (a *Alarm) Rate() Rate {
	return a.rate(a.cfg.Clock())
}

func (a *Alarm) rate(now time.Time) Rate {
	return Rate(float64(a.counter.count(now)) / a.counter.span().Minutes())
}

// Triggers returns how often the alarm has triggered.
func (a *Alarm) Triggers() int { return a.triggers }

// NextAllowed returns the earliest time of the next trigger.
func (a *Alarm) NextAllowed() time.Time { return a.nextAllowed }

// Package observ measures the phases of a replay.
package observ

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// Phase records the duration of one replay phase and how many messages it
// handled.
type Phase struct {
	Name     string
	Start    time.Time
	Dur      time.Duration
	Messages int
}

// Timer tracks replay phases. It is safe for concurrent use.
type Timer struct {
	mu     sync.Mutex
	phases []Phase
	now    func() time.Time
}

// NewTimer creates a new empty Timer.
func NewTimer() *Timer {
	return &Timer{phases: make([]Phase, 0, 4), now: time.Now}
}

// Begin starts a new phase and returns its index.
func (t *Timer) Begin(name string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.phases = append(t.phases, Phase{Name: name, Start: t.now()})
	return len(t.phases) - 1
}

// End finishes a phase by its index.
func (t *Timer) End(idx, messages int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if idx < 0 || idx >= len(t.phases) {
		return
	}
	p := &t.phases[idx]
	p.Dur = t.now().Sub(p.Start)
	p.Messages = messages
}

// Summary returns one line per phase with its throughput, then the total.
func (t *Timer) Summary() string {
	report := t.Report()
	var b strings.Builder
	b.WriteString("timings:\n")
	for _, p := range report.Phases {
		fmt.Fprintf(&b, "  %-10s %9.2f ms", p.Name, p.DurationMS)
		if p.Messages > 0 {
			fmt.Fprintf(&b, "  %s messages", humanize.Comma(int64(p.Messages)))
			if p.DurationMS > 0 {
				perSecond := float64(p.Messages) / (p.DurationMS / 1000)
				fmt.Fprintf(&b, " (%s/s)", humanize.Comma(int64(perSecond)))
			}
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "  %-10s %9.2f ms\n", "total", report.TotalMS)
	return b.String()
}

// PhaseReport представляет сжатую информацию о фазе для сериализации.
type PhaseReport struct {
	Name       string  `json:"name"`
	DurationMS float64 `json:"duration_ms"`
	Messages   int     `json:"messages,omitempty"`
}

// Report описывает агрегированные данные таймера.
type Report struct {
	TotalMS float64       `json:"total_ms"`
	Phases  []PhaseReport `json:"phases"`
}

// Report формирует срез фаз и общую длительность в миллисекундах.
func (t *Timer) Report() Report {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.phases) == 0 {
		return Report{}
	}
	report := Report{
		Phases: make([]PhaseReport, len(t.phases)),
	}
	var total time.Duration
	for i, phase := range t.phases {
		total += phase.Dur
		report.Phases[i] = PhaseReport{
			Name:       phase.Name,
			DurationMS: durationToMillis(phase.Dur),
			Messages:   phase.Messages,
		}
	}
	report.TotalMS = durationToMillis(total)
	return report
}

func durationToMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

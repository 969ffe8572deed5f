package main

import (
	"context"
	"fmt"
	"io"
	"slices"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"relay/internal/alarm"
	"relay/internal/collect"
	"relay/internal/message"
	"relay/internal/observ"
	"relay/internal/sink"
	"relay/internal/ui"
)

// progressEvery is how many decoded messages pass between progress events.
const progressEvery = 500

type statsOptions struct {
	ui        string
	alarmRate float64
	coolDown  time.Duration
	capacity  int
	metrics   bool
	timings   bool
}

type statsReport struct {
	archives int
	list     *collect.List
	alarms   []string
	registry *prometheus.Registry
	timer    *observ.Timer
}

func newStatsCmd() *cobra.Command {
	var opts statsOptions
	cmd := &cobra.Command{
		Use:   "stats [flags] <archive>...",
		Short: "Replay ndjson/msgpack archives and print message statistics",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			progress := cmd.ErrOrStderr()
			live, err := replayView(opts.ui, progress)
			if err != nil {
				return err
			}
			alarmCfg, err := current.AlarmConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("alarm-rate") {
				alarmCfg.TriggerRate = alarm.Rate(opts.alarmRate)
			}
			if cmd.Flags().Changed("cool-down") {
				alarmCfg.CoolDown = opts.coolDown
			}

			var report *statsReport
			if live {
				report, err = runStatsWithUI(cmd.Context(), progress, args, opts, alarmCfg)
			} else {
				report, err = runStats(cmd.Context(), args, opts, alarmCfg, nil)
			}
			if report != nil {
				report.render(cmd.OutOrStdout(), opts)
			}
			return err
		},
	}
	cmd.Flags().StringVar(&opts.ui, "ui", "off", "show replay progress (auto|on|off)")
	cmd.Flags().Float64Var(&opts.alarmRate, "alarm-rate", 0, "alarm when failures per minute exceed this rate (0 disables)")
	cmd.Flags().DurationVar(&opts.coolDown, "cool-down", 5*time.Minute, "minimum time between two alarms")
	cmd.Flags().IntVar(&opts.capacity, "capacity", 0, "keep at most this many messages (0 for no limit)")
	cmd.Flags().BoolVar(&opts.metrics, "metrics", false, "also print message counters by kind and status")
	cmd.Flags().BoolVar(&opts.timings, "timings", false, "show how long decoding and the alarm replay took")
	return cmd
}

// runStats decodes every archive concurrently into one list and replays the
// alarm over the result in creation order. Progress goes to events when it
// is not nil.
func runStats(ctx context.Context, archives []string, opts statsOptions, alarmCfg alarm.Config, events chan<- ui.Event) (*statsReport, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	report := &statsReport{
		archives: len(archives),
		list:     collect.NewList(opts.capacity),
		registry: prometheus.NewRegistry(),
		timer:    observ.NewTimer(),
	}
	metrics, err := sink.NewMetrics(report.registry, "")
	if err != nil {
		return nil, err
	}

	// decoders fan in through one channel; a single collector feeds the
	// list and the metrics in arrival order
	decoded := make(chan *message.Message, 256)
	fanIn := sink.Channel{Ch: decoded}
	collected := make(chan struct{})
	go func() {
		defer close(collected)
		for m := range decoded {
			report.list.OnMessage(m)
			metrics.OnMessage(m)
		}
	}()

	decode := report.timer.Begin("decode")
	g, gctx := errgroup.WithContext(ctx)
	for _, path := range archives {
		g.Go(func() error {
			send(events, ui.Event{Archive: path, Status: ui.StatusReading})
			var n, failures int
			_, err := sink.ReadArchive(path, func(m *message.Message) {
				if gctx.Err() != nil {
					return
				}
				fanIn.OnMessage(m)
				n++
				if m.IsFailure() {
					failures++
				}
				if n%progressEvery == 0 {
					send(events, ui.Event{Archive: path, Status: ui.StatusReading, Messages: n, Failures: failures})
				}
			})
			status := ui.StatusDone
			if err != nil {
				status = ui.StatusError
			}
			send(events, ui.Event{Archive: path, Status: status, Messages: n, Failures: failures})
			return err
		})
	}
	err = g.Wait()
	_ = fanIn.Close()
	<-collected
	report.timer.End(decode, report.list.Len())

	if alarmCfg.TriggerRate > 0 {
		phase := report.timer.Begin("alarm")
		msgs := report.list.Messages()
		report.alarms = replayAlarm(msgs, alarmCfg)
		report.timer.End(phase, len(msgs))
		for _, note := range report.alarms {
			send(events, ui.Event{Note: note})
		}
	}
	return report, err
}

// replayView reports whether stats shows the live replay view on progress,
// the writer the view renders to. "auto" asks for a terminal there.
func replayView(value string, progress io.Writer) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "on":
		return true, nil
	case "off":
		return false, nil
	case "", "auto":
		return sink.IsTerminal(progress), nil
	default:
		return false, fmt.Errorf("invalid --ui value %q (expected auto|on|off)", value)
	}
}

func runStatsWithUI(ctx context.Context, progress io.Writer, archives []string, opts statsOptions, alarmCfg alarm.Config) (*statsReport, error) {
	type outcome struct {
		report *statsReport
		err    error
	}
	events := make(chan ui.Event, 256)
	outcomeCh := make(chan outcome, 1)

	go func() {
		report, err := runStats(ctx, archives, opts, alarmCfg, events)
		outcomeCh <- outcome{report: report, err: err}
		close(events)
	}()

	model := ui.NewReplayModel("replay", archives, events)
	program := tea.NewProgram(model, tea.WithOutput(progress))
	_, uiErr := program.Run()
	// drain so runStats never blocks on a program that quit early
	go func() {
		for range events {
		}
	}()
	res := <-outcomeCh
	if uiErr != nil {
		return res.report, uiErr
	}
	return res.report, res.err
}

// replayAlarm runs an alarm over msgs ordered by creation time, with the
// clock following the messages.
func replayAlarm(msgs []*message.Message, cfg alarm.Config) []string {
	slices.SortStableFunc(msgs, func(a, b *message.Message) int {
		return a.Created().Compare(b.Created())
	})
	var now time.Time
	var notes []string
	cfg.Clock = func() time.Time { return now }
	a := alarm.New(cfg, func(rate alarm.Rate) {
		notes = append(notes, fmt.Sprintf("%s alarm: %s alarming messages (cool-down until %s)",
			now.Format(time.DateTime), rate, now.Add(cfg.CoolDown).Format(time.TimeOnly)))
	})
	for _, m := range msgs {
		now = m.Created()
		a.OnMessage(m)
	}
	return notes
}

func send(events chan<- ui.Event, ev ui.Event) {
	if events != nil {
		events <- ev
	}
}

func (r *statsReport) render(w io.Writer, opts statsOptions) {
	fmt.Fprintf(w, "%s messages from %s\n", humanize.Comma(int64(r.list.Len())), plural(r.archives, "archive"))
	if dropped := r.list.Dropped(); dropped > 0 {
		fmt.Fprintf(w, "%s messages dropped over capacity\n", humanize.Comma(int64(dropped)))
	}
	fmt.Fprint(w, r.list.Statistics())
	for _, note := range r.alarms {
		fmt.Fprintln(w, note)
	}
	if opts.metrics {
		renderMetrics(w, r.registry)
	}
	if opts.timings {
		fmt.Fprint(w, r.timer.Summary())
	}
}

// renderMetrics prints every sample of reg as "name{labels} value".
func renderMetrics(w io.Writer, reg *prometheus.Registry) {
	families, err := reg.Gather()
	if err != nil {
		fmt.Fprintf(w, "metrics: %v\n", err)
		return
	}
	var lines []string
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			labels := make([]string, 0, len(m.GetLabel()))
			for _, lp := range m.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue()))
			}
			var value float64
			switch {
			case m.GetCounter() != nil:
				value = m.GetCounter().GetValue()
			case m.GetHistogram() != nil:
				value = float64(m.GetHistogram().GetSampleCount())
			default:
				continue
			}
			name := mf.GetName()
			if len(labels) > 0 {
				name += "{" + strings.Join(labels, ",") + "}"
			}
			lines = append(lines, fmt.Sprintf("%s %g", name, value))
		}
	}
	sort.Strings(lines)
	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"relay/internal/collect"
	"relay/internal/config"
	"relay/internal/debug"
	"relay/internal/message"
	"relay/internal/messaging"
	"relay/internal/sink"
)

// emitter owns the debug gate of the emit command; enable it with
// RELAY_DEBUG=emitter.
type emitter struct{}

type emitOptions struct {
	origin string
	cause  string
	count  int
}

func newEmitCmd() *cobra.Command {
	var opts emitOptions
	cmd := &cobra.Command{
		Use:   "emit <kind> <text>...",
		Short: "Transmit a message through a repeater chain to the configured log",
		Long: `Transmit a message through origin -> relay -> throttle -> log. A list
listening on the origin decides the exit status: 1 when a failure was emitted.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := message.ParseKind(args[0])
			if err != nil {
				return err
			}
			if opts.count < 1 {
				return fmt.Errorf("--count must be positive, got %d", opts.count)
			}
			text := strings.Join(args[1:], " ")
			msgs := make([]*message.Message, opts.count)
			for i := range msgs {
				msgs[i] = message.New(kind, text)
				if opts.cause != "" {
					msgs[i].WithCause(errors.New(opts.cause))
				}
			}
			return emit(cmd.ErrOrStderr(), current, opts.origin, msgs...)
		},
	}
	cmd.Flags().StringVar(&opts.origin, "origin", "cli", "name of the transmitting broadcaster")
	cmd.Flags().StringVar(&opts.cause, "cause", "", "attach an error cause to the message")
	cmd.Flags().IntVar(&opts.count, "count", 1, "transmit the message this many times")
	return cmd
}

// emit wires origin -> relay -> throttle -> sink, with a list on the origin,
// and transmits msgs.
func emit(out io.Writer, cfg *config.Config, origin string, msgs ...*message.Message) error {
	sc, err := cfg.SinkConfig()
	if err != nil {
		return err
	}
	sc.Output = out
	s, err := sink.Open(sc)
	if err != nil {
		return err
	}
	defer s.Close()

	src := messaging.NewMulticaster(origin)
	relay := messaging.NewRepeater("relay")
	throttle := messaging.NewThrottle("throttle")
	list := collect.NewList(0)

	src.AddListener(relay)
	src.AddListener(list)
	relay.AddListener(throttle)
	throttle.AddListener(s)

	trace := debug.Register(emitter{}, relay)
	defer debug.Default().Unregister(emitter{})
	trace.Trace("emitting %d message(s) from %s", len(msgs), origin)

	for _, m := range msgs {
		src.Transmit(m)
	}
	if n := throttle.Suppressed(); n > 0 {
		fmt.Fprintf(out, "suppressed %d repeated message(s)\n", n)
	}
	if err := s.Flush(); err != nil {
		return err
	}
	return list.IfFailedError()
}

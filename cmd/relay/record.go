package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"relay/internal/message"
	"relay/internal/messaging"
	"relay/internal/sink"
)

type recordOptions struct {
	format string
	out    string
	origin string
	cause  string
}

func newRecordCmd() *cobra.Command {
	var opts recordOptions
	cmd := &cobra.Command{
		Use:   "record --out <file> <kind> <text>...",
		Short: "Append a message to an archive",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := sink.ParseFormat(opts.format)
			if err != nil {
				return err
			}
			if format == sink.FormatAuto && sink.DetectFormat(opts.out) == sink.FormatText {
				return fmt.Errorf("cannot detect archive format of %q; use --format ndjson|msgpack", opts.out)
			}
			kind, err := message.ParseKind(args[0])
			if err != nil {
				return err
			}
			m := message.New(kind, strings.Join(args[1:], " "))
			if opts.cause != "" {
				m.WithCause(errors.New(opts.cause))
			}
			return record(opts, m)
		},
	}
	cmd.Flags().StringVar(&opts.format, "format", "auto", "archive format (auto|ndjson|msgpack)")
	cmd.Flags().StringVar(&opts.out, "out", "", "archive file to append to")
	cmd.Flags().StringVar(&opts.origin, "origin", "cli", "name of the transmitting broadcaster")
	cmd.Flags().StringVar(&opts.cause, "cause", "", "attach an error cause to the message")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func record(opts recordOptions, msgs ...*message.Message) error {
	format, err := sink.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	s, err := sink.Open(sink.Config{Destination: opts.out, Format: format})
	if err != nil {
		return err
	}
	src := messaging.NewMulticaster(opts.origin)
	src.AddListener(s)
	for _, m := range msgs {
		src.Transmit(m)
	}
	return s.Close()
}

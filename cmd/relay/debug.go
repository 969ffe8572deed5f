package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"relay/internal/debug"
)

func newDebugCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "debug <patterns> <type>...",
		Short: "Show which types a debug pattern list enables",
		Long: `Evaluate a pattern list the way ` + debug.EnvVar + ` is evaluated. Types are
simple names ("Folder") or qualified names ("example.com/pkg.Folder"). The
last matching pattern wins. Embedded types are unknown here, so "extends"
patterns only match the named type itself.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			patterns, err := debug.ParsePatterns(args[0])
			if err != nil {
				return err
			}
			renderDebug(cmd.OutOrStdout(), patterns, args[1:])
			return nil
		},
	}
}

func renderDebug(w io.Writer, patterns debug.Patterns, names []string) {
	on := color.New(color.FgGreen, color.Bold)
	off := color.New(color.FgHiBlack)

	width := 0
	for _, name := range names {
		width = max(width, runewidth.StringWidth(name))
	}
	for _, name := range names {
		simple := name[strings.LastIndex(name, ".")+1:]
		state := off.Sprint("off")
		if patterns.EnabledForName(simple, name) {
			state = on.Sprint("on")
		}
		fmt.Fprintf(w, "%s  %s\n", runewidth.FillRight(name, width), state)
	}
}

package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"relay/internal/message"
)

func newKindsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "kinds",
		Short: "List message kinds from least to most important",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			renderKinds(cmd.OutOrStdout())
			return nil
		},
	}
}

func renderKinds(w io.Writer) {
	headerStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	failureStyle := cellStyle.Foreground(lipgloss.Color("1"))

	kinds := message.Kinds()
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("KIND", "IMPORTANCE", "SEVERITY", "STATUS", "MAX FREQUENCY")
	for _, k := range kinds {
		status := k.Status().String()
		if k.Status() == message.StatusNotApplicable {
			status = k.OperationStatus().String()
		}
		freq := "-"
		if f := k.MaxFrequency(); f > 0 {
			freq = f.String()
		}
		t.Row(k.String(), k.Importance().String(), k.Severity().String(), status, freq)
	}
	t.StyleFunc(func(row, col int) lipgloss.Style {
		switch {
		case row == table.HeaderRow:
			return headerStyle
		case row >= 1 && row <= len(kinds) && kinds[row-1].IsFailure():
			return failureStyle
		default:
			return cellStyle
		}
	})
	fmt.Fprintln(w, t.Render())
}

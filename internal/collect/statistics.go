package collect

import (
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"relay/internal/message"
)

// Statistics renders per-kind counts as right-aligned "Label: count" lines
// followed by a total. Without kinds, every kind with a non-zero count is
// listed from most to least important.
func Statistics(counts map[message.Kind]int, kinds ...message.Kind) string {
	if len(kinds) == 0 {
		all := message.Kinds()
		for i := len(all) - 1; i >= 0; i-- {
			if counts[all[i]] > 0 {
				kinds = append(kinds, all[i])
			}
		}
	}

	labels := make([]string, 0, len(kinds)+1)
	values := make([]string, 0, len(kinds)+1)
	total := 0
	for _, k := range kinds {
		labels = append(labels, k.String()+":")
		values = append(values, humanize.Comma(int64(counts[k])))
		total += counts[k]
	}
	labels = append(labels, "Total:")
	values = append(values, humanize.Comma(int64(total)))

	labelWidth, valueWidth := 0, 0
	for i := range labels {
		labelWidth = max(labelWidth, runewidth.StringWidth(labels[i]))
		valueWidth = max(valueWidth, runewidth.StringWidth(values[i]))
	}

	var sb strings.Builder
	for i := range labels {
		sb.WriteString(runewidth.FillLeft(labels[i], labelWidth))
		sb.WriteByte(' ')
		sb.WriteString(runewidth.FillLeft(values[i], valueWidth))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Statistics renders the list's counts; see the package-level Statistics.
func (l *List) Statistics(kinds ...message.Kind) string {
	return Statistics(l.Counts(), kinds...)
}

// Statistics renders the counter's counts; see the package-level Statistics.
func (c *Counter) Statistics(kinds ...message.Kind) string {
	return Statistics(c.Counts(), kinds...)
}

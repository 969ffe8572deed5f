package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
)

// Status is the replay state of one archive.
type Status uint8

const (
	StatusQueued Status = iota
	StatusReading
	StatusDone
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusQueued:
		return "queued"
	case StatusReading:
		return "reading"
	case StatusDone:
		return "done"
	case StatusError:
		return "error"
	default:
		return ""
	}
}

// Event reports progress of one archive. Messages and Failures are running
// totals for that archive. An event without an archive is an alarm trigger
// described by Note.
type Event struct {
	Archive  string
	Status   Status
	Messages int
	Failures int
	Note     string
}

type replayModel struct {
	title   string
	events  <-chan Event
	spinner spinner.Model
	prog    progress.Model
	items   []archiveItem
	index   map[string]int
	notes   []string
	width   int
	done    bool
}

type archiveItem struct {
	path     string
	status   Status
	messages int
	failures int
}

type eventMsg Event
type doneMsg struct{}

// maxNotes bounds the alarm lines kept under the archive list.
const maxNotes = 5

// NewReplayModel returns a Bubble Tea model that renders archive replay
// progress until events is closed.
func NewReplayModel(title string, archives []string, events <-chan Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76

	items := make([]archiveItem, 0, len(archives))
	index := make(map[string]int, len(archives))
	for i, path := range archives {
		items = append(items, archiveItem{path: path})
		index[path] = i
	}
	return &replayModel{
		title:   title,
		events:  events,
		spinner: sp,
		prog:    prog,
		items:   items,
		index:   index,
		width:   80,
	}
}

func (m *replayModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *replayModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		cmd := m.applyEvent(Event(msg))
		return m, tea.Batch(cmd, m.listenForEvent())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.prog.Width = msg.Width - 4
		}
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m, nil
	case progress.FrameMsg:
		pm, cmd := m.prog.Update(msg)
		m.prog = pm.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *replayModel) View() string {
	if len(m.items) == 0 {
		return ""
	}
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	messages, failures := m.totals()
	header := fmt.Sprintf("%s (%s messages, %s failures)", m.title, humanize.Comma(int64(messages)), humanize.Comma(int64(failures)))
	if m.done {
		header = "done: " + header
	} else {
		header = m.spinner.View() + " " + header
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	countWidth := 10
	statusWidth := 8
	nameWidth := max(m.width-statusWidth-countWidth-6, 20)

	for _, item := range m.items {
		status := styleStatus(item.status).Render(fmt.Sprintf("%8s", item.status))
		count := fmt.Sprintf("%*s", countWidth, humanize.Comma(int64(item.messages)))
		fmt.Fprintf(&b, "  %s %s %s\n", status, count, truncate(item.path, nameWidth))
	}

	if len(m.notes) > 0 {
		alarmStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
		b.WriteString("\n")
		for _, note := range m.notes {
			b.WriteString("  ")
			b.WriteString(alarmStyle.Render(truncate(note, m.width-2)))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	if m.done {
		b.WriteString(m.prog.ViewAs(1.0))
	} else {
		b.WriteString(m.prog.View())
	}
	b.WriteString("\n")
	return b.String()
}

func (m *replayModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *replayModel) applyEvent(ev Event) tea.Cmd {
	if ev.Archive == "" {
		if ev.Note != "" {
			m.notes = append(m.notes, ev.Note)
			if len(m.notes) > maxNotes {
				m.notes = m.notes[len(m.notes)-maxNotes:]
			}
		}
		return nil
	}
	idx, ok := m.index[ev.Archive]
	if !ok {
		return nil
	}
	item := &m.items[idx]
	item.status = ev.Status
	item.messages = ev.Messages
	item.failures = ev.Failures

	return m.prog.SetPercent(m.fraction())
}

// fraction counts finished archives fully and archives being read as half.
func (m *replayModel) fraction() float64 {
	if len(m.items) == 0 {
		return 0
	}
	total := 0.0
	for _, item := range m.items {
		switch item.status {
		case StatusDone, StatusError:
			total += 1.0
		case StatusReading:
			total += 0.5
		}
	}
	return total / float64(len(m.items))
}

func (m *replayModel) totals() (messages, failures int) {
	for _, item := range m.items {
		messages += item.messages
		failures += item.failures
	}
	return messages, failures
}

func styleStatus(status Status) lipgloss.Style {
	switch status {
	case StatusDone:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case StatusError:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	case StatusReading:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	}
}

func truncate(value string, width int) string {
	if width <= 0 {
		return value
	}
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width, "...")
}

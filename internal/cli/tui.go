package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	fetcherrors "github.com/matzehuels/fetchflow/pkg/errors"
)

// historySize is the number of cycles shown in the poll view.
const historySize = 10

// previewLines caps the lines of the latest payload shown.
const previewLines = 12

var (
	headerStyle  = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	previewStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim).Padding(0, 1)
)

// Messages sent from poll listeners to the program.
type (
	pollDataMsg struct {
		data      json.RawMessage
		fromCache bool
		at        time.Time
	}
	pollErrorMsg struct {
		err *fetcherrors.FetchError
		at  time.Time
	}
	pollDoneMsg struct{}
)

// cycleRow is one line of the poll history.
type cycleRow struct {
	n         int
	at        time.Time
	fromCache bool
	err       *fetcherrors.FetchError
	size      int
}

// pollModel is the bubbletea model for the live poll view.
type pollModel struct {
	url      string
	interval time.Duration
	limit    int

	cycles  int
	hits    int
	errors  int
	history []cycleRow
	preview string
	done    bool
}

func newPollModel(url string, interval time.Duration, limit int) pollModel {
	return pollModel{url: url, interval: interval, limit: limit}
}

func (m pollModel) Init() tea.Cmd {
	return nil
}

func (m pollModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.done = true
			return m, tea.Quit
		}
	case pollDataMsg:
		m.cycles++
		if msg.fromCache {
			m.hits++
		}
		m.record(cycleRow{n: m.cycles, at: msg.at, fromCache: msg.fromCache, size: len(msg.data)})
		m.preview = preview(msg.data)
	case pollErrorMsg:
		m.cycles++
		m.errors++
		m.record(cycleRow{n: m.cycles, at: msg.at, err: msg.err})
	case pollDoneMsg:
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m *pollModel) record(row cycleRow) {
	m.history = append(m.history, row)
	if len(m.history) > historySize {
		m.history = m.history[len(m.history)-historySize:]
	}
}

func (m pollModel) View() string {
	var b strings.Builder

	b.WriteString(styleTitle.Render("Polling "))
	b.WriteString(styleHighlight.Render(m.url))
	b.WriteString("\n")
	b.WriteString(styleDim.Render(fmt.Sprintf("every %s  q quit", m.interval)))
	b.WriteString("\n\n")

	cycles := strconv.Itoa(m.cycles)
	if m.limit > 0 {
		cycles += "/" + strconv.Itoa(m.limit)
	}
	b.WriteString(fmt.Sprintf("%s cycles  %s cached  %s errors\n\n",
		styleValue.Render(cycles),
		styleCached.Render(strconv.Itoa(m.hits)),
		styleErrorText.Render(strconv.Itoa(m.errors)),
	))

	rows := make([][]string, 0, len(m.history))
	for _, r := range m.history {
		status, detail := iconFresh, fmt.Sprintf("%d bytes", r.size)
		switch {
		case r.err != nil:
			status, detail = string(r.err.Kind), r.err.Message
		case r.fromCache:
			status = iconCached
		}
		rows = append(rows, []string{strconv.Itoa(r.n), r.at.Format("15:04:05"), status, detail})
	}

	history := m.history
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("#", "Time", "Status", "Detail").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if row < 0 || row >= len(history) || col != 2 {
				return lipgloss.NewStyle()
			}
			r := history[row]
			switch {
			case r.err != nil:
				return styleErrorText
			case r.fromCache:
				return styleCached
			}
			return styleFresh
		})
	b.WriteString(t.Render())
	b.WriteString("\n")

	if m.preview != "" {
		b.WriteString(previewStyle.Render(m.preview))
		b.WriteString("\n")
	}
	return b.String()
}

// preview indents data and keeps its first previewLines lines.
func preview(data json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return string(data)
	}
	lines := strings.Split(buf.String(), "\n")
	if len(lines) > previewLines {
		lines = append(lines[:previewLines], styleDim.Render(fmt.Sprintf("… %d more lines", len(lines)-previewLines)))
	}
	return strings.Join(lines, "\n")
}

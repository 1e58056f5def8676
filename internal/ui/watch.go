package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aiomayo/portwatch/internal/inventory"
	"github.com/aiomayo/portwatch/internal/killer"
	"github.com/aiomayo/portwatch/internal/query"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Source is the inventory the watch view reads from and kills through.
type Source interface {
	List(ctx context.Context, f query.Filter, key query.SortKey) ([]inventory.Record, error)
	Kill(ctx context.Context, pid int32) killer.Result
	Refresh(ctx context.Context) (query.Stats, error)
}

var (
	baseStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240"))
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	promptStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
)

type (
	tickMsg    time.Time
	recordsMsg []inventory.Record
	errMsg     struct{ err error }
	killedMsg  killer.Result
)

type watchModel struct {
	ctx      context.Context
	source   Source
	interval time.Duration

	table       table.Model
	filterInput textinput.Model
	filtering   bool
	protocol    query.ProtocolFilter
	sort        query.SortKey
	records     []inventory.Record

	confirmingKill bool
	killTarget     inventory.Record
	killing        bool

	message string
	err     error
}

// Watch runs the full-screen inventory view until the user quits.
func Watch(ctx context.Context, source Source, interval time.Duration) error {
	p := tea.NewProgram(newWatchModel(ctx, source, interval), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

func newWatchModel(ctx context.Context, source Source, interval time.Duration) watchModel {
	ti := textinput.New()
	ti.Placeholder = "Filter..."
	ti.CharLimit = 64
	ti.Width = 30

	columns := []table.Column{
		{Title: "Proto", Width: 6},
		{Title: "Local Address", Width: 24},
		{Title: "Port", Width: 7},
		{Title: "Remote Address", Width: 28},
		{Title: "State", Width: 12},
		{Title: "PID", Width: 8},
		{Title: "Process", Width: 24},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(20),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(true)
	t.SetStyles(s)

	return watchModel{
		ctx:         ctx,
		source:      source,
		interval:    interval,
		table:       t,
		filterInput: ti,
		sort:        query.SortPort,
	}
}

func (m watchModel) Init() tea.Cmd {
	return tea.Batch(m.tick(), m.load())
}

func (m watchModel) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m watchModel) filter() query.Filter {
	return query.Filter{Protocol: m.protocol, Text: m.filterInput.Value()}
}

func (m watchModel) load() tea.Cmd {
	ctx, source, f, key := m.ctx, m.source, m.filter(), m.sort
	return func() tea.Msg {
		records, err := source.List(ctx, f, key)
		if err != nil {
			return errMsg{err}
		}
		return recordsMsg(records)
	}
}

func (m watchModel) refresh() tea.Cmd {
	ctx, source := m.ctx, m.source
	return tea.Sequence(func() tea.Msg {
		if _, err := source.Refresh(ctx); err != nil {
			return errMsg{err}
		}
		return nil
	}, m.load())
}

func (m watchModel) kill(pid int32) tea.Cmd {
	ctx, source := m.ctx, m.source
	return func() tea.Msg {
		return killedMsg(source.Kill(ctx, pid))
	}
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.table.SetHeight(max(5, msg.Height-8))
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.tick(), m.load())

	case recordsMsg:
		m.records = msg
		m.err = nil
		rows := make([]table.Row, 0, len(msg))
		for _, r := range msg {
			rows = append(rows, table.Row(recordRow(r)))
		}
		m.table.SetRows(rows)
		if m.table.Cursor() >= len(rows) {
			m.table.SetCursor(max(0, len(rows)-1))
		}
		return m, nil

	case errMsg:
		m.err = msg.err
		return m, nil

	case killedMsg:
		m.killing = false
		m.message = killer.FormatResult(killer.Result(msg))
		return m, m.load()

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.confirmingKill {
			return m.handleConfirmKey(msg)
		}
		if m.filtering {
			return m.handleFilterKey(msg)
		}
		return m.handleTableKey(msg)
	}

	return m, nil
}

func (m watchModel) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.confirmingKill = false
		m.killing = true
		m.message = fmt.Sprintf("terminating %s (PID %d)...", m.killTarget.Process.Name, m.killTarget.PID)
		return m, m.kill(m.killTarget.PID)
	case "n", "N", "esc":
		m.confirmingKill = false
		m.message = ""
	}
	return m, nil
}

func (m watchModel) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.filtering = false
		m.filterInput.SetValue("")
		m.filterInput.Blur()
		m.table.Focus()
		return m, m.load()
	case "enter", "down":
		m.filtering = false
		m.filterInput.Blur()
		m.table.Focus()
		return m, nil
	}

	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	return m, tea.Batch(cmd, m.load())
}

func (m watchModel) handleTableKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "/":
		m.filtering = true
		m.table.Blur()
		return m, m.filterInput.Focus()
	case "t":
		m.protocol = (m.protocol + 1) % 3
		return m, m.load()
	case "s":
		m.sort = (m.sort + 1) % 4
		return m, m.load()
	case "r":
		m.message = "refreshing..."
		return m, m.refresh()
	case "x", "delete":
		if m.killing || len(m.records) == 0 {
			return m, nil
		}
		target := m.records[m.table.Cursor()]
		if target.PID == inventory.UnknownPID {
			m.message = "owner of this socket is unknown"
			return m, nil
		}
		m.killTarget = target
		m.confirmingKill = true
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m watchModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("portwatch"))
	b.WriteString(dimStyle.Render(fmt.Sprintf("  %d shown · protocol %s · sort %s", len(m.records), m.protocol, m.sort)))
	b.WriteString("\n")

	if m.filtering || m.filterInput.Value() != "" {
		b.WriteString(m.filterInput.View())
		b.WriteString("\n")
	}

	b.WriteString(baseStyle.Render(m.table.View()))
	b.WriteString("\n")

	switch {
	case m.confirmingKill:
		b.WriteString(promptStyle.Render(fmt.Sprintf("Kill %s (PID %d) on port %d? [y/n]",
			m.killTarget.Process.Name, m.killTarget.PID, m.killTarget.LocalPort)))
	case m.err != nil:
		b.WriteString(errorStyle.Render(m.err.Error()))
	case m.message != "":
		b.WriteString(m.message)
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("/ filter · t protocol · s sort · r refresh · x kill · q quit"))

	return b.String()
}

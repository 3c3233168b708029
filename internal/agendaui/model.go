// Package agendaui is the interactive list of alarms pending in a running
// daemon.
package agendaui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/memorizer/remindd/internal/alarm"
	"github.com/memorizer/remindd/internal/commands"
	"github.com/memorizer/remindd/internal/views"
)

const DefaultRefresh = 30 * time.Second

type refreshedMsg struct {
	pending []alarm.View
	err     error
}

type resyncedMsg struct {
	summary alarm.Summary
	err     error
}

type cancelledMsg struct {
	view alarm.View
	ok   bool
	err  error
}

type paletteMsg struct {
	result commands.Result
	err    error
}

type tickMsg time.Time

type KeyMap struct {
	Refresh key.Binding
	Resync  key.Binding
	Cancel  key.Binding
	Grouped key.Binding
	Palette key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Refresh, k.Cancel, k.Palette, k.Help, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Refresh, k.Resync, k.Cancel}, {k.Grouped, k.Palette, k.Help, k.Quit}}
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Resync:  key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "resync from database")),
		Cancel:  key.NewBinding(key.WithKeys("x", "delete"), key.WithHelp("x", "cancel alarm")),
		Grouped: key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "table/by day")),
		Palette: key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "command")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

type Option func(*Model)

func WithClock(now func() time.Time) Option {
	return func(m *Model) {
		if now != nil {
			m.now = now
		}
	}
}

// WithRefresh sets the polling interval; zero disables polling.
func WithRefresh(d time.Duration) Option {
	return func(m *Model) {
		m.interval = d
	}
}

type Model struct {
	ctx      context.Context
	src      Source
	now      func() time.Time
	interval time.Duration
	keys     KeyMap

	pending []alarm.View
	visible []alarm.View
	filter  string
	table   table.Model
	spinner spinner.Model
	help    help.Model
	palette textinput.Model
	loading bool
	grouped bool

	status  string
	isError bool
}

func New(ctx context.Context, src Source, opts ...Option) Model {
	m := Model{
		ctx:      ctx,
		src:      src,
		now:      time.Now,
		interval: DefaultRefresh,
		keys:     DefaultKeyMap(),
		help:     help.New(),
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		loading:  true,
		table: table.New(
			table.WithColumns([]table.Column{
				{Title: "When", Width: 17},
				{Title: "Kind", Width: 11},
				{Title: "Item", Width: 6},
				{Title: "Delivery", Width: 11},
				{Title: "Title", Width: 24},
			}),
			table.WithFocused(true),
			table.WithHeight(14),
		),
	}
	m.palette = textinput.New()
	m.palette.Prompt = "/"
	m.palette.Placeholder = "snooze 4 30 | cancel snooze 4 | resync | show daily"
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.refresh(), m.spinner.Tick, m.tick())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		if m.palette.Focused() {
			return m.updatePalette(typed)
		}
		switch {
		case key.Matches(typed, m.keys.Palette):
			m.palette.SetValue("")
			cmd := m.palette.Focus()
			return m, cmd
		case key.Matches(typed, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(typed, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(typed, m.keys.Grouped):
			m.grouped = !m.grouped
			return m, nil
		case key.Matches(typed, m.keys.Refresh):
			m.loading = true
			return m, tea.Batch(m.refresh(), m.spinner.Tick)
		case key.Matches(typed, m.keys.Resync):
			m.loading = true
			m.setStatus("resync requested", false)
			return m, tea.Batch(m.resync(), m.spinner.Tick)
		case key.Matches(typed, m.keys.Cancel):
			v, ok := m.Selected()
			if !ok {
				return m, nil
			}
			if v.Kind != alarm.KindSpecific && v.Kind != alarm.KindSnooze {
				m.setStatus(fmt.Sprintf("%s alarms follow the database; edit the item instead", v.Kind), true)
				return m, nil
			}
			return m, m.cancel(v)
		}
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(typed)
		return m, cmd

	case refreshedMsg:
		m.loading = false
		if typed.err != nil {
			m.setStatus("refresh failed: "+typed.err.Error(), true)
			return m, nil
		}
		m.setPending(typed.pending)
		m.setStatus(fmt.Sprintf("%d alarms pending, updated %s", len(typed.pending), m.now().Format("15:04:05")), false)
		return m, nil

	case resyncedMsg:
		if typed.err != nil {
			m.loading = false
			m.setStatus("resync failed: "+typed.err.Error(), true)
			return m, nil
		}
		s := typed.summary
		m.setStatus(fmt.Sprintf("resynced: %d specific, %d daily, %d period, %d skipped", s.Specific, s.Daily, s.Period, s.Skipped), false)
		return m, m.refresh()

	case cancelledMsg:
		if typed.err != nil {
			m.setStatus("cancel failed: "+typed.err.Error(), true)
			return m, nil
		}
		if !typed.ok {
			m.setStatus(typed.view.Key+" was no longer pending", false)
		} else {
			m.setStatus("cancelled "+typed.view.Key, false)
		}
		return m, m.refresh()

	case paletteMsg:
		if typed.err != nil {
			m.setStatus(typed.err.Error(), true)
			return m, nil
		}
		m.setStatus(typed.result.Message, false)
		return m, m.refresh()

	case tickMsg:
		return m, tea.Batch(m.refresh(), m.tick())

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(typed)
		return m, cmd
	}
	return m, nil
}

func (m Model) View() string {
	header := "remindd agenda"
	if m.loading {
		header += " " + m.spinner.View()
	}
	main := m.table.View()
	if m.palette.Focused() {
		main += "\n" + m.palette.View()
	}
	if m.grouped {
		main = views.RenderAgenda(m.agendaEntries())
	}
	return views.RenderScreen(views.ScreenData{
		Header:     header,
		Main:       main,
		Detail:     m.detail(),
		StatusLine: m.status,
		IsError:    m.isError,
		Footer:     m.help.View(m.keys),
	})
}

// Selected returns the alarm under the table cursor.
func (m Model) Selected() (alarm.View, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.visible) {
		return alarm.View{}, false
	}
	return m.visible[i], true
}

func (m Model) Pending() []alarm.View {
	return m.pending
}

// Visible returns the alarms shown under the current kind filter.
func (m Model) Visible() []alarm.View {
	return m.visible
}

func (m Model) Status() (string, bool) {
	return m.status, m.isError
}

func (m *Model) setStatus(text string, isError bool) {
	m.status = text
	m.isError = isError
}

func (m *Model) setPending(pending []alarm.View) {
	m.pending = pending
	m.visible = make([]alarm.View, 0, len(pending))
	for _, v := range pending {
		if m.filter == "" || v.Kind == m.filter {
			m.visible = append(m.visible, v)
		}
	}
	rows := make([]table.Row, 0, len(m.visible))
	for _, v := range m.visible {
		item := ""
		if v.ItemID > 0 {
			item = strconv.FormatInt(v.ItemID, 10)
		}
		rows = append(rows, table.Row{
			v.TriggerAt.Local().Format("Mon 01-02 15:04"),
			v.Kind,
			item,
			v.Delivery,
			v.Title,
		})
	}
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) && len(rows) > 0 {
		m.table.SetCursor(len(rows) - 1)
	}
}

func (m Model) agendaEntries() []views.AgendaEntry {
	out := make([]views.AgendaEntry, 0, len(m.visible))
	for _, v := range m.visible {
		at := v.TriggerAt.Local()
		out = append(out, views.AgendaEntry{
			Key:      v.Key,
			Kind:     v.Kind,
			Date:     at.Format("2006-01-02"),
			Time:     at.Format("15:04"),
			Title:    v.Title,
			Delivery: v.Delivery,
		})
	}
	return out
}

func (m Model) detail() string {
	v, ok := m.Selected()
	if !ok {
		return ""
	}
	lines := []string{
		"key: " + v.Key,
		"fires: " + v.TriggerAt.Local().Format("2006-01-02 15:04:05"),
		"in: " + until(m.now(), v.TriggerAt),
		"delivery: " + v.Delivery,
	}
	if v.Title != "" {
		lines = append(lines, "title: "+v.Title)
	}
	return strings.Join(lines, "\n")
}

func until(now, at time.Time) string {
	d := at.Sub(now)
	if d <= 0 {
		return "due"
	}
	return d.Truncate(time.Minute).String()
}

func (m Model) refresh() tea.Cmd {
	return func() tea.Msg {
		pending, err := m.src.Pending(m.ctx)
		return refreshedMsg{pending: pending, err: err}
	}
}

func (m Model) resync() tea.Cmd {
	return func() tea.Msg {
		s, err := m.src.Resync(m.ctx)
		return resyncedMsg{summary: s, err: err}
	}
}

func (m Model) cancel(v alarm.View) tea.Cmd {
	return func() tea.Msg {
		ok, err := m.src.Cancel(m.ctx, v)
		return cancelledMsg{view: v, ok: ok, err: err}
	}
}

func (m Model) updatePalette(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEsc:
		m.palette.Blur()
		return m, nil
	case tea.KeyEnter:
		input := m.palette.Value()
		m.palette.Blur()
		cmd, err := commands.Parse(input)
		if err != nil {
			m.setStatus(err.Error(), true)
			return m, nil
		}
		if cmd.Type == commands.TypeShow {
			m.filter = cmd.Show.Kind
			m.setPending(m.pending)
			m.setStatus(fmt.Sprintf("showing %d of %d alarms", len(m.visible), len(m.pending)), false)
			return m, nil
		}
		return m, m.execute(cmd)
	}
	var cmd tea.Cmd
	m.palette, cmd = m.palette.Update(msg)
	return m, cmd
}

func (m Model) execute(cmd commands.Command) tea.Cmd {
	handlers := commands.Handlers{
		Snooze: func(ctx context.Context, a commands.SnoozeArgs) (commands.Result, error) {
			at, err := m.src.Snooze(ctx, a.ItemID, a.Minutes)
			if err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("item %d snoozed until %s", a.ItemID, at.Local().Format("15:04"))}, nil
		},
		Cancel: func(ctx context.Context, a commands.CancelArgs) (commands.Result, error) {
			ok, err := m.src.Cancel(ctx, alarm.View{Kind: a.Kind, ItemID: a.ItemID})
			if err != nil {
				return commands.Result{}, err
			}
			if !ok {
				return commands.Result{Message: fmt.Sprintf("no %s alarm pending for item %d", a.Kind, a.ItemID)}, nil
			}
			return commands.Result{Message: fmt.Sprintf("cancelled %s alarm of item %d", a.Kind, a.ItemID)}, nil
		},
		Resync: func(ctx context.Context) (commands.Result, error) {
			s, err := m.src.Resync(ctx)
			if err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("resynced: %d specific, %d daily, %d period, %d skipped", s.Specific, s.Daily, s.Period, s.Skipped)}, nil
		},
	}
	return func() tea.Msg {
		res, err := commands.Execute(m.ctx, cmd, handlers)
		return paletteMsg{result: res, err: err}
	}
}

func (m Model) tick() tea.Cmd {
	if m.interval <= 0 {
		return nil
	}
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Run shows the agenda until the user quits.
func Run(ctx context.Context, src Source, opts ...Option) error {
	_, err := tea.NewProgram(New(ctx, src, opts...), tea.WithContext(ctx), tea.WithAltScreen()).Run()
	return err
}

package alertui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/memorizer/remindd/internal/views"
)

// Outcome is what the user chose before the alert closed.
type Outcome struct {
	Dismissed     bool
	SnoozeMinutes int
}

type Labels struct {
	Unlock string
	Prompt string
	OK     string
	Snooze string
	Back   string
}

type Config struct {
	Header  string
	Title   string
	Body    string
	Color   string
	Options []int
	Labels  Labels
	// OptionLabel renders a snooze option; defaults to "N min".
	OptionLabel func(minutes int) string
}

type KeyMap struct {
	Unlock key.Binding
	OK     key.Binding
	Snooze key.Binding
	Up     key.Binding
	Down   key.Binding
	Back   key.Binding
	Quit   key.Binding
}

type helpKeyMap struct {
	short []key.Binding
}

func (k helpKeyMap) ShortHelp() []key.Binding  { return k.short }
func (k helpKeyMap) FullHelp() [][]key.Binding { return [][]key.Binding{k.short} }

type Model struct {
	cfg       Config
	keys      KeyMap
	help      help.Model
	locked    bool
	selecting bool
	cursor    int
	outcome   Outcome
	done      bool
}

func New(cfg Config) Model {
	if cfg.OptionLabel == nil {
		cfg.OptionLabel = func(minutes int) string { return fmt.Sprintf("%d min", minutes) }
	}
	if cfg.Labels.Unlock == "" {
		cfg.Labels.Unlock = "Press space to unlock"
	}
	if cfg.Labels.OK == "" {
		cfg.Labels.OK = "OK"
	}
	if cfg.Labels.Snooze == "" {
		cfg.Labels.Snooze = "Snooze"
	}
	if cfg.Labels.Back == "" {
		cfg.Labels.Back = "Back"
	}
	if cfg.Labels.Prompt == "" {
		cfg.Labels.Prompt = "Postpone for"
	}
	return Model{
		cfg:    cfg,
		locked: true,
		help:   help.New(),
		keys: KeyMap{
			Unlock: key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "unlock")),
			OK:     key.NewBinding(key.WithKeys("enter", "o"), key.WithHelp("enter", cfg.Labels.OK)),
			Snooze: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", cfg.Labels.Snooze)),
			Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
			Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
			Back:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", cfg.Labels.Back)),
			Quit:   key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "dismiss")),
		},
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	if key.Matches(keyMsg, m.keys.Quit) {
		return m.finish(Outcome{Dismissed: true})
	}

	switch {
	case m.locked:
		if key.Matches(keyMsg, m.keys.Unlock) {
			m.locked = false
		}
	case m.selecting:
		switch {
		case key.Matches(keyMsg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(keyMsg, m.keys.Down):
			if m.cursor < len(m.cfg.Options)-1 {
				m.cursor++
			}
		case key.Matches(keyMsg, m.keys.Back):
			m.selecting = false
		case key.Matches(keyMsg, m.keys.OK):
			return m.finish(Outcome{SnoozeMinutes: m.cfg.Options[m.cursor]})
		}
	default:
		switch {
		case key.Matches(keyMsg, m.keys.OK):
			return m.finish(Outcome{Dismissed: true})
		case key.Matches(keyMsg, m.keys.Snooze):
			if len(m.cfg.Options) > 0 {
				m.selecting = true
				m.cursor = 0
			}
		}
	}
	return m, nil
}

func (m Model) finish(o Outcome) (tea.Model, tea.Cmd) {
	m.outcome = o
	m.done = true
	return m, tea.Quit
}

func (m Model) View() string {
	if m.done {
		return ""
	}
	options := make([]string, 0, len(m.cfg.Options))
	for _, minutes := range m.cfg.Options {
		options = append(options, m.cfg.OptionLabel(minutes))
	}
	return views.RenderAlert(views.AlertData{
		Header:    m.cfg.Header,
		Title:     m.cfg.Title,
		Body:      m.cfg.Body,
		Color:     m.cfg.Color,
		Locked:    m.locked,
		Hint:      m.cfg.Labels.Unlock,
		Selecting: m.selecting,
		Prompt:    m.cfg.Labels.Prompt,
		Options:   options,
		Cursor:    m.cursor,
		Help:      m.help.View(helpKeyMap{short: m.activeBindings()}),
	})
}

func (m Model) activeBindings() []key.Binding {
	switch {
	case m.locked:
		return []key.Binding{m.keys.Unlock, m.keys.Quit}
	case m.selecting:
		return []key.Binding{m.keys.Up, m.keys.Down, m.keys.OK, m.keys.Back}
	default:
		return []key.Binding{m.keys.OK, m.keys.Snooze}
	}
}

func (m Model) Outcome() Outcome {
	return m.outcome
}

func (m Model) Locked() bool {
	return m.locked
}

func (m Model) Selecting() bool {
	return m.selecting
}

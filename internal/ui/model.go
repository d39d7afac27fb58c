// Package ui is a terminal front end for the task list. Every change goes
// through view.Syncer, and the list on screen is whatever the server
// returned after the last change.
package ui

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/s1natex/taskflow/internal/client"
	"github.com/s1natex/taskflow/internal/view"
)

// syncedMsg carries the outcome of one load or mutation.
type syncedMsg struct {
	snap  view.Snapshot
	flash string
	err   error
}

type Options struct {
	PrefsPath string
	Prefs     Prefs
	Timeout   time.Duration
	Logger    *slog.Logger
}

type Model struct {
	syncer *view.Syncer
	opts   Options
	theme  theme

	snap    view.Snapshot
	loaded  bool
	pending int
	cursor  int

	adding bool
	input  []rune

	flash    string
	flashErr bool
}

func New(syncer *view.Syncer, opts Options) Model {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return Model{
		syncer: syncer,
		opts:   opts,
		theme:  newTheme(opts.Prefs.DarkMode),
	}
}

func (m Model) Init() tea.Cmd {
	return m.sync("", m.syncer.Load)
}

func (m *Model) sync(flash string, op func(context.Context) (view.Snapshot, error)) tea.Cmd {
	m.pending++
	timeout := m.opts.Timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		snap, err := op(ctx)
		return syncedMsg{snap: snap, flash: flash, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case syncedMsg:
		if m.pending > 0 {
			m.pending--
		}
		if msg.err != nil {
			m.opts.Logger.Warn("sync_error", slog.String("error", msg.err.Error()))
			m.flash, m.flashErr = msg.err.Error(), true
			return m, nil
		}
		prev, hadPrev := m.selected()
		m.snap, m.loaded = msg.snap, true
		if hadPrev {
			if i := m.snap.Index(prev.ID); i >= 0 {
				m.cursor = i
			}
		}
		m.flash, m.flashErr = msg.flash, false
		m.clampCursor()
		return m, nil

	case tea.KeyMsg:
		if m.adding {
			return m.updateInput(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEsc:
		m.adding, m.input = false, nil
	case tea.KeyEnter:
		text := string(m.input)
		m.adding, m.input = false, nil
		return m, m.sync("Task added", func(ctx context.Context) (view.Snapshot, error) {
			return m.syncer.Add(ctx, text)
		})
	case tea.KeyBackspace:
		if n := len(m.input); n > 0 {
			m.input = m.input[:n-1]
		}
	case tea.KeySpace:
		m.input = append(m.input, ' ')
	case tea.KeyRunes:
		m.input = append(m.input, msg.Runes...)
	}
	return m, nil
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "j", "down":
		if m.cursor < len(m.snap.Tasks)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "a":
		m.adding, m.input = true, nil
	case " ", "space", "x":
		t, ok := m.selected()
		if !ok {
			return m, nil
		}
		return m, m.sync("", func(ctx context.Context) (view.Snapshot, error) {
			return m.syncer.Toggle(ctx, t)
		})
	case "d":
		t, ok := m.selected()
		if !ok {
			return m, nil
		}
		return m, m.sync("Task deleted: "+t.Text, func(ctx context.Context) (view.Snapshot, error) {
			return m.syncer.Remove(ctx, t.ID)
		})
	case "r":
		return m, m.sync("", m.syncer.Load)
	case "S":
		return m, m.sync("Sample tasks loaded", m.syncer.Reset)
	case "t":
		m.opts.Prefs.DarkMode = !m.opts.Prefs.DarkMode
		m.theme = newTheme(m.opts.Prefs.DarkMode)
		if m.opts.PrefsPath != "" {
			if err := SavePrefs(m.opts.PrefsPath, m.opts.Prefs); err != nil {
				m.flash, m.flashErr = err.Error(), true
			}
		}
	}
	return m, nil
}

func (m Model) selected() (client.Task, bool) {
	if m.cursor < 0 || m.cursor >= len(m.snap.Tasks) {
		return client.Task{}, false
	}
	return m.snap.Tasks[m.cursor], true
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.snap.Tasks) {
		m.cursor = len(m.snap.Tasks) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}


func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.theme.title.Render("TaskFlow"))
	b.WriteString("\n")

	switch {
	case !m.loaded && m.flashErr:
		b.WriteString(m.theme.err.Render("Could not load tasks: " + m.flash))
		b.WriteString("\n\n")
		b.WriteString(m.theme.help.Render("r retry • q quit"))
		return b.String()
	case !m.loaded:
		b.WriteString(m.theme.stats.Render("Loading tasks..."))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(m.theme.stats.Render(m.snap.Stats()))
	b.WriteString("\n\n")

	for i, t := range m.snap.Tasks {
		mark, style := "[ ]", m.theme.open
		if t.Completed {
			mark, style = "[x]", m.theme.done
		}
		prefix := "  "
		if i == m.cursor {
			prefix = m.theme.cursor.Render("> ")
		}
		fmt.Fprintf(&b, "%s%s %s\n", prefix, mark, style.Render(t.Text))
	}

	b.WriteString("\n")
	if m.adding {
		fmt.Fprintf(&b, "New task: %s█\n", string(m.input))
	}
	if m.flash != "" {
		style := m.theme.flash
		if m.flashErr {
			style = m.theme.err
		}
		b.WriteString(style.Render(m.flash))
		b.WriteString("\n")
	}
	if m.pending > 0 {
		b.WriteString(m.theme.stats.Render("syncing..."))
		b.WriteString("\n")
	}
	b.WriteString(m.theme.help.Render(m.helpLine()))
	return b.String()
}

func (m Model) helpLine() string {
	if m.adding {
		return "enter add • esc cancel"
	}
	return "a add • space toggle • d delete • r refresh • S sample data • t theme • q quit"
}

// Run starts the program and blocks until the user quits or ctx is done.
func Run(ctx context.Context, syncer *view.Syncer, opts Options, progOpts ...tea.ProgramOption) error {
	progOpts = append([]tea.ProgramOption{tea.WithContext(ctx)}, progOpts...)
	_, err := tea.NewProgram(New(syncer, opts), progOpts...).Run()
	return err
}

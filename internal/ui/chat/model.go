// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/chatwidget/internal/dictation"
	"github.com/jeranaias/chatwidget/internal/model"
	"github.com/jeranaias/chatwidget/internal/ui/styles"
)

// Core is the widget surface the view drives.
type Core interface {
	SendText(ctx context.Context, text string) (*model.Message, error)
	ClearConversation()
	ToggleDictation(ctx context.Context) error
	ToggleMinimized() bool
	Close()

	Snapshot() model.Log
	ConversationID() string
	InFlight() int
	Minimized() bool
	DictationStatus() dictation.Status
	DictationSupported() bool
}

// Options configure the view.
type Options struct {
	Theme          *styles.Theme
	RenderMarkdown bool
}

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model of the chat view.
type Model struct {
	core  Core
	theme *styles.Theme
	keys  KeyMap

	width  int
	height int

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	markdown bool
	renderer *glamour.TermRenderer
	rendered map[int64]string

	log       model.Log
	dictation dictation.Status
	minimized bool
	alert     string

	// pending counts sends issued by this view that have not completed.
	pending int
	closed  bool
}

// New creates the chat view over core.
func New(core Core, opts Options) Model {
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme(styles.ThemeAuto)
	}

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type a message..."
	ti.CharLimit = 4096
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = styles.TypingSpinner()
	sp.Style = theme.Typing

	m := Model{
		core:      core,
		theme:     theme,
		keys:      DefaultKeyMap(),
		viewport:  viewport.New(80, 20),
		input:     ti,
		spinner:   sp,
		markdown:  opts.RenderMarkdown,
		rendered:  make(map[int64]string),
		log:       core.Snapshot(),
		dictation: core.DictationStatus(),
		minimized: core.Minimized(),
	}
	m.resize(80, 24)
	return m
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init starts the cursor blink and the typing spinner.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case LogChangedMsg:
		m.refreshLog()
		return m, nil

	case DictationChangedMsg:
		m.dictation = m.core.DictationStatus()
		return m, nil

	case MinimizedChangedMsg:
		m.minimized = m.core.Minimized()
		return m, nil

	case AlertMsg:
		m.alert = msg.Text
		return m, nil

	case CloseMsg:
		m.closed = true
		return m, tea.Quit

	case SendDoneMsg:
		if m.pending > 0 {
			m.pending--
		}
		m.refreshLog()
		return m, nil

	case DictationDoneMsg:
		m.dictation = m.core.DictationStatus()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.log.TemporaryCount() > 0 {
			m.updateViewport()
		}
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Close) {
		if m.alert != "" && msg.String() == "esc" {
			m.alert = ""
			return m, nil
		}
		m.core.Close()
		m.closed = true
		return m, tea.Quit
	}

	// An alert blocks the view until acknowledged.
	if m.alert != "" {
		if key.Matches(msg, m.keys.Send) {
			m.alert = ""
		}
		return m, nil
	}

	if key.Matches(msg, m.keys.Minimize) {
		m.minimized = m.core.ToggleMinimized()
		return m, nil
	}
	if m.minimized {
		if key.Matches(msg, m.keys.Send) {
			m.minimized = m.core.ToggleMinimized()
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Send):
		return m.submit()

	case key.Matches(msg, m.keys.Clear):
		m.core.ClearConversation()
		m.rendered = make(map[int64]string)
		m.refreshLog()
		return m, nil

	case key.Matches(msg, m.keys.Dictate):
		return m, dictateCmd(m.core)

	case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.Down),
		key.Matches(msg, m.keys.PageUp), key.Matches(msg, m.keys.PageDown):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit sends the input unless it is blank or a reply is pending.
func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.Busy() {
		return m, nil
	}
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}
	m.input.Reset()
	m.pending++
	return m, sendCmd(m.core, text)
}

// =============================================================================
// STATE
// =============================================================================

// Busy reports whether a reply is pending, which disables sending.
func (m Model) Busy() bool {
	return m.pending > 0 || m.core.InFlight() > 0
}

// Alert returns the notice currently shown, if any.
func (m Model) Alert() string {
	return m.alert
}

// Closed reports whether the view asked to exit.
func (m Model) Closed() bool {
	return m.closed
}

func (m *Model) refreshLog() {
	m.log = m.core.Snapshot()
	m.updateViewport()
	m.viewport.GotoBottom()
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.theme.SetSize(width, height)

	const (
		headerHeight = 3
		inputHeight  = 2
		statusHeight = 1
	)
	vpHeight := height - headerHeight - inputHeight - statusHeight
	if vpHeight < 1 {
		vpHeight = 1
	}
	m.viewport.Width = width
	m.viewport.Height = vpHeight

	inputWidth := width - 4
	if inputWidth < 10 {
		inputWidth = 10
	}
	m.input.Width = inputWidth

	m.renderer = nil
	if m.markdown {
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(m.theme.GlamourStyle()),
			glamour.WithWordWrap(m.theme.BubbleWidth()-4),
		)
		if err == nil {
			m.renderer = r
		}
	}
	m.rendered = make(map[int64]string)

	m.updateViewport()
	m.viewport.GotoBottom()
}

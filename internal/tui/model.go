// Package tui is the terminal front end of a diagram conversation.
package tui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/ziadkadry99/umlgen/internal/apperr"
	"github.com/ziadkadry99/umlgen/internal/conversation"
	"github.com/ziadkadry99/umlgen/internal/credentials"
	"github.com/ziadkadry99/umlgen/internal/diagrams"
)

// Config holds what the terminal chat needs.
type Config struct {
	Controller *conversation.Controller
	Renderer   *diagrams.Renderer
	Format     diagrams.Format
	// Credentials, when set, persists keys entered in the prompt.
	Credentials credentials.Store
	// OutDir receives exports, saved markup and downloads.
	OutDir string
}

type stateMsg conversation.State

type statusMsg string

type errMsg struct{ err error }

// Model is the Bubble Tea model for the chat screen.
type Model struct {
	cfg Config

	textinput textinput.Model
	viewport  viewport.Model
	spinner   spinner.Model
	renderer  *glamour.TermRenderer

	state       conversation.State
	status      string
	err         error
	awaitingKey bool
	width       int
	height      int
	ready       bool

	notify      chan struct{}
	unsubscribe func()
}

// New creates the chat model and subscribes it to the controller.
func New(cfg Config) Model {
	if cfg.Format == "" {
		cfg.Format = diagrams.FormatPNG
	}
	if cfg.OutDir == "" {
		cfg.OutDir = "."
	}

	ti := textinput.New()
	ti.Placeholder = "Describe your project..."
	ti.CharLimit = 4000
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = titleStyle

	notify := make(chan struct{}, 1)
	unsubscribe := cfg.Controller.Subscribe(func(ev conversation.Event) {
		if ev.Type != conversation.EventStateChanged {
			return
		}
		select {
		case notify <- struct{}{}:
		default:
		}
	})

	return Model{
		cfg:         cfg,
		textinput:   ti,
		spinner:     sp,
		state:       cfg.Controller.State(),
		notify:      notify,
		unsubscribe: unsubscribe,
	}
}

// Close detaches the model from the controller.
func (m Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// Run starts the full-screen chat and blocks until the user quits.
func Run(cfg Config) error {
	m := New(cfg)
	defer m.Close()
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.listen())
}

// listen waits for the controller to publish and returns its latest state.
// Intermediate snapshots are coalesced.
func (m Model) listen() tea.Cmd {
	notify, ctrl := m.notify, m.cfg.Controller
	return func() tea.Msg {
		<-notify
		return stateMsg(ctrl.State())
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			if m.awaitingKey && msg.String() == "esc" {
				m.leaveKeyPrompt()
				return m, nil
			}
			return m, tea.Quit
		case "enter":
			return m.submit()
		case "ctrl+r":
			m.cfg.Controller.Reset()
			m.status, m.err = "Started a new diagram.", nil
			return m.refresh(), nil
		case "ctrl+k":
			m.enterKeyPrompt()
			return m, nil
		case "ctrl+e":
			return m, exportTranscript(m.state, m.cfg)
		case "ctrl+s":
			return m, saveMarkup(m.state.Markup, m.cfg.OutDir)
		case "ctrl+d":
			return m, downloadImage(m.state.Markup, m.cfg)
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
		var cmd tea.Cmd
		m.textinput, cmd = m.textinput.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		vpHeight := max(msg.Height-8, 3)
		if !m.ready {
			m.viewport = viewport.New(msg.Width, vpHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = vpHeight
		}
		m.textinput.Width = max(msg.Width-8, 10)
		m.renderer, _ = glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(max(msg.Width-4, 20)),
		)
		m.viewport.SetContent(m.renderHistory())
		m.viewport.GotoBottom()

	case stateMsg:
		wasGenerating := m.state.Phase == conversation.PhaseGenerating
		m.state = conversation.State(msg)
		if wasGenerating && m.state.Phase == conversation.PhaseError && m.state.LastError != nil {
			m.err = m.state.LastError
		}
		m.syncView()
		cmds = append(cmds, m.listen())

	case statusMsg:
		m.status, m.err = string(msg), nil

	case errMsg:
		m.err = msg.err

	case spinner.TickMsg:
		if m.state.Phase == conversation.PhaseGenerating {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
	}

	return m, tea.Batch(cmds...)
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	text := m.textinput.Value()

	if m.awaitingKey {
		key := strings.TrimSpace(text)
		if key == "" {
			m.err = errors.New("the API key cannot be empty")
			return m, nil
		}
		m.cfg.Controller.SetCredential(key)
		m.leaveKeyPrompt()
		m.status, m.err = "API key set.", nil
		if m.cfg.Credentials != nil {
			if err := m.cfg.Credentials.Save(context.Background(), key); err != nil {
				m.err = err
			}
		}
		return m.refresh(), nil
	}

	effect, err := m.cfg.Controller.Submit(text)
	switch {
	case effect == conversation.EffectCredentialRequired:
		m.enterKeyPrompt()
		m.err = apperr.ErrMissingCredential
		return m, nil
	case err != nil:
		m.err = err
		return m, nil
	}
	m.textinput.Reset()
	m.status, m.err = "", nil

	m = m.refresh()
	if effect == conversation.EffectGenerate {
		return m, m.spinner.Tick
	}
	return m, nil
}

// refresh pulls the controller state synchronously after a local mutation.
func (m Model) refresh() Model {
	m.state = m.cfg.Controller.State()
	m.syncView()
	return m
}

func (m *Model) syncView() {
	switch m.state.Phase {
	case conversation.PhaseAwaitingContext:
		m.textinput.Placeholder = "Describe your project..."
	case conversation.PhaseAwaitingCategory:
		m.textinput.Placeholder = "Pick a diagram type or describe one..."
	default:
		m.textinput.Placeholder = "Ask for changes..."
	}
	if m.ready {
		m.viewport.SetContent(m.renderHistory())
		m.viewport.GotoBottom()
	}
}

func (m *Model) enterKeyPrompt() {
	m.awaitingKey = true
	m.textinput.Reset()
	m.textinput.EchoMode = textinput.EchoPassword
	m.textinput.EchoCharacter = '•'
	m.textinput.Placeholder = "Paste your API key and press enter (esc to cancel)"
}

func (m *Model) leaveKeyPrompt() {
	m.awaitingKey = false
	m.textinput.Reset()
	m.textinput.EchoMode = textinput.EchoNormal
	m.syncView()
}

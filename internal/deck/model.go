// Package deck is the interactive terminal view: it binds keys to load
// controller transitions and renders the loaded payload.
package deck

import (
	"errors"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/yolodolo42/itemdeck/internal/auth"
	"github.com/yolodolo42/itemdeck/internal/integration"
	"github.com/yolodolo42/itemdeck/internal/loader"
	"github.com/yolodolo42/itemdeck/internal/records"
	"github.com/yolodolo42/itemdeck/internal/ui"
	"golang.org/x/text/language"
)

// CredentialSource resolves the bundle sent with a load
type CredentialSource func(integration.Selector) (auth.Bundle, error)

// TokenSaver stores a token typed into the deck
type TokenSaver func(integration.Selector, string) error

// Options configures a deck Model
type Options struct {
	Controller   *loader.Controller
	Integration  integration.Selector
	Credentials  CredentialSource
	SaveToken    TokenSaver
	PreviewLimit int
	Locale       language.Tag
	Logger       zerolog.Logger
}

type overlay int

const (
	overlayNone overlay = iota
	overlayPicker
	overlayPrompt
)

// chrome is the number of rows taken by everything but the viewport
const chrome = 7

// Model is the bubbletea model for the deck
type Model struct {
	ctrl        *loader.Controller
	sel         integration.Selector
	credentials CredentialSource
	saveToken   TokenSaver
	limit       int
	locale      language.Tag
	logger      zerolog.Logger

	keys     keyMap
	help     help.Model
	spinner  spinner.Model
	viewport viewport.Model

	overlay overlay
	picker  ui.Selector
	prompt  ui.TokenPrompt

	notice    string
	noticeErr bool
	width     int
	height    int
	ready     bool
	quitting  bool
}

// New creates a deck in the Idle state
func New(opts Options) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = ui.TitleStyle

	limit := opts.PreviewLimit
	if limit <= 0 {
		limit = records.DefaultPreviewLimit
	}
	sel := opts.Integration
	if !sel.Valid() {
		sel = integration.Notion
	}
	locale := opts.Locale
	if locale == language.Und {
		locale = language.AmericanEnglish
	}

	m := Model{
		ctrl:        opts.Controller,
		sel:         sel,
		credentials: opts.Credentials,
		saveToken:   opts.SaveToken,
		limit:       limit,
		locale:      locale,
		logger:      opts.Logger,
		keys:        newKeyMap(),
		help:        help.New(),
		spinner:     sp,
		width:       80,
	}
	m.syncKeys()
	return m
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Integration returns the selected integration
func (m Model) Integration() integration.Selector {
	return m.sel
}

// Controller returns the load controller driving the deck
func (m Model) Controller() *loader.Controller {
	return m.ctrl
}

// Update handles messages and updates state
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		height := msg.Height - chrome
		if height < 3 {
			height = 3
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width, height)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = height
		}
		m.help.Width = msg.Width
		m.picker.SetWidth(msg.Width)
		m.prompt.SetWidth(msg.Width)
		m.refresh()
		return m, nil

	case loader.SettledMsg:
		if m.ctrl.Settle(msg) {
			m.refresh()
			m.viewport.GotoTop()
		}
		m.syncKeys()
		return m, nil

	case spinner.TickMsg:
		if m.ctrl.State() != loader.Loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.quitting = true
			return m, tea.Quit
		}
		switch m.overlay {
		case overlayPicker:
			return m.updatePicker(msg)
		case overlayPrompt:
			return m.updatePrompt(msg)
		}
		return m.handleKey(msg)
	}

	if m.overlay == overlayPrompt {
		return m.updatePrompt(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.syncKeys()
	m.notice = ""
	m.noticeErr = false

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Load):
		return m.startLoad()

	case key.Matches(msg, m.keys.Clear):
		m.ctrl.Clear()
		m.logger.Debug().Str("integration", string(m.sel)).Msg("deck cleared")
		m.refresh()

	case key.Matches(msg, m.keys.Toggle):
		if m.ctrl.ToggleDisplayMode() {
			m.refresh()
			m.viewport.GotoTop()
		}

	case key.Matches(msg, m.keys.Switch):
		m.openPicker()

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	default:
		if m.ready {
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}

	m.syncKeys()
	return m, nil
}

func (m Model) startLoad() (tea.Model, tea.Cmd) {
	if m.ctrl.State() == loader.Loading {
		return m, nil
	}

	var creds auth.Bundle
	if m.credentials != nil {
		var err error
		creds, err = m.credentials(m.sel)
		if err != nil {
			if errors.Is(err, auth.ErrNoCredential) && m.saveToken != nil {
				m.openPrompt()
				cmd := m.prompt.Focus()
				return m, cmd
			}
			m.notice = "No credentials for " + m.sel.DisplayName() + ": run 'itemdeck auth connect " + string(m.sel) + "'"
			m.logger.Warn().Err(err).Str("integration", string(m.sel)).Msg("load blocked")
			return m, nil
		}
	}

	cmd := m.ctrl.Load(m.sel, creds)
	m.syncKeys()
	if cmd == nil {
		return m, nil
	}
	m.refresh()
	return m, tea.Batch(m.spinner.Tick, cmd)
}

func (m *Model) openPicker() {
	items := make([]ui.SelectorItem, 0, len(integration.All()))
	for _, sel := range integration.All() {
		item := ui.SelectorItem{
			ID:          string(sel),
			Label:       sel.DisplayName(),
			Description: sel.Description(),
			Current:     sel == m.sel,
		}
		if m.credentials != nil {
			if _, err := m.credentials(sel); err == nil {
				item.Badge = "connected"
			}
		}
		items = append(items, item)
	}
	m.picker = ui.NewSelector("Choose an integration", items)
	m.picker.SetWidth(m.width)
	m.overlay = overlayPicker
}

func (m Model) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.picker.Update(msg)
	if m.picker.Active() {
		return m, nil
	}
	m.overlay = overlayNone

	if m.picker.Cancelled() {
		return m, nil
	}
	next, err := integration.Parse(m.picker.Selected())
	if err != nil || next == m.sel {
		return m, nil
	}

	m.logger.Info().
		Str("from", string(m.sel)).
		Str("to", string(next)).
		Msg("integration switched")
	m.sel = next
	m.ctrl.Clear()
	m.refresh()
	m.syncKeys()
	return m, nil
}

func (m *Model) openPrompt() {
	m.prompt = ui.NewTokenPrompt(m.sel.DisplayName()+" access token", "paste a token to connect")
	m.prompt.SetWidth(m.width)
	m.overlay = overlayPrompt
}

func (m Model) updatePrompt(msg tea.Msg) (tea.Model, tea.Cmd) {
	_, cmd := m.prompt.Update(msg)
	if !m.prompt.Done() {
		return m, cmd
	}
	m.overlay = overlayNone

	if m.prompt.Cancelled() {
		return m, nil
	}
	if err := m.saveToken(m.sel, m.prompt.Value()); err != nil {
		m.notice = "Failed to save token: " + err.Error()
		m.noticeErr = true
		m.logger.Error().Err(err).Str("integration", string(m.sel)).Msg("save token failed")
		return m, nil
	}
	m.logger.Info().Str("integration", string(m.sel)).Msg("token saved from deck")
	return m.startLoad()
}

// syncKeys enables only the bindings whose transitions are available
func (m *Model) syncKeys() {
	state := m.ctrl.State()
	m.keys.Load.SetEnabled(state != loader.Loading)
	m.keys.Clear.SetEnabled(m.ctrl.CanClear())
	m.keys.Toggle.SetEnabled(state == loader.Loaded)
}

// refresh re-derives the viewport content from the controller. It runs on
// every state transition, mode toggle and resize; nothing else is cached.
func (m *Model) refresh() {
	if !m.ready || m.ctrl.State() != loader.Loaded {
		if m.ready {
			m.viewport.SetContent("")
		}
		return
	}

	payload := m.ctrl.Payload()
	if m.ctrl.Mode() == loader.Raw {
		m.viewport.SetContent(RenderRaw(payload))
		return
	}
	m.viewport.SetContent(RenderGrouped(payload, RenderOptions{
		Integration:  m.sel,
		PreviewLimit: m.limit,
		Locale:       m.locale,
		Width:        m.width,
	}))
}

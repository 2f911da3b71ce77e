package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// TokenPrompt asks for a secret on a single masked line
type TokenPrompt struct {
	label     string
	input     textinput.Model
	submitted bool
	cancelled bool
}

// NewTokenPrompt creates a focused prompt for the given label
func NewTokenPrompt(label, placeholder string) TokenPrompt {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 4096
	ti.Width = 60
	ti.EchoMode = textinput.EchoPassword
	ti.EchoCharacter = '•'
	ti.Prompt = ""
	ti.Focus()

	return TokenPrompt{label: label, input: ti}
}

// Focus gives the prompt keyboard focus and starts the cursor blinking
func (p *TokenPrompt) Focus() tea.Cmd {
	p.input.Focus()
	return textinput.Blink
}

func (p *TokenPrompt) SetWidth(w int) {
	if w > 8 {
		p.input.Width = w - 6
	}
}

// Value returns the trimmed input
func (p *TokenPrompt) Value() string {
	return strings.TrimSpace(p.input.Value())
}

// Done reports whether the prompt was submitted or cancelled
func (p *TokenPrompt) Done() bool {
	return p.submitted || p.cancelled
}

func (p *TokenPrompt) Submitted() bool { return p.submitted }
func (p *TokenPrompt) Cancelled() bool { return p.cancelled }

// Update handles input events. Enter with an empty value is ignored.
func (p *TokenPrompt) Update(msg tea.Msg) (*TokenPrompt, tea.Cmd) {
	if p.Done() {
		return p, nil
	}

	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEnter:
			if p.Value() != "" {
				p.submitted = true
				p.input.Blur()
			}
			return p, nil
		case tea.KeyEsc:
			p.cancelled = true
			p.input.Blur()
			return p, nil
		}
	}

	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, cmd
}

// View renders the prompt
func (p *TokenPrompt) View() string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render(p.label))
	b.WriteString("\n")
	b.WriteString(PromptStyle.Render(SymbolPrompt) + " " + p.input.View())
	b.WriteString("\n")
	b.WriteString(HelpStyle.Render("enter save · esc cancel"))
	return b.String()
}

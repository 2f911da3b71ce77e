package deck

import (
	"strings"

	"github.com/yolodolo42/itemdeck/internal/loader"
	"github.com/yolodolo42/itemdeck/internal/ui"
)

// View renders the UI
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(ui.TitleStyle.Render("itemdeck"))
	b.WriteString(ui.HelpStyle.Render(" · "))
	b.WriteString(ui.SelectorActive.Render(m.sel.DisplayName()))
	if m.ctrl.State() == loader.Loaded {
		b.WriteString(ui.HelpStyle.Render(" · " + m.ctrl.Mode().String()))
	}
	b.WriteString("\n\n")

	switch m.overlay {
	case overlayPicker:
		b.WriteString(m.picker.View())
		return b.String()
	case overlayPrompt:
		b.WriteString(m.prompt.View())
		return b.String()
	}

	switch m.ctrl.State() {
	case loader.Idle:
		b.WriteString(ui.PlaceholderStyle.Render("Ready to load your " + m.sel.DisplayName() + " data!\nPress l to load."))
		b.WriteString("\n")

	case loader.Loading:
		b.WriteString(m.spinner.View() + " Loading " + m.sel.DisplayName() + " data...\n")

	case loader.Errored:
		b.WriteString(ui.ErrorBanner.Render(ui.SymbolCross + " " + m.ctrl.Err()))
		b.WriteString("\n")

	case loader.Loaded:
		b.WriteString(ui.SuccessStyle.Render(ui.SymbolCheck + " " + LoadedHeader(m.ctrl.Payload(), m.locale)))
		b.WriteString("\n")
		if m.ready {
			b.WriteString(m.viewport.View())
		} else if m.ctrl.Mode() == loader.Raw {
			b.WriteString(RenderRaw(m.ctrl.Payload()))
		} else {
			b.WriteString(RenderGrouped(m.ctrl.Payload(), RenderOptions{
				Integration:  m.sel,
				PreviewLimit: m.limit,
				Locale:       m.locale,
				Width:        m.width,
			}))
		}
		b.WriteString("\n")
	}

	if m.notice != "" {
		if m.noticeErr {
			b.WriteString(ui.ErrorStyle.Render(ui.SymbolCross + " " + m.notice))
		} else {
			b.WriteString(ui.WarningStyle.Render(ui.SymbolBullet + " " + m.notice))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

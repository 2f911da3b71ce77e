package deck

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/yolodolo42/itemdeck/internal/integration"
	"github.com/yolodolo42/itemdeck/internal/records"
	"github.com/yolodolo42/itemdeck/internal/ui"
	"golang.org/x/text/language"
)

// UnnamedItem is the card title for records without a name
const UnnamedItem = "Unnamed Item"

// RenderOptions controls how a payload is laid out
type RenderOptions struct {
	Integration  integration.Selector
	PreviewLimit int
	Locale       language.Tag
	Width        int
}

// LoadedHeader is the summary line above a loaded payload
func LoadedHeader(payload json.RawMessage, tag language.Tag) string {
	return "Successfully loaded " + records.CountLabel(records.Count(payload), tag)
}

// RenderRaw returns the payload indented with two spaces
func RenderRaw(payload json.RawMessage) string {
	return records.Pretty(payload)
}

// RenderGrouped lays out one section per category, each with up to
// PreviewLimit cards and an overflow line
func RenderGrouped(payload json.RawMessage, opts RenderOptions) string {
	groups := records.GroupPayload(payload, opts.PreviewLimit)
	if len(groups) == 0 {
		return ui.HelpStyle.Render("No items to display.")
	}

	cols := columns(opts.Width)
	cardWidth := opts.Width
	if cardWidth <= 0 {
		cardWidth = 80
	}
	cardWidth = cardWidth/cols - 1

	sections := make([]string, 0, len(groups))
	for _, g := range groups {
		sections = append(sections, renderGroup(g, cols, cardWidth, opts))
	}
	return strings.Join(sections, "\n\n")
}

func renderGroup(g records.Group, cols, cardWidth int, opts RenderOptions) string {
	var b strings.Builder

	b.WriteString(ui.HeadingStyle.Render(records.CategoryTitle(g.Category)))
	b.WriteString(" ")
	b.WriteString(ui.ChipStyle.Render(records.CountLabel(g.Total, opts.Locale)))
	b.WriteString("\n")

	cards := make([]string, 0, len(g.Preview))
	for _, item := range g.Preview {
		cards = append(cards, renderCard(item, cardWidth, opts))
	}
	for i := 0; i < len(cards); i += cols {
		end := i + cols
		if end > len(cards) {
			end = len(cards)
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cards[i:end]...))
		b.WriteString("\n")
	}

	if n := g.Overflow(); n > 0 {
		b.WriteString(ui.HelpStyle.Render(fmt.Sprintf("... and %d more %ss", n, g.Category)))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderCard(item records.Record, width int, opts RenderOptions) string {
	title, ok := item.Name()
	if !ok {
		title = UnnamedItem
	}

	lines := []string{
		ui.CardTitleStyle.Render(title),
		ui.ChipStyle.Render(item.Category()),
	}
	if id, ok := item.ID(); ok {
		lines = append(lines, ui.HelpStyle.Render("ID: ")+records.ShortID(id))
	}
	if raw, ok := item.Created(); ok {
		if s, ok := records.FormatDate(raw, opts.Locale); ok {
			lines = append(lines, ui.HelpStyle.Render("Created: ")+s)
		}
	}
	if raw, ok := item.Modified(); ok {
		if s, ok := records.FormatDate(raw, opts.Locale); ok {
			lines = append(lines, ui.HelpStyle.Render("Modified: ")+s)
		}
	}
	if u, ok := item.URL(); ok {
		label := "View"
		if opts.Integration.Valid() {
			label = "View in " + opts.Integration.DisplayName()
		}
		lines = append(lines, ui.LinkStyle.Render(records.Link(u, ui.SymbolLink+" "+label)))
	}

	// leave room for the border
	inner := width - 4
	if inner < 10 {
		inner = 10
	}
	return ui.CardStyle.Width(inner).Render(strings.Join(lines, "\n"))
}

func columns(width int) int {
	switch {
	case width >= 120:
		return 3
	case width >= 80:
		return 2
	default:
		return 1
	}
}

package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// SelectorItem represents an item in the selector
type SelectorItem struct {
	ID          string
	Label       string
	Description string
	// Badge is a short status shown after the description, e.g. "connected"
	Badge   string
	Current bool
}

// Selector is an interactive list selector
type Selector struct {
	title    string
	items    []SelectorItem
	cursor   int
	selected int
	active   bool
	width    int
}

// NewSelector creates a selector with the cursor on the current item
func NewSelector(title string, items []SelectorItem) Selector {
	selected := 0
	for i, item := range items {
		if item.Current {
			selected = i
			break
		}
	}

	return Selector{
		title:    title,
		items:    items,
		cursor:   selected,
		selected: selected,
		active:   true,
		width:    80,
	}
}

func (s *Selector) SetWidth(w int) {
	s.width = w
}

func (s *Selector) Active() bool {
	return s.active
}

// Cursor returns the index under the cursor
func (s *Selector) Cursor() int {
	return s.cursor
}

// Selected returns the chosen item ID, or empty if cancelled
func (s *Selector) Selected() string {
	if s.selected >= 0 && s.selected < len(s.items) {
		return s.items[s.selected].ID
	}
	return ""
}

// Cancelled returns whether the selector was dismissed without a choice
func (s *Selector) Cancelled() bool {
	return !s.active && s.selected == -1
}

// Update handles selector input. Navigation wraps around and the digits
// 1-9 pick an item directly.
func (s *Selector) Update(msg tea.Msg) (*Selector, tea.Cmd) {
	if !s.active || len(s.items) == 0 {
		return s, nil
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return s, nil
	}

	switch k := key.String(); k {
	case "up", "k":
		s.cursor = (s.cursor - 1 + len(s.items)) % len(s.items)
	case "down", "j", "tab":
		s.cursor = (s.cursor + 1) % len(s.items)
	case "home":
		s.cursor = 0
	case "end":
		s.cursor = len(s.items) - 1
	case "enter":
		s.selected = s.cursor
		s.active = false
	case "esc", "q":
		s.selected = -1
		s.active = false
	default:
		if len(k) == 1 && k[0] >= '1' && k[0] <= '9' {
			if i := int(k[0] - '1'); i < len(s.items) {
				s.cursor = i
				s.selected = i
				s.active = false
			}
		}
	}

	return s, nil
}

// View renders the selector
func (s *Selector) View() string {
	if !s.active {
		return ""
	}

	var b strings.Builder

	b.WriteString(TitleStyle.Render(s.title))
	b.WriteString("\n")
	b.WriteString(HelpStyle.Render("↑/↓ navigate · 1-9 pick · enter select · esc cancel"))
	b.WriteString("\n\n")

	labelWidth := 14
	if s.width < 50 {
		labelWidth = 10
	}

	for i, item := range s.items {
		isCursor := i == s.cursor

		if isCursor {
			b.WriteString(SelectorCursor.Render(SymbolArrow) + " ")
		} else {
			b.WriteString("  ")
		}

		display := item.Label
		if display == "" {
			display = item.ID
		}
		label := fmt.Sprintf("%d. %-*s", i+1, labelWidth, display)
		if isCursor {
			b.WriteString(SelectorActive.Render(label))
		} else {
			b.WriteString(SelectorItemStyle.Render(label))
		}

		desc := item.Description
		if item.Current {
			desc += " (current)"
		}
		if desc != "" {
			b.WriteString(" " + SelectorDim.Render(desc))
		}
		if item.Badge != "" {
			b.WriteString(" " + SuccessStyle.Render(SymbolCheck+" "+item.Badge))
		}

		b.WriteString("\n")
	}

	return b.String()
}

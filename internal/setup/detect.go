package setup

import (
	"fmt"
	"io"
	"os"

	"github.com/yolodolo42/itemdeck/internal/auth"
	"github.com/yolodolo42/itemdeck/internal/integration"
	"golang.org/x/term"
)

// Status reports which integrations can be loaded right now
type Status struct {
	Connected []integration.Selector
	Sources   map[integration.Selector]auth.Source
	Default   integration.Selector
	// IsComplete is true once at least one integration has credentials
	IsComplete bool
}

// DetectStatus checks every integration against the credential sources
func DetectStatus(m *auth.Manager, fallback integration.Selector) *Status {
	status := &Status{
		Connected: make([]integration.Selector, 0),
		Sources:   make(map[integration.Selector]auth.Source),
	}

	for _, sel := range integration.All() {
		if _, src, err := m.Credentials(sel); err == nil {
			status.Connected = append(status.Connected, sel)
			status.Sources[sel] = src
		}
	}

	status.Default = m.Default(fallback)
	status.IsComplete = len(status.Connected) > 0
	return status
}

// NeedsSetup returns true if no integration has credentials yet
func NeedsSetup(m *auth.Manager) bool {
	return !DetectStatus(m, integration.Notion).IsComplete
}

// PrintEnvInstructions explains how to provide credentials without a terminal
func PrintEnvInstructions(w io.Writer) {
	fmt.Fprintln(w, "itemdeck needs credentials for at least one integration.")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Set one of these environment variables:")
	for _, sel := range integration.All() {
		fmt.Fprintf(w, "  %s=...  (%s)\n", sel.EnvVar(), sel.DisplayName())
	}
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Or run 'itemdeck auth connect <integration>'.")
}

// IsInteractive returns true if running in a terminal
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/yolodolo42/itemdeck/internal/deck"
	"github.com/yolodolo42/itemdeck/internal/loader"
	"github.com/yolodolo42/itemdeck/internal/setup"
)

// newController wires the HTTP client and the load state machine
func (a *app) newController() *loader.Controller {
	client := loader.NewClient(a.cfg.Server.BaseURL, loader.WithLogger(a.component("client")))
	return loader.NewController(client, a.cfg.Server.Timeout, a.component("controller"))
}

// runDeck starts the interactive deck
func (a *app) runDeck(cmd *cobra.Command, args []string) error {
	if !setup.IsInteractive() {
		if setup.NeedsSetup(a.auth) {
			setup.PrintEnvInstructions(cmd.ErrOrStderr())
			fmt.Fprintln(cmd.ErrOrStderr())
		}
		return fmt.Errorf("the deck needs an interactive terminal: use 'itemdeck load <integration>' instead")
	}

	sel := a.defaultIntegration(cmd)
	m := deck.New(deck.Options{
		Controller:   a.newController(),
		Integration:  sel,
		Credentials:  a.auth.Lookup,
		SaveToken:    a.auth.SetToken,
		PreviewLimit: a.cfg.Display.PreviewLimit,
		Locale:       a.cfg.Display.Locale,
		Logger:       a.component("deck"),
	})

	a.log.Info().Str("integration", string(sel)).Msg("deck started")
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	_, err := p.Run()
	return err
}

package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/yolodolo42/itemdeck/internal/fixture"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		addr     string
		fixtures string
	)

	cmd := &cobra.Command{
		Use:   "serve-fixtures",
		Short: "Run a local stand-in for the integration service",
		Long: `Serve canned integration payloads on the same routes as the integration
service, for development and demos. Without --fixtures the built-in
sample records are used.

Fixture file format:

  integrations:
    notion:
      token: secret        # optional, required access_token
      delay: 500ms         # optional response delay
      items:
        - {id: "1", name: Roadmap, type: page}
    hubspot:
      status: 401          # optional forced error
      detail: invalid token`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := fixture.Default()
			if fixtures != "" {
				set, err = fixture.LoadFile(fixtures)
			}
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cmd.Printf("Serving fixtures on %s (ctrl+c to stop)\n", addr)
			return fixture.NewServer(addr, set, a.component("fixture")).Run(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8000", "listen address")
	cmd.Flags().StringVar(&fixtures, "fixtures", "", "YAML fixture file")
	return cmd
}

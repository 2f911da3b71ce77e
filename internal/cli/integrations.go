package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/yolodolo42/itemdeck/internal/integration"
	"github.com/yolodolo42/itemdeck/internal/setup"
)

func newIntegrationsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "integrations",
		Short: "List supported integrations and their endpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			status := setup.DetectStatus(a.auth, a.defaultIntegration(cmd))

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tINTEGRATION\tENDPOINT\tCREDENTIALS")
			for _, sel := range integration.All() {
				creds := "-"
				if src, ok := status.Sources[sel]; ok {
					creds = string(src)
				}
				name := string(sel)
				if sel == status.Default {
					name += " *"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", name, sel.DisplayName(), "POST "+sel.Path(), creds)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\n* = default, server %s\n", a.cfg.Server.BaseURL)
			return nil
		},
	}
}

package cli

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/yolodolo42/itemdeck/internal/auth"
	"github.com/yolodolo42/itemdeck/internal/integration"
	"github.com/yolodolo42/itemdeck/internal/setup"
	"golang.org/x/term"
)

func newAuthCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage integration credentials",
		Long: `Connect, disconnect, and inspect the credentials sent with each load.

Credentials are resolved in this order:
  1. NOTION_TOKEN, AIRTABLE_TOKEN, HUBSPOT_ACCESS_TOKEN
  2. integrations.<name>.credentials in the config file
  3. the credential store ($HOME/.itemdeck/credentials.json)`,
	}

	connect := &cobra.Command{
		Use:   "connect [integration]",
		Short: "Store credentials for an integration",
		Long: `Store credentials for an integration.

With --token the value is stored as {"access_token": "<token>"}. With --json
the given object is stored as-is. Otherwise the token is read from the
terminal without echo.`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: integrationArgs,
		RunE:              a.runAuthConnect,
	}
	connect.Flags().String("token", "", "access token (will prompt if not provided)")
	connect.Flags().String("json", "", "full credential bundle as a JSON object")

	list := &cobra.Command{
		Use:   "list",
		Short: "List connected integrations",
		Args:  cobra.NoArgs,
		RunE:  a.runAuthList,
	}

	disconnect := &cobra.Command{
		Use:               "disconnect <integration>",
		Short:             "Remove stored credentials",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: integrationArgs,
		RunE:              a.runAuthDisconnect,
	}

	def := &cobra.Command{
		Use:               "default [integration]",
		Short:             "Get or set the default integration",
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: integrationArgs,
		RunE:              a.runAuthDefault,
	}

	show := &cobra.Command{
		Use:               "show <integration>",
		Short:             "Show the resolved credentials, redacted",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: integrationArgs,
		RunE:              a.runAuthShow,
	}

	cmd.AddCommand(connect, list, disconnect, def, show)
	return cmd
}

func (a *app) runAuthConnect(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	var sel integration.Selector
	if len(args) == 0 {
		fmt.Fprintln(out, "Select an integration to connect:")
		all := integration.All()
		for i, s := range all {
			fmt.Fprintf(out, "  %d. %s\n", i+1, s.DisplayName())
		}
		fmt.Fprint(out, "\nEnter number: ")

		var choice int
		_, _ = fmt.Fscanln(cmd.InOrStdin(), &choice)
		if choice < 1 || choice > len(all) {
			return fmt.Errorf("invalid selection")
		}
		sel = all[choice-1]
	} else {
		var err error
		if sel, err = integration.Parse(args[0]); err != nil {
			return err
		}
	}

	if raw, _ := cmd.Flags().GetString("json"); raw != "" {
		if err := a.auth.SetBundleJSON(sel, raw); err != nil {
			return fmt.Errorf("failed to save credential: %w", err)
		}
		fmt.Fprintf(out, "✓ Connected %s\n", sel.DisplayName())
		return nil
	}

	token, _ := cmd.Flags().GetString("token")
	if token == "" {
		fmt.Fprintf(out, "Tip: You can also set the %s environment variable\n\n", sel.EnvVar())
		fmt.Fprintf(out, "Enter access token for %s: ", sel.DisplayName())

		var err error
		token, err = readSecret(cmd)
		fmt.Fprintln(out)
		if err != nil {
			return fmt.Errorf("failed to read token: %w", err)
		}
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("access token is required")
	}
	if err := a.auth.SetToken(sel, token); err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}

	a.log.Info().Str("integration", string(sel)).Msg("credential stored")
	fmt.Fprintf(out, "✓ Connected %s\n", sel.DisplayName())
	return nil
}

// readSecret reads without echo from a terminal, or a plain line otherwise
func readSecret(cmd *cobra.Command) (string, error) {
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		return string(b), err
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return line, nil
}

func (a *app) runAuthList(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	status := setup.DetectStatus(a.auth, a.cfg.Integration)

	if !status.IsComplete {
		fmt.Fprintln(out, "No integrations connected.")
		fmt.Fprintln(out)
		setup.PrintEnvInstructions(out)
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  INTEGRATION\tSOURCE")
	for _, sel := range status.Connected {
		marker := "  "
		if sel == status.Default {
			marker = "* "
		}
		fmt.Fprintf(w, "%s%s\t%s\n", marker, sel, status.Sources[sel])
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\n* = default integration\n")
	return nil
}

func (a *app) runAuthDisconnect(cmd *cobra.Command, args []string) error {
	sel, err := integration.Parse(args[0])
	if err != nil {
		return err
	}

	if err := a.auth.Remove(sel); err != nil {
		return fmt.Errorf("failed to disconnect: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Disconnected %s\n", sel.DisplayName())
	if envVar := sel.EnvVar(); os.Getenv(envVar) != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Note: %s is still set in the environment\n", envVar)
	}
	return nil
}

func (a *app) runAuthDefault(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if len(args) == 0 {
		fmt.Fprintf(out, "Default integration: %s\n", a.auth.Default(a.cfg.Integration))
		return nil
	}

	sel, err := integration.Parse(args[0])
	if err != nil {
		return err
	}
	if !a.auth.HasCredential(sel) {
		return fmt.Errorf("integration %s is not connected. Connect it first with 'itemdeck auth connect %s'", sel, sel)
	}

	if err := a.auth.SetDefault(sel); err != nil {
		return fmt.Errorf("failed to set default integration: %w", err)
	}

	fmt.Fprintf(out, "Default integration set to: %s\n", sel)
	return nil
}

func (a *app) runAuthShow(cmd *cobra.Command, args []string) error {
	sel, err := integration.Parse(args[0])
	if err != nil {
		return err
	}

	bundle, src, err := a.auth.Credentials(sel)
	if err != nil {
		return fmt.Errorf("no credentials found for %s", sel)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (from %s)\n", sel.DisplayName(), src)

	redacted := auth.RedactBundle(bundle)
	keys := make([]string, 0, len(redacted))
	for k := range redacted {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(out, "  %s: %v\n", k, redacted[k])
	}
	return nil
}

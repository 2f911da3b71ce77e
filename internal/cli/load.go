package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/yolodolo42/itemdeck/internal/auth"
	"github.com/yolodolo42/itemdeck/internal/deck"
	"github.com/yolodolo42/itemdeck/internal/integration"
	"github.com/yolodolo42/itemdeck/internal/loader"
	"github.com/yolodolo42/itemdeck/internal/records"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// Output formats of the load command
const (
	OutputGrouped = "grouped"
	OutputRaw     = "raw"
	OutputYAML    = "yaml"
)

// ErrLoadFailed is returned when the service rejects a load
var ErrLoadFailed = errors.New("load failed")

func newLoadCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "load [integration]",
		Short: "Load records once and print them",
		Long: `Load records for one integration and print them without opening the deck.

Output formats:
  grouped  cards grouped by record type (default)
  raw      the JSON payload, indented
  yaml     the payload converted to YAML`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: integrationArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runLoad(cmd, args, output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", OutputGrouped, "output format: grouped, raw or yaml")
	return cmd
}

func (a *app) runLoad(cmd *cobra.Command, args []string, output string) error {
	output = strings.ToLower(output)
	switch output {
	case OutputGrouped, OutputRaw, OutputYAML:
	default:
		return fmt.Errorf("unknown output format %q: use grouped, raw or yaml", output)
	}

	sel, err := a.resolveIntegration(cmd, args)
	if err != nil {
		return err
	}

	creds, src, err := a.auth.Credentials(sel)
	if err != nil {
		if errors.Is(err, auth.ErrNoCredential) {
			return fmt.Errorf("no credentials for %s: run 'itemdeck auth connect %s' or set %s",
				sel.DisplayName(), sel, sel.EnvVar())
		}
		return err
	}
	a.log.Debug().Str("integration", string(sel)).Str("source", string(src)).Msg("credentials resolved")

	ctrl := a.newController()
	load := ctrl.LoadContext(cmd.Context(), sel, creds)
	msg, ok := load().(loader.SettledMsg)
	if !ok || !ctrl.Settle(msg) {
		return fmt.Errorf("%w: no response", ErrLoadFailed)
	}
	if ctrl.State() == loader.Errored {
		return fmt.Errorf("%w: %s", ErrLoadFailed, ctrl.Err())
	}

	out := cmd.OutOrStdout()
	payload := ctrl.Payload()
	switch output {
	case OutputRaw:
		fmt.Fprintln(out, deck.RenderRaw(payload))
	case OutputYAML:
		doc, err := payloadYAML(payload)
		if err != nil {
			return err
		}
		fmt.Fprint(out, doc)
	default:
		fmt.Fprintln(out, deck.LoadedHeader(payload, a.cfg.Display.Locale))
		fmt.Fprintln(out)
		fmt.Fprintln(out, deck.RenderGrouped(payload, deck.RenderOptions{
			Integration:  sel,
			PreviewLimit: a.cfg.Display.PreviewLimit,
			Locale:       a.cfg.Display.Locale,
			Width:        outputWidth(),
		}))
	}
	return nil
}

// payloadYAML converts a JSON payload to YAML, keeping numbers numeric
func payloadYAML(payload json.RawMessage) (string, error) {
	v, err := records.Decode(payload)
	if err != nil {
		return "", err
	}
	b, err := yaml.Marshal(plainNumbers(v))
	if err != nil {
		return "", fmt.Errorf("failed to encode yaml: %w", err)
	}
	return string(b), nil
}

func plainNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case []any:
		for i := range t {
			t[i] = plainNumbers(t[i])
		}
		return t
	case map[string]any:
		for k := range t {
			t[k] = plainNumbers(t[k])
		}
		return t
	default:
		return v
	}
}

func outputWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 80
}

// integrationArgs completes integration names for shells
func integrationArgs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	names := make([]string, 0, len(integration.All()))
	for _, sel := range integration.All() {
		if strings.HasPrefix(string(sel), strings.ToLower(toComplete)) {
			names = append(names, string(sel))
		}
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}

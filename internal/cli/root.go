package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/yolodolo42/itemdeck/internal/auth"
	"github.com/yolodolo42/itemdeck/internal/config"
	"github.com/yolodolo42/itemdeck/internal/integration"
	"github.com/yolodolo42/itemdeck/internal/logging"
	"github.com/yolodolo42/itemdeck/internal/records"
)

// HomeEnv overrides the data directory ($HOME/.itemdeck)
const HomeEnv = "ITEMDECK_HOME"

// app carries the state shared by every command of one invocation
type app struct {
	v       *viper.Viper
	cfgFile string
	debug   bool

	cfg  *config.Config
	log  *logging.Logger
	auth *auth.Manager
}

func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd builds the command tree with its own viper instance
func NewRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	cmd := &cobra.Command{
		Use:   "itemdeck",
		Short: "Load and browse integration records from the terminal",
		Long: `itemdeck asks the integration service to fetch records from Notion,
Airtable or HubSpot and shows them as a raw JSON payload or as grouped
cards, a handful per record type.

Run without a subcommand to open the interactive deck.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
		RunE: a.runDeck,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is $HOME/.itemdeck/config.yaml)")
	flags.String("server", config.DefaultBaseURL, "base URL of the integration service")
	flags.Duration("timeout", config.DefaultTimeout, "request timeout")
	flags.StringP("integration", "i", string(integration.Notion), "integration to load")
	flags.Int("preview-limit", records.DefaultPreviewLimit, "cards shown per record type")
	flags.String("locale", "", "locale for dates and counts (default from LC_ALL/LANG)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.BoolVar(&a.debug, "debug", false, "enable debug logging to stderr")

	bindings := map[string]string{
		config.KeyBaseURL:      "server",
		config.KeyTimeout:      "timeout",
		config.KeyIntegration:  "integration",
		config.KeyPreviewLimit: "preview-limit",
		config.KeyLocale:       "locale",
		config.KeyLogLevel:     "log-level",
	}
	for key, flag := range bindings {
		_ = a.v.BindPFlag(key, flags.Lookup(flag))
	}

	cmd.AddCommand(
		newLoadCmd(a),
		newIntegrationsCmd(a),
		newServeCmd(a),
		newAuthCmd(a),
	)
	return cmd
}

func dataDir() (string, error) {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return dir, nil
	}
	return config.DefaultDataDir()
}

// init reads configuration, opens the log and the credential store
func (a *app) init(cmd *cobra.Command) error {
	dir, err := dataDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: could not create data directory: %v\n", err)
	}

	config.SetDefaults(a.v, dir)
	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
	} else {
		a.v.AddConfigPath(dir)
		a.v.AddConfigPath(".")
		a.v.SetConfigType("yaml")
		a.v.SetConfigName("config")
	}

	// A missing config file is fine unless one was named explicitly
	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if a.cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg, err := config.Load(a.v, dir)
	if err != nil {
		return err
	}
	a.cfg = cfg

	opts := logging.Options{
		Level:   cfg.Log.Level,
		File:    cfg.Log.File,
		Console: a.debug,
		Stderr:  cmd.ErrOrStderr(),
	}
	if a.debug {
		opts.Level = zerolog.DebugLevel
	}
	log, err := logging.New(opts)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v, logging disabled\n", err)
		log, _ = logging.New(logging.Options{})
	}
	a.log = log

	a.auth, err = auth.NewManager(dir, a.v)
	if err != nil {
		return fmt.Errorf("failed to open credential store: %w", err)
	}

	cmd.SetContext(a.log.WithContext(cmd.Context()))
	a.log.Debug().
		Str("command", cmd.CommandPath()).
		Str("server", cfg.Server.BaseURL).
		Str("config", a.v.ConfigFileUsed()).
		Msg("command started")
	return nil
}

func (a *app) close() error {
	if a.log == nil {
		return nil
	}
	return a.log.Close()
}

// defaultIntegration prefers an explicit flag, env var or config entry over
// the default stored with 'auth default'
func (a *app) defaultIntegration(cmd *cobra.Command) integration.Selector {
	if cmd.Flags().Changed("integration") ||
		a.v.InConfig(config.KeyIntegration) ||
		os.Getenv("ITEMDECK_INTEGRATION") != "" {
		return a.cfg.Integration
	}
	return a.auth.Default(a.cfg.Integration)
}

// resolveIntegration parses an optional positional argument
func (a *app) resolveIntegration(cmd *cobra.Command, args []string) (integration.Selector, error) {
	if len(args) == 0 {
		return a.defaultIntegration(cmd), nil
	}
	return integration.Parse(args[0])
}

func (a *app) component(name string) zerolog.Logger {
	return logging.Component(a.log.Logger, name)
}

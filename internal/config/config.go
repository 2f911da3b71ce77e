package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/yolodolo42/itemdeck/internal/integration"
	"github.com/yolodolo42/itemdeck/internal/records"
	"golang.org/x/text/language"
)

// Config keys shared by flags, env vars and the config file
const (
	KeyBaseURL      = "server.base_url"
	KeyTimeout      = "server.timeout"
	KeyPreviewLimit = "display.preview_limit"
	KeyLocale       = "display.locale"
	KeyLogLevel     = "log.level"
	KeyLogFile      = "log.file"
	KeyIntegration  = "integration"
)

const (
	DefaultBaseURL = "http://localhost:8000"
	DefaultTimeout = 30 * time.Second
	dataDirName    = ".itemdeck"
	logFileName    = "itemdeck.log"
)

// Config is the resolved runtime configuration
type Config struct {
	DataDir     string
	Server      ServerConfig
	Display     DisplayConfig
	Log         LogConfig
	Integration integration.Selector
}

// ServerConfig describes the remote integration service
type ServerConfig struct {
	BaseURL string
	Timeout time.Duration
}

// DisplayConfig controls rendering of loaded records
type DisplayConfig struct {
	PreviewLimit int
	Locale       language.Tag
}

// LogConfig controls the zerolog logger
type LogConfig struct {
	Level zerolog.Level
	File  string
}

// DefaultDataDir returns $HOME/.itemdeck
func DefaultDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, dataDirName), nil
}

// SetDefaults registers default values and env binding on v
func SetDefaults(v *viper.Viper, dataDir string) {
	v.SetDefault(KeyBaseURL, DefaultBaseURL)
	v.SetDefault(KeyTimeout, DefaultTimeout)
	v.SetDefault(KeyPreviewLimit, records.DefaultPreviewLimit)
	v.SetDefault(KeyLocale, "")
	v.SetDefault(KeyLogLevel, zerolog.InfoLevel.String())
	v.SetDefault(KeyLogFile, filepath.Join(dataDir, logFileName))
	v.SetDefault(KeyIntegration, string(integration.Notion))

	v.SetEnvPrefix("ITEMDECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load validates the values held by v and returns a typed Config
func Load(v *viper.Viper, dataDir string) (*Config, error) {
	cfg := &Config{DataDir: dataDir}

	baseURL := strings.TrimRight(v.GetString(KeyBaseURL), "/")
	u, err := url.Parse(baseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid %s %q: must be an absolute http(s) URL", KeyBaseURL, baseURL)
	}
	cfg.Server.BaseURL = baseURL

	cfg.Server.Timeout = v.GetDuration(KeyTimeout)
	if cfg.Server.Timeout <= 0 {
		return nil, fmt.Errorf("invalid %s: must be positive", KeyTimeout)
	}

	cfg.Display.PreviewLimit = v.GetInt(KeyPreviewLimit)
	if cfg.Display.PreviewLimit <= 0 {
		return nil, fmt.Errorf("invalid %s %d: must be at least 1", KeyPreviewLimit, cfg.Display.PreviewLimit)
	}

	if raw := v.GetString(KeyLocale); raw != "" {
		tag, err := records.ParseLocale(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", KeyLocale, err)
		}
		cfg.Display.Locale = tag
	} else {
		cfg.Display.Locale = records.EnvLocale()
	}

	level, err := zerolog.ParseLevel(strings.ToLower(v.GetString(KeyLogLevel)))
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", KeyLogLevel, err)
	}
	cfg.Log.Level = level
	cfg.Log.File = v.GetString(KeyLogFile)

	sel, err := integration.Parse(v.GetString(KeyIntegration))
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", KeyIntegration, err)
	}
	cfg.Integration = sel

	return cfg, nil
}

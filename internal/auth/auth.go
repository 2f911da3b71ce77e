package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/viper"
	"github.com/yolodolo42/itemdeck/internal/integration"
	"gopkg.in/yaml.v3"
)

// Source says where a resolved bundle came from
type Source string

const (
	SourceEnv    Source = "env"
	SourceConfig Source = "config"
	SourceStore  Source = "store"
)

// Manager resolves credential bundles for integrations
type Manager struct {
	store *Store
	v     *viper.Viper
}

// NewManager creates a new auth manager. v may be nil, in which case the
// global viper instance is consulted.
func NewManager(dataDir string, v *viper.Viper) (*Manager, error) {
	store, err := NewStore(dataDir)
	if err != nil {
		return nil, err
	}
	if v == nil {
		v = viper.GetViper()
	}

	return &Manager{
		store: store,
		v:     v,
	}, nil
}

// Credentials returns the bundle for sel using priority resolution:
// 1. Environment variable (wrapped as {"access_token": ...})
// 2. Config file integrations.<name>.credentials (with env substitution)
// 3. Stored credentials.json
func (m *Manager) Credentials(sel integration.Selector) (Bundle, Source, error) {
	if envVar := sel.EnvVar(); envVar != "" {
		if token := os.Getenv(envVar); token != "" {
			return Bundle{"access_token": token}, SourceEnv, nil
		}
	}

	if b := m.configBundle(sel); len(b) > 0 {
		return b, SourceConfig, nil
	}

	b, err := m.store.Get(sel)
	if err != nil {
		return nil, "", err
	}
	return b, SourceStore, nil
}

// Lookup adapts Credentials to the shape the deck expects
func (m *Manager) Lookup(sel integration.Selector) (Bundle, error) {
	b, _, err := m.Credentials(sel)
	return b, err
}

// configBundle reads integrations.<name>.credentials. Viper folds map keys to
// lower case, so the config file is re-read with yaml.v3 to keep the bundle
// verbatim; a JSON string value is accepted as well.
func (m *Manager) configBundle(sel integration.Selector) Bundle {
	raw, ok := m.fileCredentials(sel)
	if !ok {
		raw = m.v.Get(fmt.Sprintf("integrations.%s.credentials", sel))
	}

	var out Bundle
	switch t := raw.(type) {
	case string:
		if strings.TrimSpace(t) == "" {
			return nil
		}
		if err := json.Unmarshal([]byte(t), &out); err != nil {
			return nil
		}
	case map[string]any:
		out = Bundle(t)
	default:
		return nil
	}
	if len(out) == 0 {
		return nil
	}

	resolved, _ := substituteEnv(map[string]any(out)).(map[string]any)
	return Bundle(resolved)
}

// fileCredentials looks the bundle up in the config file viper loaded
func (m *Manager) fileCredentials(sel integration.Selector) (any, bool) {
	path := m.v.ConfigFileUsed()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
	default:
		return nil, false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	var doc struct {
		Integrations map[string]struct {
			Credentials any `yaml:"credentials"`
		} `yaml:"integrations"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, false
	}
	for name, entry := range doc.Integrations {
		if strings.EqualFold(name, string(sel)) && entry.Credentials != nil {
			return entry.Credentials, true
		}
	}
	return nil, false
}

// substituteEnv applies {env:VAR} substitution to every string at any depth
func substituteEnv(v any) any {
	switch t := v.(type) {
	case string:
		return resolveEnvSubstitution(t)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = substituteEnv(vv)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = substituteEnv(t[i])
		}
		return out
	default:
		return v
	}
}

// SetToken stores a plain access token for sel
func (m *Manager) SetToken(sel integration.Selector, token string) error {
	if token == "" {
		return fmt.Errorf("token is required")
	}
	return m.store.Set(sel, Bundle{"access_token": token})
}

// SetBundleJSON stores an arbitrary JSON object as the bundle for sel
func (m *Manager) SetBundleJSON(sel integration.Selector, raw string) error {
	var b Bundle
	if err := json.Unmarshal([]byte(raw), &b); err != nil {
		return fmt.Errorf("credentials must be a JSON object: %w", err)
	}
	if len(b) == 0 {
		return fmt.Errorf("credentials must not be empty")
	}
	return m.store.Set(sel, b)
}

// Remove deletes stored credentials for sel
func (m *Manager) Remove(sel integration.Selector) error {
	return m.store.Remove(sel)
}

// HasCredential reports whether any source can supply a bundle for sel
func (m *Manager) HasCredential(sel integration.Selector) bool {
	_, _, err := m.Credentials(sel)
	return err == nil
}

// ListConnected returns all integrations with credentials, in display order
func (m *Manager) ListConnected() []integration.Selector {
	connected := make([]integration.Selector, 0)
	for _, sel := range integration.All() {
		if m.HasCredential(sel) {
			connected = append(connected, sel)
		}
	}
	return connected
}

// Default returns the stored default integration, falling back to fallback
func (m *Manager) Default(fallback integration.Selector) integration.Selector {
	if sel := m.store.Default(); sel.Valid() {
		return sel
	}
	return fallback
}

// SetDefault sets the default integration
func (m *Manager) SetDefault(sel integration.Selector) error {
	return m.store.SetDefault(sel)
}

// StorePath returns the credentials file location
func (m *Manager) StorePath() string {
	return m.store.Path()
}

var envSubstitution = regexp.MustCompile(`\{env:([^}]+)\}`)

// resolveEnvSubstitution replaces {env:VAR_NAME} with environment variable values
func resolveEnvSubstitution(value string) string {
	if !strings.Contains(value, "{env:") {
		return value
	}

	return envSubstitution.ReplaceAllStringFunc(value, func(match string) string {
		return os.Getenv(match[5 : len(match)-1])
	})
}

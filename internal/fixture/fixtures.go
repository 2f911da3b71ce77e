package fixture

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/yolodolo42/itemdeck/internal/integration"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultFixtures []byte

// Fixture is the canned response for one integration
type Fixture struct {
	// Token, when set, must match the access_token in the posted credentials
	Token string `yaml:"token"`
	// Status forces an error response with Detail as its body
	Status int    `yaml:"status"`
	Detail string `yaml:"detail"`
	// Items is returned as a JSON array unless Payload is set
	Items   []map[string]any `yaml:"items"`
	Payload any              `yaml:"payload"`
	// Delay holds the response back, e.g. "2s"
	Delay string `yaml:"delay"`
}

// Set maps integration names to fixtures
type Set struct {
	Integrations map[integration.Selector]*Fixture `yaml:"integrations"`
}

// Default returns the fixtures compiled into the binary
func Default() (*Set, error) {
	return Parse(defaultFixtures)
}

// LoadFile reads fixtures from a YAML file
func LoadFile(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixtures: %w", err)
	}
	return Parse(data)
}

// Parse decodes a fixture document and rejects unknown integrations
func Parse(data []byte) (*Set, error) {
	var set Set
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("failed to parse fixtures: %w", err)
	}
	if set.Integrations == nil {
		set.Integrations = make(map[integration.Selector]*Fixture)
	}

	for sel, f := range set.Integrations {
		if !sel.Valid() {
			return nil, fmt.Errorf("unknown integration in fixtures: %q", sel)
		}
		if f == nil {
			set.Integrations[sel] = &Fixture{}
		}
	}
	return &set, nil
}

// Get returns the fixture for sel
func (s *Set) Get(sel integration.Selector) (*Fixture, bool) {
	f, ok := s.Integrations[sel]
	return f, ok
}

package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/yolodolo42/itemdeck/internal/integration"
)

const (
	credentialsFileName = "credentials.json"
	filePerms           = 0600 // Owner read/write only
)

// ErrNoCredential is returned when no bundle is stored for an integration
var ErrNoCredential = errors.New("no credential found")

// Bundle is an opaque, already-authenticated credential object. It is sent
// to the remote service verbatim and never interpreted here.
type Bundle map[string]any

// CredentialData is the structure of credentials.json
type CredentialData struct {
	Version            int                             `json:"version"`
	Integrations       map[integration.Selector]Bundle `json:"integrations"`
	DefaultIntegration integration.Selector            `json:"default_integration,omitempty"`
}

// Store manages credential storage
type Store struct {
	mu       sync.RWMutex
	filePath string
	data     *CredentialData
}

// NewStore creates a new credential store
func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	store := &Store{
		filePath: filepath.Join(dataDir, credentialsFileName),
		data: &CredentialData{
			Version:      1,
			Integrations: make(map[integration.Selector]Bundle),
		},
	}

	if err := store.load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}

	return store, nil
}

// Path returns the credentials file location
func (s *Store) Path() string {
	return s.filePath
}

func (s *Store) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	var data CredentialData
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("failed to parse credentials file: %w", err)
	}

	// Integrations is never nil, even for a hand-edited file without the field.
	if data.Integrations == nil {
		data.Integrations = make(map[integration.Selector]Bundle)
	}

	s.data = &data
	return nil
}

// save writes the file atomically with owner-only permissions. Callers hold mu.
func (s *Store) save() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	tmpPath := s.filePath + ".tmp"
	if err := os.WriteFile(tmpPath, raw, filePerms); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}

	if err := os.Rename(tmpPath, s.filePath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to save credentials file: %w", err)
	}

	return nil
}

// Get returns a copy of the bundle stored for sel
func (s *Store) Get(sel integration.Selector) (Bundle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.data.Integrations[sel]
	if !ok {
		return nil, fmt.Errorf("%w for integration: %s", ErrNoCredential, sel)
	}

	return b.clone(), nil
}

// Set stores a bundle for sel
func (s *Store) Set(sel integration.Selector, b Bundle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.Integrations[sel] = b.clone()
	return s.save()
}

// Remove deletes the bundle for sel
func (s *Store) Remove(sel integration.Selector) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data.Integrations, sel)
	if s.data.DefaultIntegration == sel {
		s.data.DefaultIntegration = ""
	}
	return s.save()
}

// Default returns the default integration, or "" when none is set
func (s *Store) Default() integration.Selector {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.data.DefaultIntegration
}

// SetDefault sets the default integration
func (s *Store) SetDefault(sel integration.Selector) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.DefaultIntegration = sel
	return s.save()
}

// List returns all integrations with a stored bundle, sorted
func (s *Store) List() []integration.Selector {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]integration.Selector, 0, len(s.data.Integrations))
	for id := range s.data.Integrations {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (b Bundle) clone() Bundle {
	if b == nil {
		return nil
	}
	out := make(Bundle, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/provkit/provisiond/internal/credentials"
)

// Namespace is the single key space the agent persists under, carried over
// from the firmware's preferences partition.
const Namespace = "wifi"

// record is the on-disk document layout.
type record struct {
	Version int       `yaml:"version"`
	Wifi    *wifiPair `yaml:"wifi,omitempty"`
}

type wifiPair struct {
	SSID   string `yaml:"ssid"`
	Secret string `yaml:"secret"`
}

// FileStore persists credentials to a single YAML file.
//
// Writes go through a temp file and rename so a crash mid-write never
// leaves a torn record. The file is created with 0600: it holds a network
// secret in the clear.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a file-backed store at the given path. The parent
// directory is created on first write, not here.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Get reads the persisted pair. A missing file means nothing has been
// provisioned yet.
func (s *FileStore) Get() (credentials.Credentials, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return credentials.Credentials{}, false, nil
	}
	if err != nil {
		return credentials.Credentials{}, false, fmt.Errorf("failed to read credential store: %w", err)
	}

	var rec record
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return credentials.Credentials{}, false, fmt.Errorf("failed to parse credential store: %w", err)
	}

	if rec.Version != 1 {
		return credentials.Credentials{}, false, fmt.Errorf("unsupported credential store version: %d (expected 1)", rec.Version)
	}
	if rec.Wifi == nil || rec.Wifi.SSID == "" {
		return credentials.Credentials{}, false, nil
	}

	return credentials.Credentials{SSID: rec.Wifi.SSID, Secret: rec.Wifi.Secret}, true, nil
}

// Put writes the pair atomically, replacing any previous record.
func (s *FileStore) Put(creds credentials.Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create credential store directory: %w", err)
	}

	rec := record{
		Version: 1,
		Wifi:    &wifiPair{SSID: creds.SSID, Secret: creds.Secret},
	}

	data, err := yaml.Marshal(&rec)
	if err != nil {
		return fmt.Errorf("failed to marshal credential store: %w", err)
	}

	// Write to temporary file first (atomic write)
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary credential store: %w", err)
	}

	// Atomic rename (this is atomic on all platforms)
	if err := os.Rename(tmpPath, s.path); err != nil {
		// Clean up temp file on error
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save credential store: %w", err)
	}

	return nil
}

// Clear removes the record. Used only by factory reset.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear credential store: %w", err)
	}
	return nil
}

// Package config manages the agent's YAML configuration file.
//
// The agent runs headless on the device, so unlike a desktop tool the
// configuration lives at a fixed path (by default /etc/provisiond/
// config.yaml) rather than under the user's config directory. A
// missing file is not an error; the agent boots with defaults so a
// factory-fresh device needs no provisioning beyond the firmware
// image itself.
//
// Provisioned WiFi credentials are NOT stored here. They live in a
// separate credential store so a factory reset can wipe them without
// touching operator settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where the agent looks for its configuration when no
// --config flag is given.
const DefaultPath = "/etc/provisiond/config.yaml"

// Config is the agent configuration file.
type Config struct {
	Version int `yaml:"version"`

	// Instance is the mDNS instance name the agent advertises. Falls
	// back to the hostname when empty.
	Instance string `yaml:"instance,omitempty"`

	// Listen is the provisioning HTTP listen address.
	Listen string `yaml:"listen"`

	// StorePath is where provisioned credentials are persisted.
	StorePath string `yaml:"store_path"`

	AccessPoint AccessPoint `yaml:"access_point"`
	Radio       Radio       `yaml:"radio"`
	Reset       Reset       `yaml:"reset"`
}

// AccessPoint configures the fallback setup network the agent raises
// when it has no working credentials.
type AccessPoint struct {
	SSID       string `yaml:"ssid"`
	Passphrase string `yaml:"passphrase"`
}

// Radio selects and configures the WiFi driver.
type Radio struct {
	// Interface is the wireless interface managed through wpa_cli.
	Interface string `yaml:"interface"`

	// Simulate switches to the in-memory driver. Networks maps SSID
	// to passphrase for the simulated neighborhood.
	Simulate bool              `yaml:"simulate,omitempty"`
	Networks map[string]string `yaml:"networks,omitempty"`
}

// Reset configures the factory reset button.
type Reset struct {
	// GPIOPath is the sysfs value file for the button input. Empty
	// disables the watcher.
	GPIOPath string `yaml:"gpio_path,omitempty"`

	// ActiveLow marks buttons wired to ground with a pull-up.
	ActiveLow bool `yaml:"active_low"`

	// RebootCommand runs after a completed factory reset.
	RebootCommand []string `yaml:"reboot_command,omitempty"`
}

// New returns a Config with default values.
func New() *Config {
	return &Config{
		Version:   1,
		Listen:    ":80",
		StorePath: "/var/lib/provisiond/credentials.yaml",
		AccessPoint: AccessPoint{
			SSID:       "provisiond-setup",
			Passphrase: "12345678",
		},
		Radio: Radio{
			Interface: "wlan0",
		},
		Reset: Reset{
			GPIOPath:      "",
			ActiveLow:     true,
			RebootCommand: []string{"reboot"},
		},
	}
}

// Load reads the configuration from path. A missing file returns the
// defaults; a malformed or unsupported file is an error.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return New(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := New()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if cfg.Version != 1 {
		return nil, fmt.Errorf("unsupported config version: %d (expected 1)", cfg.Version)
	}

	return cfg, nil
}

// Save writes the configuration atomically so a crash mid-write never
// leaves a truncated file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# provisiond configuration file
#
# Security note: provisioned WiFi credentials are NOT stored here.
# They live in the credential store at store_path so a factory reset
# can wipe them without touching these settings.

`)
	data = append(header, data...)

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary config file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config file: %w", err)
	}

	return nil
}

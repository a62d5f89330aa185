package cliconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// FileConfig mirrors Config but uses strings for durations and pointers for
// values whose zero value is meaningful.
type FileConfig struct {
	Name          string `toml:"name" yaml:"name"`
	MACAddress    string `toml:"mac_address" yaml:"mac_address"`
	Version       string `toml:"version" yaml:"version"`
	Model         string `toml:"model" yaml:"model"`
	Manufacturer  string `toml:"manufacturer" yaml:"manufacturer"`
	FriendlyName  string `toml:"friendly_name" yaml:"friendly_name"`
	SuggestedArea string `toml:"suggested_area" yaml:"suggested_area"`
	Listen        string `toml:"listen" yaml:"listen"`
	MaxSessions   *int   `toml:"max_sessions" yaml:"max_sessions"`
	FlushInterval string `toml:"flush_interval" yaml:"flush_interval"`
	MDNS          *bool  `toml:"mdns" yaml:"mdns"`
	Scan          *bool  `toml:"scan" yaml:"scan"`
	HCIDevice     *int   `toml:"hci_device" yaml:"hci_device"`
	CaptureFile   string `toml:"capture_file" yaml:"capture_file"`
	LogLevel      string `toml:"log_level" yaml:"log_level"`
}

// LoadFileConfig reads and parses a config file from the given path.
// Files ending in .yaml or .yml are parsed as YAML, anything else as TOML.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		if err := toml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.bleproxy/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".bleproxy", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("name", fc.Name, &cfg.Name)
	s.setString("mac-address", fc.MACAddress, &cfg.MACAddress)
	s.setString("esphome-version", fc.Version, &cfg.Version)
	s.setString("model", fc.Model, &cfg.Model)
	s.setString("manufacturer", fc.Manufacturer, &cfg.Manufacturer)
	s.setString("friendly-name", fc.FriendlyName, &cfg.FriendlyName)
	s.setString("area", fc.SuggestedArea, &cfg.SuggestedArea)
	s.setString("listen", fc.Listen, &cfg.Listen)
	s.setString("capture-file", fc.CaptureFile, &cfg.CaptureFile)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)

	if err := s.setDuration("flush-interval", fc.FlushInterval, &cfg.FlushInterval); err != nil {
		return err
	}

	s.setInt("max-sessions", fc.MaxSessions, &cfg.MaxSessions)
	s.setInt("hci-device", fc.HCIDevice, &cfg.HCIDevice)

	s.setBool("mdns", fc.MDNS, &cfg.MDNS)
	s.setBool("scan", fc.Scan, &cfg.Scan)

	return nil
}

// Reload re-reads path on top of base, keeping values from flags in changed,
// and validates the result.
func Reload(path string, base Config, changed map[string]bool) (Config, error) {
	fc, err := LoadFileConfig(path)
	if err != nil {
		return base, err
	}
	cfg := base
	if err := ApplyFileConfig(&cfg, fc, changed); err != nil {
		return base, err
	}
	if err := cfg.Validate(); err != nil {
		return base, err
	}
	return cfg, nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

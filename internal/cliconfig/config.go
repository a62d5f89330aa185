package cliconfig

import (
	"fmt"
	"strconv"
	"time"

	"github.com/mcuadros/go-defaults"
	"github.com/rs/zerolog"

	"github.com/bft-labs/bleproxy/internal/domain"
)

// DefaultPort is the native API TCP port.
const DefaultPort = 6053

// Config holds CLI configuration for bleproxy.
type Config struct {
	// Device identity
	Name          string
	MACAddress    string
	Version       string `default:"2024.6.0"`
	Model         string `default:"bleproxy"`
	Manufacturer  string `default:"bft-labs"`
	FriendlyName  string
	SuggestedArea string

	// Server
	Listen        string        `default:":6053"`
	MaxSessions   int           `default:"2"`
	FlushInterval time.Duration `default:"100ms"`

	// Optional components
	MDNS        bool `default:"true"`
	Scan        bool
	HCIDevice   int
	CaptureFile string

	LogLevel string `default:"info"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	var c Config
	defaults.SetDefaults(&c)
	return c
}

// Validate checks the configuration for errors and sets derived defaults.
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("%w: name is required", domain.ErrInvalidConfig)
	}
	if c.MACAddress == "" {
		return fmt.Errorf("%w: mac-address is required", domain.ErrInvalidConfig)
	}
	if _, err := domain.ParseMAC(c.MACAddress); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
	}
	if c.Listen == "" {
		return fmt.Errorf("%w: listen address is required", domain.ErrInvalidConfig)
	}
	if c.MaxSessions < 1 {
		return fmt.Errorf("%w: max-sessions must be at least 1", domain.ErrInvalidConfig)
	}
	if c.FlushInterval <= 0 {
		return fmt.Errorf("%w: flush interval must be positive", domain.ErrInvalidConfig)
	}
	if c.HCIDevice < 0 {
		return fmt.Errorf("%w: hci-device must not be negative", domain.ErrInvalidConfig)
	}
	if c.LogLevel != "" {
		if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
		}
	}

	if c.FriendlyName == "" {
		c.FriendlyName = c.Name
	}

	return nil
}

// Descriptor builds the device identity from a validated Config.
func (c *Config) Descriptor(compilationTime string) (domain.DeviceDescriptor, error) {
	mac, err := domain.ParseMAC(c.MACAddress)
	if err != nil {
		return domain.DeviceDescriptor{}, err
	}
	return domain.DeviceDescriptor{
		Name:            c.Name,
		MAC:             mac,
		Version:         c.Version,
		CompilationTime: compilationTime,
		Model:           c.Model,
		Manufacturer:    c.Manufacturer,
		FriendlyName:    c.FriendlyName,
		SuggestedArea:   c.SuggestedArea,
	}, nil
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if non-negative and flag not changed.
func (s *configSetter) setInt(flag string, value *int, dst *int) {
	if value == nil || *value < 0 || s.changed[flag] {
		return
	}
	*dst = *value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i < 0 {
		return nil
	}
	*dst = i
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
// Used for environment variables that come as strings.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}

package cliconfig

import (
	"errors"
	"testing"
	"time"

	"github.com/bft-labs/bleproxy/internal/domain"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Listen != ":6053" {
		t.Errorf("Listen = %v, want :6053", cfg.Listen)
	}
	if cfg.MaxSessions != 2 {
		t.Errorf("MaxSessions = %v, want 2", cfg.MaxSessions)
	}
	if cfg.FlushInterval != 100*time.Millisecond {
		t.Errorf("FlushInterval = %v, want 100ms", cfg.FlushInterval)
	}
	if !cfg.MDNS {
		t.Error("MDNS = false, want true")
	}
	if cfg.Scan {
		t.Error("Scan = true, want false")
	}
	if cfg.Model != "bleproxy" {
		t.Errorf("Model = %v, want bleproxy", cfg.Model)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %v, want info", cfg.LogLevel)
	}
}

func validConfig() Config {
	cfg := DefaultConfig()
	cfg.Name = "kitchen-proxy"
	cfg.MACAddress = "aa:bb:cc:dd:ee:ff"
	return cfg
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid config", mutate: func(*Config) {}},
		{name: "missing name", mutate: func(c *Config) { c.Name = "" }, wantErr: true},
		{name: "missing mac", mutate: func(c *Config) { c.MACAddress = "" }, wantErr: true},
		{name: "malformed mac", mutate: func(c *Config) { c.MACAddress = "aa:bb:cc" }, wantErr: true},
		{name: "eui64 mac", mutate: func(c *Config) { c.MACAddress = "00:00:00:00:fe:80:00:00" }, wantErr: true},
		{name: "missing listen", mutate: func(c *Config) { c.Listen = "" }, wantErr: true},
		{name: "zero sessions", mutate: func(c *Config) { c.MaxSessions = 0 }, wantErr: true},
		{name: "zero flush interval", mutate: func(c *Config) { c.FlushInterval = 0 }, wantErr: true},
		{name: "negative hci device", mutate: func(c *Config) { c.HCIDevice = -1 }, wantErr: true},
		{name: "unknown log level", mutate: func(c *Config) { c.LogLevel = "loud" }, wantErr: true},
		{name: "empty log level", mutate: func(c *Config) { c.LogLevel = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, domain.ErrInvalidConfig) {
				t.Errorf("Validate() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestConfig_ValidateDerivesFriendlyName(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if cfg.FriendlyName != "kitchen-proxy" {
		t.Errorf("FriendlyName = %v, want kitchen-proxy", cfg.FriendlyName)
	}

	cfg = validConfig()
	cfg.FriendlyName = "Kitchen"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if cfg.FriendlyName != "Kitchen" {
		t.Errorf("FriendlyName = %v, want Kitchen", cfg.FriendlyName)
	}
}

func TestConfig_Descriptor(t *testing.T) {
	cfg := validConfig()
	cfg.SuggestedArea = "Kitchen"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	d, err := cfg.Descriptor("2024-06-01 10:00:00")
	if err != nil {
		t.Fatalf("Descriptor() error = %v", err)
	}
	if d.MAC.String() != "AA:BB:CC:DD:EE:FF" {
		t.Errorf("MAC = %v, want AA:BB:CC:DD:EE:FF", d.MAC)
	}
	if d.CompilationTime != "2024-06-01 10:00:00" {
		t.Errorf("CompilationTime = %v", d.CompilationTime)
	}
	if d.FriendlyName != "kitchen-proxy" || d.SuggestedArea != "Kitchen" {
		t.Errorf("unexpected descriptor %+v", d)
	}
	if d.Version != cfg.Version || d.Model != cfg.Model || d.Manufacturer != cfg.Manufacturer {
		t.Errorf("descriptor identity mismatch %+v", d)
	}
}

func TestConfig_Logger(t *testing.T) {
	cfg := validConfig()
	if cfg.Logger() == nil {
		t.Error("Logger() = nil")
	}
}

func TestConfigSetter(t *testing.T) {
	s := newConfigSetter(map[string]bool{"locked": true})

	str := "orig"
	s.setString("locked", "new", &str)
	if str != "orig" {
		t.Errorf("changed flag overwritten: %v", str)
	}
	s.setString("free", "", &str)
	if str != "orig" {
		t.Errorf("empty value overwrote: %v", str)
	}
	s.setString("free", "new", &str)
	if str != "new" {
		t.Errorf("setString = %v, want new", str)
	}

	n := 3
	neg := -1
	s.setInt("free", &neg, &n)
	if n != 3 {
		t.Errorf("negative value applied: %v", n)
	}
	zero := 0
	s.setInt("free", &zero, &n)
	if n != 0 {
		t.Errorf("setInt = %v, want 0", n)
	}

	var d time.Duration
	if err := s.setDuration("free", "nope", &d); err == nil {
		t.Error("setDuration() expected error")
	}

	if err := s.setIntFromString("free", "x", &n); err == nil {
		t.Error("setIntFromString() expected error")
	}

	b := false
	s.setBoolFromString("free", "1", &b)
	if !b {
		t.Error("setBoolFromString(1) = false")
	}
	s.setBoolFromString("free", "no", &b)
	if b {
		t.Error("setBoolFromString(no) = true")
	}
}

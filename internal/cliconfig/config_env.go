package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (BLEPROXY_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("name", os.Getenv("BLEPROXY_NAME"), &cfg.Name)
	s.setString("mac-address", os.Getenv("BLEPROXY_MAC_ADDRESS"), &cfg.MACAddress)
	s.setString("esphome-version", os.Getenv("BLEPROXY_VERSION"), &cfg.Version)
	s.setString("model", os.Getenv("BLEPROXY_MODEL"), &cfg.Model)
	s.setString("manufacturer", os.Getenv("BLEPROXY_MANUFACTURER"), &cfg.Manufacturer)
	s.setString("friendly-name", os.Getenv("BLEPROXY_FRIENDLY_NAME"), &cfg.FriendlyName)
	s.setString("area", os.Getenv("BLEPROXY_SUGGESTED_AREA"), &cfg.SuggestedArea)
	s.setString("listen", os.Getenv("BLEPROXY_LISTEN"), &cfg.Listen)
	s.setString("capture-file", os.Getenv("BLEPROXY_CAPTURE_FILE"), &cfg.CaptureFile)
	s.setString("log-level", os.Getenv("BLEPROXY_LOG_LEVEL"), &cfg.LogLevel)

	if err := s.setDuration("flush-interval", os.Getenv("BLEPROXY_FLUSH_INTERVAL"), &cfg.FlushInterval); err != nil {
		return err
	}

	if err := s.setIntFromString("max-sessions", os.Getenv("BLEPROXY_MAX_SESSIONS"), &cfg.MaxSessions); err != nil {
		return err
	}
	if err := s.setIntFromString("hci-device", os.Getenv("BLEPROXY_HCI_DEVICE"), &cfg.HCIDevice); err != nil {
		return err
	}

	s.setBoolFromString("mdns", os.Getenv("BLEPROXY_MDNS"), &cfg.MDNS)
	s.setBoolFromString("scan", os.Getenv("BLEPROXY_SCAN"), &cfg.Scan)

	return nil
}

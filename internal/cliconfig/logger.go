package cliconfig

import "github.com/bft-labs/bleproxy/pkg/log"

// Logger returns the console logger for the configured level.
func (c *Config) Logger() log.Logger {
	return log.NewConsoleAdapter(c.LogLevel)
}

package blescan

import "github.com/bft-labs/bleproxy/pkg/bleproxy"

// WithScanner returns a bleproxy Option that forwards advertisements from
// the local HCI controller.
//
// Usage:
//
//	p, err := bleproxy.New(cfg, blescan.WithScanner(blescan.DefaultConfig()))
func WithScanner(cfg Config) bleproxy.Option {
	return bleproxy.WithPlugin(New(cfg))
}

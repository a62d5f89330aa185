package discovery

import "github.com/bft-labs/bleproxy/pkg/bleproxy"

// WithDiscovery returns a bleproxy Option that announces the proxy over mDNS.
//
// Usage:
//
//	p, err := bleproxy.New(cfg,
//	    discovery.WithDiscovery(discovery.Config{Interface: "eth0"}),
//	)
func WithDiscovery(cfg Config) bleproxy.Option {
	return bleproxy.WithPlugin(New(cfg))
}

// WithDefaultDiscovery announces on all interfaces with default settings.
func WithDefaultDiscovery() bleproxy.Option {
	return WithDiscovery(DefaultConfig())
}

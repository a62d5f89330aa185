package configwatcher

import "github.com/bft-labs/bleproxy/pkg/bleproxy"

// WithConfigWatcher returns a bleproxy Option that reloads the device
// identity when the config file changes.
//
// Usage:
//
//	p, err := bleproxy.New(cfg,
//	    configwatcher.WithConfigWatcher(configwatcher.Config{
//	        Path: "/etc/bleproxy/config.toml",
//	        Load: loadDevice,
//	    }),
//	)
func WithConfigWatcher(cfg Config) bleproxy.Option {
	return bleproxy.WithPlugin(New(cfg))
}

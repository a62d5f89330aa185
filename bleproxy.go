// Package bleproxy runs an ESPHome native API Bluetooth LE advertisement
// proxy.
//
// Example usage:
//
//	cfg := bleproxy.Config{
//	    Device: bleproxy.Device{
//	        Name: "living-room-proxy",
//	        MAC:  bleproxy.MustParseMAC("AA:BB:CC:DD:EE:FF"),
//	    },
//	}
//	if err := bleproxy.Run(ctx, cfg, blescan.WithScanner(blescan.DefaultConfig())); err != nil {
//	    log.Fatal(err)
//	}
//
// Use pkg/bleproxy directly to control the lifecycle or feed advertisements
// from another source.
package bleproxy

import (
	"context"

	"github.com/bft-labs/bleproxy/pkg/bleproxy"
)

// Config holds the proxy configuration.
type Config = bleproxy.Config

// Device is the identity reported to clients.
type Device = bleproxy.Device

// Option configures the proxy.
type Option = bleproxy.Option

// MustParseMAC parses a hardware address and panics on error.
func MustParseMAC(s string) bleproxy.MAC {
	return bleproxy.MustParseMAC(s)
}

// Run starts a proxy and blocks until ctx is cancelled, then stops it.
// It returns early if the proxy fails to start.
func Run(ctx context.Context, cfg Config, opts ...Option) error {
	p, err := bleproxy.New(cfg, opts...)
	if err != nil {
		return err
	}
	if err := p.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return p.Stop()
}

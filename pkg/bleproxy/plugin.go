package bleproxy

import (
	"context"
	"net"

	"github.com/bft-labs/bleproxy/internal/ports"
)

// AdvertisementSink accepts advertisements from a producer. *Proxy
// satisfies this interface.
type AdvertisementSink = ports.AdvertisementSink

// PluginConfig is handed to every plugin at Initialize.
type PluginConfig struct {
	// Descriptors is the live device identity. Plugins may Watch it or
	// Replace it.
	Descriptors *DescriptorStore

	// Addr is the bound listener address.
	Addr net.Addr

	// Logger is the proxy logger.
	Logger Logger

	// Sink receives advertisements produced by the plugin.
	Sink AdvertisementSink
}

// Port returns the TCP port of Addr, or 0.
func (c PluginConfig) Port() int {
	if a, ok := c.Addr.(*net.TCPAddr); ok {
		return a.Port
	}
	return 0
}

// Plugin is an optional component started with the proxy.
type Plugin interface {
	Name() string
	Initialize(ctx context.Context, cfg PluginConfig) error
	Shutdown(ctx context.Context) error
}

// BasePlugin implements Plugin with no-op lifecycle methods.
type BasePlugin struct {
	name string
}

// NewBasePlugin creates a BasePlugin reporting name.
func NewBasePlugin(name string) BasePlugin {
	return BasePlugin{name: name}
}

func (b BasePlugin) Name() string                                 { return b.name }
func (BasePlugin) Initialize(context.Context, PluginConfig) error { return nil }
func (BasePlugin) Shutdown(context.Context) error                 { return nil }

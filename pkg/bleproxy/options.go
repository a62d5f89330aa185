package bleproxy

import (
	"net"

	"github.com/bft-labs/bleproxy/internal/ports"
	"github.com/bft-labs/bleproxy/pkg/log"
)

// Logger is the interface for structured logging.
type Logger = log.Logger

// LogField represents a structured log field.
type LogField = log.Field

// FrameTap observes every frame sent or received by a session.
type FrameTap = ports.FrameTap

// FrameTapFunc adapts a function to FrameTap.
type FrameTapFunc = ports.FrameTapFunc

// Option configures optional behavior of a Proxy.
type Option func(*options)

type options struct {
	logger       Logger
	eventHandler EventHandler
	plugins      []Plugin
	tap          FrameTap
	listen       func(addr string) (net.Listener, error)
	descriptors  *DescriptorStore
}

func defaultOptions() options {
	return options{
		logger: log.NewNoopLogger(),
		listen: func(addr string) (net.Listener, error) {
			return net.Listen("tcp", addr)
		},
	}
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithEventHandler sets a handler for proxy events.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}

// WithPlugin registers a plugin to be initialized when the proxy starts.
// Plugins are initialized in registration order and shut down in reverse order.
func WithPlugin(plugin Plugin) Option {
	return func(o *options) {
		o.plugins = append(o.plugins, plugin)
	}
}

// WithFrameTap records every frame crossing a session.
func WithFrameTap(tap FrameTap) Option {
	return func(o *options) {
		o.tap = tap
	}
}

// WithListenFunc replaces net.Listen, which is called on every Start.
func WithListenFunc(fn func(addr string) (net.Listener, error)) Option {
	return func(o *options) {
		o.listen = fn
	}
}

// WithDescriptorStore shares an existing store instead of creating one from
// Config.Device.
func WithDescriptorStore(store *DescriptorStore) Option {
	return func(o *options) {
		o.descriptors = store
	}
}

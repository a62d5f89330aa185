// Package discovery announces the proxy over mDNS as an ESPHome native API
// service so clients find it without manual configuration.
package discovery

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/enbility/zeroconf/v3"

	"github.com/bft-labs/bleproxy/pkg/bleproxy"
	"github.com/bft-labs/bleproxy/pkg/log"
)

// mDNS service parameters used by ESPHome clients.
const (
	ServiceType = "_esphomelib._tcp"
	Domain      = "local."

	// MaxInstanceNameLen is the DNS label limit for the instance name.
	MaxInstanceNameLen = 63
)

// Config holds configuration options for the discovery plugin.
type Config struct {
	// Interface restricts announcements to one network interface.
	// Empty means all interfaces.
	Interface string

	// Network is advertised in the "network" TXT record.
	// Default: "ethernet"
	Network string

	// TTL overrides the record TTL. Zero keeps the zeroconf default.
	TTL time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{Network: "ethernet"}
}

// server is the part of *zeroconf.Server the plugin uses.
type server interface {
	Shutdown()
}

// registerFunc matches zeroconf.Register.
type registerFunc func(instance, service, domain string, port int, txt []string, ifaces []net.Interface, opts ...zeroconf.ServerOption) (server, error)

func zeroconfRegister(instance, service, domain string, port int, txt []string, ifaces []net.Interface, opts ...zeroconf.ServerOption) (server, error) {
	s, err := zeroconf.Register(instance, service, domain, port, txt, ifaces, opts...)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Plugin registers the service at startup and re-registers it whenever the
// device descriptor changes.
type Plugin struct {
	cfg      Config
	register registerFunc

	mu      sync.Mutex
	server  server
	port    int
	logger  log.Logger
	running bool
}

// New creates a discovery plugin.
func New(cfg Config) *Plugin {
	if cfg.Network == "" {
		cfg.Network = "ethernet"
	}
	return &Plugin{cfg: cfg, register: zeroconfRegister}
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "discovery"
}

// Initialize registers the service for the current descriptor.
func (p *Plugin) Initialize(ctx context.Context, cfg bleproxy.PluginConfig) error {
	if cfg.Port() == 0 {
		return fmt.Errorf("discovery: listener has no TCP port")
	}

	p.mu.Lock()
	p.port = cfg.Port()
	p.logger = cfg.Logger
	p.running = true
	err := p.announceLocked(cfg.Descriptors.Descriptor())
	p.mu.Unlock()
	if err != nil {
		return err
	}

	cfg.Descriptors.Watch(p.onDescriptorChange)
	return nil
}

// Shutdown withdraws the service.
func (p *Plugin) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.running = false
	if p.server != nil {
		p.server.Shutdown()
		p.server = nil
	}
	return nil
}

func (p *Plugin) onDescriptorChange(d bleproxy.Device) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}
	if err := p.announceLocked(d); err != nil {
		p.logger.Warn("mDNS re-registration failed", log.Err(err))
	}
}

// announceLocked replaces any existing registration. p.mu must be held.
func (p *Plugin) announceLocked(d bleproxy.Device) error {
	if p.server != nil {
		p.server.Shutdown()
		p.server = nil
	}

	var opts []zeroconf.ServerOption
	if p.cfg.TTL > 0 {
		opts = append(opts, zeroconf.TTL(uint32(p.cfg.TTL.Seconds())))
	}

	instance := InstanceName(d)
	srv, err := p.register(instance, ServiceType, Domain, p.port, TXTRecords(d, p.cfg.Network), p.interfaces(), opts...)
	if err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceType, err)
	}
	p.server = srv
	p.logger.Info("mDNS service registered",
		log.String("instance", instance),
		log.Int("port", p.port))
	return nil
}

// interfaces returns nil to use all interfaces.
func (p *Plugin) interfaces() []net.Interface {
	if p.cfg.Interface == "" {
		return nil
	}
	iface, err := net.InterfaceByName(p.cfg.Interface)
	if err != nil {
		return nil
	}
	return []net.Interface{*iface}
}

// InstanceName returns the mDNS instance name for d, which is the device
// name cut to the DNS label limit.
func InstanceName(d bleproxy.Device) string {
	name := d.Name
	if len(name) > MaxInstanceNameLen {
		name = name[:MaxInstanceNameLen]
	}
	return name
}

// TXTRecords returns the TXT strings ESPHome clients read during discovery.
func TXTRecords(d bleproxy.Device, network string) []string {
	txt := []string{
		"friendly_name=" + d.FriendlyName,
		"version=" + d.Version,
		"mac=" + strings.ToLower(strings.ReplaceAll(d.MAC.String(), ":", "")),
		"network=" + network,
	}
	if d.Model != "" {
		txt = append(txt, "board="+d.Model)
	}
	return txt
}

// Ensure Plugin implements bleproxy.Plugin.
var _ bleproxy.Plugin = (*Plugin)(nil)

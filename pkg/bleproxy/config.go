package bleproxy

import (
	"fmt"
	"time"

	"github.com/bft-labs/bleproxy/internal/app"
	"github.com/bft-labs/bleproxy/internal/domain"
)

// Re-exported domain types.
type (
	// Device is the identity reported in HelloResponse and DeviceInfoResponse.
	Device = domain.DeviceDescriptor

	// DescriptorStore holds the live Device and notifies watchers on change.
	DescriptorStore = domain.DescriptorStore

	// MAC is a 48-bit hardware address.
	MAC = domain.MAC

	// Advertisement is one received BLE advertisement.
	Advertisement = domain.Advertisement

	// AddressType tells public and random BLE addresses apart.
	AddressType = domain.AddressType

	// CapturedFrame is a frame observed by a FrameTap.
	CapturedFrame = domain.CapturedFrame
)

// Address types.
const (
	AddressPublic = domain.AddressPublic
	AddressRandom = domain.AddressRandom
)

// Errors returned by the public API.
var (
	ErrAlreadyRunning  = domain.ErrAlreadyRunning
	ErrNotRunning      = domain.ErrNotRunning
	ErrShutdownTimeout = domain.ErrShutdownTimeout
	ErrInvalidConfig   = domain.ErrInvalidConfig
)

// NewDescriptorStoreFor creates a store holding d.
func NewDescriptorStoreFor(d Device) *DescriptorStore {
	return domain.NewDescriptorStore(d)
}

// ParseMAC parses a colon or dash separated 6-byte hardware address.
func ParseMAC(s string) (MAC, error) {
	return domain.ParseMAC(s)
}

// MustParseMAC is like ParseMAC but panics on error.
func MustParseMAC(s string) MAC {
	m, err := domain.ParseMAC(s)
	if err != nil {
		panic(err)
	}
	return m
}

// DefaultListen is the standard native API address.
const DefaultListen = ":6053"

// Config holds the proxy configuration.
type Config struct {
	// Listen is the TCP address to accept clients on. Default ":6053".
	Listen string

	// MaxSessions is the number of concurrent clients. Default 2.
	MaxSessions int

	// FlushInterval is the maximum age of a partial advertisement batch.
	// Default 100ms.
	FlushInterval time.Duration

	// ServerVersion appears in HelloResponse.server_info. Default Version.
	ServerVersion string

	// ShutdownTimeout bounds Stop. Default 30s.
	ShutdownTimeout time.Duration

	// Device is the initial identity. Name and MAC are required.
	Device Device
}

// SetDefaults fills zero values with defaults.
func (c *Config) SetDefaults() {
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if c.MaxSessions <= 0 {
		c.MaxSessions = app.DefaultMaxSessions
	}
	if c.FlushInterval <= 0 {
		c.FlushInterval = app.DefaultFlushInterval
	}
	if c.ServerVersion == "" {
		c.ServerVersion = Version
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = app.ShutdownTimeout
	}
	if c.Device.FriendlyName == "" {
		c.Device.FriendlyName = c.Device.Name
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Device.Name == "" {
		return fmt.Errorf("%w: device name is required", domain.ErrInvalidConfig)
	}
	if c.Device.MAC == (MAC{}) {
		return fmt.Errorf("%w: device MAC is required", domain.ErrInvalidConfig)
	}
	return nil
}

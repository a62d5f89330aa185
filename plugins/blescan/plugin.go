// Package blescan feeds advertisements from a local HCI controller into the
// proxy.
package blescan

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-ble/ble"

	"github.com/bft-labs/bleproxy/pkg/bleproxy"
	"github.com/bft-labs/bleproxy/pkg/log"
)

// Config holds configuration options for the scanner plugin.
type Config struct {
	// DeviceID selects the HCI controller (hci0 is 0).
	DeviceID int

	// AllowDuplicates reports every advertisement instead of the first per
	// address. Clients track presence from repeats, so the default is true.
	AllowDuplicates bool

	// RestartDelay is the pause before a failed scan is restarted.
	// Default: 2 seconds
	RestartDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		AllowDuplicates: true,
		RestartDelay:    2 * time.Second,
	}
}

// Device is the part of ble.Device the scanner uses.
type Device interface {
	Scan(ctx context.Context, allowDup bool, h ble.AdvHandler) error
	Stop() error
}

// DeviceFactory opens the HCI controller. It is a variable so tests can
// replace it.
var DeviceFactory = openDevice

// Plugin runs a scan loop for the proxy lifetime.
type Plugin struct {
	cfg Config

	dev    Device
	sink   bleproxy.AdvertisementSink
	logger log.Logger
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	seen    uint64
	skipped uint64
}

// New creates a scanner plugin.
func New(cfg Config) *Plugin {
	if cfg.RestartDelay <= 0 {
		cfg.RestartDelay = 2 * time.Second
	}
	return &Plugin{cfg: cfg}
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "blescan"
}

// Initialize opens the controller and starts scanning.
func (p *Plugin) Initialize(ctx context.Context, cfg bleproxy.PluginConfig) error {
	if cfg.Sink == nil {
		return errors.New("blescan: no advertisement sink")
	}
	dev, err := DeviceFactory(p.cfg.DeviceID)
	if err != nil {
		return err
	}
	p.dev = dev
	p.sink = cfg.Sink
	p.logger = cfg.Logger

	scanCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.wg.Add(1)
	go p.scanLoop(scanCtx)

	p.logger.Info("BLE scanner started", log.Int("hci", p.cfg.DeviceID))
	return nil
}

// Shutdown stops scanning and releases the controller.
func (p *Plugin) Shutdown(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	if p.dev != nil {
		return p.dev.Stop()
	}
	return nil
}

// Stats returns the number of forwarded and skipped advertisements.
func (p *Plugin) Stats() (forwarded, skipped uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.seen, p.skipped
}

func (p *Plugin) scanLoop(ctx context.Context) {
	defer p.wg.Done()

	for {
		err := p.dev.Scan(ctx, p.cfg.AllowDuplicates, p.handle)
		if ctx.Err() != nil {
			return
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			p.logger.Warn("BLE scan stopped, restarting",
				log.Err(err),
				log.Duration("delay", p.cfg.RestartDelay))
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(p.cfg.RestartDelay):
		}
	}
}

func (p *Plugin) handle(a ble.Advertisement) {
	adv, ok := Convert(a)

	p.mu.Lock()
	if ok {
		p.seen++
	} else {
		p.skipped++
	}
	p.mu.Unlock()

	if !ok {
		p.logger.Debug("skipping advertisement with unparseable address",
			log.String("addr", a.Addr().String()))
		return
	}
	p.sink.Enqueue(adv)
}

// Ensure Plugin implements bleproxy.Plugin.
var _ bleproxy.Plugin = (*Plugin)(nil)

// Package configwatcher reloads the device identity when the proxy config
// file changes, so a rename or a new suggested area reaches clients without
// a restart.
package configwatcher

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/bleproxy/pkg/bleproxy"
	"github.com/bft-labs/bleproxy/pkg/log"
)

// LoadFunc reads the config file at path and returns the device it describes.
type LoadFunc func(path string) (bleproxy.Device, error)

// Config holds configuration options for the config watcher plugin.
type Config struct {
	// Path is the config file to watch.
	Path string

	// Load parses Path. Required.
	Load LoadFunc

	// DebounceDelay is the delay to wait after a file change before reloading.
	// Default: 100 milliseconds
	DebounceDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		DebounceDelay: 100 * time.Millisecond,
	}
}

// Plugin watches the config file and replaces the descriptor on change.
// It watches the parent directory so editors that replace the file by
// rename are picked up.
type Plugin struct {
	mu sync.Mutex

	path          string
	load          LoadFunc
	debounceDelay time.Duration

	descriptors *bleproxy.DescriptorStore
	logger      log.Logger
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	debounce    *time.Timer
	reloads     int
}

// New creates a new config watcher plugin with the given configuration.
func New(cfg Config) *Plugin {
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = 100 * time.Millisecond
	}
	return &Plugin{
		path:          cfg.Path,
		load:          cfg.Load,
		debounceDelay: cfg.DebounceDelay,
	}
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "configwatcher"
}

// Initialize starts watching the config file.
func (p *Plugin) Initialize(ctx context.Context, cfg bleproxy.PluginConfig) error {
	p.logger = cfg.Logger
	p.descriptors = cfg.Descriptors

	if p.path == "" || p.load == nil {
		p.logger.Warn("config watcher disabled: no config file")
		return nil
	}
	if p.descriptors == nil {
		return errors.New("configwatcher: no descriptor store")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(p.path)); err != nil {
		_ = watcher.Close()
		return err
	}

	watchCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.wg.Add(1)
	go p.watchLoop(watchCtx, watcher)

	p.logger.Info("config watcher started", log.String("path", p.path))
	return nil
}

// Shutdown stops the watcher and any pending reload.
func (p *Plugin) Shutdown(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()

	p.mu.Lock()
	if p.debounce != nil {
		p.debounce.Stop()
	}
	p.mu.Unlock()
	return nil
}

// Reloads returns the number of successful reloads.
func (p *Plugin) Reloads() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reloads
}

func (p *Plugin) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer p.wg.Done()
	defer watcher.Close()

	name := filepath.Base(p.path)
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			p.debounceReload(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			p.logger.Error("config watcher error", log.Err(err))
		}
	}
}

func (p *Plugin) debounceReload(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.debounce != nil {
		p.debounce.Stop()
	}
	p.debounce = time.AfterFunc(p.debounceDelay, func() {
		if ctx.Err() != nil {
			return
		}
		p.reload()
	})
}

// reload applies the file if it parses. A broken file keeps the previous
// descriptor.
func (p *Plugin) reload() {
	d, err := p.load(p.path)
	if err != nil {
		p.logger.Warn("config reload failed, keeping previous identity",
			log.String("path", p.path), log.Err(err))
		return
	}

	if d == p.descriptors.Descriptor() {
		return
	}
	p.descriptors.Replace(d)

	p.mu.Lock()
	p.reloads++
	p.mu.Unlock()

	p.logger.Info("device identity reloaded",
		log.String("name", d.Name),
		log.String("friendly_name", d.FriendlyName))
}

// Ensure Plugin implements bleproxy.Plugin.
var _ bleproxy.Plugin = (*Plugin)(nil)

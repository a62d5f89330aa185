package bleproxy

import (
	"context"
	"net"
	"sync"

	"github.com/bft-labs/bleproxy/internal/app"
	"github.com/bft-labs/bleproxy/internal/domain"
	"github.com/bft-labs/bleproxy/internal/ports"
)

// Proxy is a native API BLE advertisement proxy that can be embedded in
// other applications. Use New() to create an instance, then Start().
type Proxy struct {
	config      Config
	opts        options
	lifecycle   *app.Lifecycle
	emitter     *eventEmitterWrapper
	descriptors *domain.DescriptorStore
	logger      ports.Logger
	plugins     []Plugin

	mu     sync.RWMutex
	server *app.Server
	cancel context.CancelFunc
}

// New creates a Proxy in StateStopped. Returns an error if the
// configuration is invalid.
func New(cfg Config, opts ...Option) (*Proxy, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := validateModuleVersions(); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	descriptors := o.descriptors
	if descriptors == nil {
		descriptors = domain.NewDescriptorStore(cfg.Device)
	}

	emitter := &eventEmitterWrapper{handler: o.eventHandler}

	return &Proxy{
		config:      cfg,
		opts:        o,
		lifecycle:   app.NewLifecycle(o.logger, emitter),
		emitter:     emitter,
		descriptors: descriptors,
		logger:      o.logger,
		plugins:     o.plugins,
	}, nil
}

// Start binds the listener, initializes plugins and begins serving in the
// background. The provided context bounds the lifetime of the server.
func (p *Proxy) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.lifecycle.CanStart() {
		return domain.ErrAlreadyRunning
	}
	if err := p.lifecycle.TransitionTo(app.StateStarting, "Start() called"); err != nil {
		return err
	}

	ln, err := p.opts.listen(p.config.Listen)
	if err != nil {
		p.logger.Error("listen failed", ports.String("addr", p.config.Listen), ports.Err(err))
		_ = p.lifecycle.TransitionTo(app.StateCrashed, "listen failed")
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	server := app.NewServer(ln, p.descriptors, app.ServerConfig{
		MaxSessions:   p.config.MaxSessions,
		FlushInterval: p.config.FlushInterval,
		ServerVersion: p.config.ServerVersion,
	}, p.logger, p.opts.tap, app.WithFlushObserver(p.emitter.onFlush))
	p.server = server

	pluginCfg := PluginConfig{
		Descriptors: p.descriptors,
		Addr:        ln.Addr(),
		Logger:      p.logger,
		Sink:        p,
	}
	for i, pl := range p.plugins {
		if err := pl.Initialize(runCtx, pluginCfg); err != nil {
			p.logger.Error("plugin initialization failed",
				ports.String("plugin", pl.Name()),
				ports.Err(err))
			p.shutdownPlugins(p.plugins[:i])
			cancel()
			_ = ln.Close()
			p.server = nil
			_ = p.lifecycle.TransitionTo(app.StateCrashed, "plugin init failed: "+pl.Name())
			return err
		}
		p.logger.Info("plugin initialized", ports.String("plugin", pl.Name()))
	}

	if err := p.lifecycle.TransitionTo(app.StateRunning, "server starting"); err != nil {
		p.shutdownPlugins(p.plugins)
		cancel()
		_ = ln.Close()
		p.server = nil
		return err
	}

	p.lifecycle.Go(func() {
		if err := server.Serve(runCtx); err != nil {
			p.logger.Error("server error", ports.Err(err))
			_ = p.lifecycle.TransitionTo(app.StateCrashed, err.Error())
		}
	})

	return nil
}

// Stop closes the listener and every session, waits for the server
// goroutines and shuts plugins down in reverse order. Returns
// ErrShutdownTimeout if the server does not stop in time.
func (p *Proxy) Stop() error {
	p.mu.Lock()

	if !p.lifecycle.CanStop() {
		p.mu.Unlock()
		return domain.ErrNotRunning
	}
	if err := p.lifecycle.TransitionTo(app.StateStopping, "Stop() called"); err != nil {
		p.mu.Unlock()
		return err
	}
	if p.cancel != nil {
		p.cancel()
	}

	p.mu.Unlock()

	err := p.lifecycle.Wait(p.config.ShutdownTimeout)

	p.shutdownPlugins(p.plugins)

	p.mu.Lock()
	p.server = nil
	p.mu.Unlock()

	if err != nil {
		_ = p.lifecycle.TransitionTo(app.StateCrashed, "shutdown timeout")
	} else {
		_ = p.lifecycle.TransitionTo(app.StateStopped, "graceful shutdown")
	}
	return err
}

// shutdownPlugins shuts plugins down in reverse order, logging failures.
func (p *Proxy) shutdownPlugins(plugins []Plugin) {
	ctx := context.Background()
	for i := len(plugins) - 1; i >= 0; i-- {
		pl := plugins[i]
		if err := pl.Shutdown(ctx); err != nil {
			p.logger.Error("plugin shutdown failed",
				ports.String("plugin", pl.Name()),
				ports.Err(err))
		} else {
			p.logger.Info("plugin shutdown complete", ports.String("plugin", pl.Name()))
		}
	}
}

// Status returns the current lifecycle state.
// Safe to call concurrently from any goroutine.
func (p *Proxy) Status() State {
	return convertState(p.lifecycle.State())
}

// StateInfo returns the current state with the time and reason of the
// transition that entered it.
func (p *Proxy) StateInfo() StateInfo {
	st := p.lifecycle.Snapshot()
	return StateInfo{State: convertState(st.State), Since: st.Since, Reason: st.Reason}
}

// Enqueue hands an advertisement to the batch queue. Advertisements are
// dropped while the proxy is not running.
func (p *Proxy) Enqueue(adv Advertisement) {
	p.mu.RLock()
	server := p.server
	p.mu.RUnlock()
	if server != nil {
		server.Enqueue(adv)
	}
}

// Flush sends the pending advertisement batch immediately and returns the
// number of clients that received it.
func (p *Proxy) Flush() int {
	p.mu.RLock()
	server := p.server
	p.mu.RUnlock()
	if server == nil {
		return 0
	}
	return server.Queue().Flush()
}

// Addr returns the listener address, or nil when not running.
func (p *Proxy) Addr() net.Addr {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.server == nil {
		return nil
	}
	return p.server.Addr()
}

// Sessions returns the number of connected clients.
func (p *Proxy) Sessions() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.server == nil {
		return 0
	}
	return p.server.Registry().Len()
}

// Descriptors returns the live device identity store.
func (p *Proxy) Descriptors() *DescriptorStore {
	return p.descriptors
}

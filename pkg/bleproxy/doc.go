// Package bleproxy provides an embeddable ESPHome native API server that
// forwards raw BLE advertisements to Home Assistant style clients.
//
// The proxy accepts up to [Config.MaxSessions] TCP clients, answers the
// handshake and device queries, and broadcasts advertisements handed to
// [Proxy.Enqueue] in batches of up to 16 to every client that subscribed.
//
// # Basic Usage
//
//	cfg := bleproxy.Config{
//	    Listen: ":6053",
//	    Device: bleproxy.Device{
//	        Name: "kitchen-proxy",
//	        MAC:  bleproxy.MustParseMAC("aa:bb:cc:dd:ee:ff"),
//	    },
//	}
//
//	p, err := bleproxy.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := p.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	// feed advertisements from a scanner
//	p.Enqueue(adv)
//
//	if err := p.Stop(); err != nil {
//	    log.Printf("shutdown error: %v", err)
//	}
//
// # Event Handling
//
// Implement [EventHandler] (embedding [BaseEventHandler] for no-op defaults)
// and pass it via [WithEventHandler] to observe state changes and batch
// delivery. Handlers are called synchronously and should return quickly.
//
// # Plugins
//
// Optional components such as mDNS advertisement, the HCI scanner and the
// config watcher are plugins:
//
//	import "github.com/bft-labs/bleproxy/plugins/discovery"
//	import "github.com/bft-labs/bleproxy/plugins/blescan"
//
//	p, err := bleproxy.New(cfg,
//	    discovery.WithDefaultDiscovery(),
//	    blescan.WithScanner(blescan.DefaultConfig()),
//	)
//
// Plugins are initialized after the listener is bound, in registration
// order, and shut down in reverse order.
//
// # Lifecycle States
//
// A Proxy is in one of [StateStopped], [StateStarting], [StateRunning],
// [StateStopping] or [StateCrashed]. Use [Proxy.Status] to query it.
package bleproxy

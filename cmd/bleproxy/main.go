package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/bleproxy/internal/adapters/capture"
	"github.com/bft-labs/bleproxy/internal/cliconfig"
	"github.com/bft-labs/bleproxy/pkg/bleproxy"
	"github.com/bft-labs/bleproxy/pkg/log"
	"github.com/bft-labs/bleproxy/plugins/blescan"
	"github.com/bft-labs/bleproxy/plugins/configwatcher"
	"github.com/bft-labs/bleproxy/plugins/discovery"
)

const helpDescription = `
Expose this host as an ESPHome Bluetooth proxy over the native API.

Highlights:
  - Speaks the ESPHome native API (plaintext) on TCP port 6053.
  - Batches BLE advertisements to subscribed clients, up to 16 per message.
  - Announces itself over mDNS so Home Assistant discovers it.
  - Configure via file, env (BLEPROXY_*), or flags.
`

var exampleUsage = strings.TrimSpace(`
  bleproxy --name living-room-proxy --mac-address AA:BB:CC:DD:EE:FF --scan
  bleproxy --config $HOME/.bleproxy/config.yaml --capture-file /tmp/session.cbor
  bleproxy capture view /tmp/session.cbor --session 3f1c
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// compilationTime reports the VCS commit time when the binary carries one,
// and the process start time otherwise.
func compilationTime() string {
	const layout = "Jan _2 2006, 15:04:05"
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.time" {
				if t, err := time.Parse(time.RFC3339, s.Value); err == nil {
					return t.Format(layout)
				}
			}
		}
	}
	return time.Now().Format(layout)
}

func main() {
	root := newRootCommand()
	root.AddCommand(newCaptureCommand())

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "bleproxy:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	root := &cobra.Command{
		Use:           "bleproxy",
		Short:         "ESPHome native API Bluetooth LE advertisement proxy",
		Long:          strings.TrimSpace(helpDescription),
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			}

			// BLEPROXY_* override the file, flags override both.
			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := cfg.Logger()
			logger.Info("configuration", log.Any("config", cfg))

			return serve(cmd.Context(), cfg, cfgFile, changed, logger)
		},
	}

	f := root.Flags()
	f.StringVar(&cfgPath, "config", "", "path to config file, TOML or YAML (default: $HOME/.bleproxy/config.toml)")

	f.StringVar(&cfg.Name, "name", cfg.Name, "device name reported to clients")
	f.StringVar(&cfg.MACAddress, "mac-address", cfg.MACAddress, "device MAC address, AA:BB:CC:DD:EE:FF")
	f.StringVar(&cfg.Version, "esphome-version", cfg.Version, "ESPHome version reported in device info")
	f.StringVar(&cfg.Model, "model", cfg.Model, "model reported in device info")
	f.StringVar(&cfg.Manufacturer, "manufacturer", cfg.Manufacturer, "manufacturer reported in device info")
	f.StringVar(&cfg.FriendlyName, "friendly-name", cfg.FriendlyName, "friendly name (defaults to name)")
	f.StringVar(&cfg.SuggestedArea, "area", cfg.SuggestedArea, "suggested area")

	f.StringVar(&cfg.Listen, "listen", cfg.Listen, "TCP listen address")
	f.IntVar(&cfg.MaxSessions, "max-sessions", cfg.MaxSessions, "maximum concurrent client sessions")
	f.DurationVar(&cfg.FlushInterval, "flush-interval", cfg.FlushInterval, "maximum age of a partial advertisement batch")

	f.BoolVar(&cfg.MDNS, "mdns", cfg.MDNS, "announce the proxy over mDNS")
	f.BoolVar(&cfg.Scan, "scan", cfg.Scan, "scan with the local HCI controller")
	f.IntVar(&cfg.HCIDevice, "hci-device", cfg.HCIDevice, "HCI controller index used by --scan")
	f.StringVar(&cfg.CaptureFile, "capture-file", cfg.CaptureFile, "append every frame to this CBOR capture file")
	f.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")

	return root
}

func serve(parent context.Context, cfg cliconfig.Config, cfgFile string, changed map[string]bool, logger log.Logger) error {
	built := compilationTime()
	device, err := cfg.Descriptor(built)
	if err != nil {
		return err
	}

	opts := []bleproxy.Option{bleproxy.WithLogger(logger)}

	if cfg.CaptureFile != "" {
		tap, err := capture.NewFileTap(cfg.CaptureFile, logger)
		if err != nil {
			return fmt.Errorf("open capture file: %w", err)
		}
		defer func() { _ = tap.Close() }()
		opts = append(opts, bleproxy.WithFrameTap(tap))
	}
	if cfg.MDNS {
		opts = append(opts, discovery.WithDefaultDiscovery())
	}
	if cfg.Scan {
		scanCfg := blescan.DefaultConfig()
		scanCfg.DeviceID = cfg.HCIDevice
		opts = append(opts, blescan.WithScanner(scanCfg))
	}
	if cliconfig.FileExists(cfgFile) {
		watchCfg := configwatcher.DefaultConfig()
		watchCfg.Path = cfgFile
		watchCfg.Load = func(path string) (bleproxy.Device, error) {
			next, err := cliconfig.Reload(path, cfg, changed)
			if err != nil {
				return bleproxy.Device{}, err
			}
			if err := cliconfig.ApplyEnvConfig(&next, changed); err != nil {
				return bleproxy.Device{}, err
			}
			if err := next.Validate(); err != nil {
				return bleproxy.Device{}, err
			}
			return next.Descriptor(built)
		}
		opts = append(opts, configwatcher.WithConfigWatcher(watchCfg))
	}

	p, err := bleproxy.New(bleproxy.Config{
		Listen:        cfg.Listen,
		MaxSessions:   cfg.MaxSessions,
		FlushInterval: cfg.FlushInterval,
		Device:        device,
	}, opts...)
	if err != nil {
		return fmt.Errorf("create proxy: %w", err)
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := p.Start(ctx); err != nil {
		return fmt.Errorf("start proxy: %w", err)
	}
	logger.Info("proxy listening", log.String("addr", p.Addr().String()))

	// Wait for a signal or a crash of the server goroutine.
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for running := true; running; {
		select {
		case <-ctx.Done():
			logger.Info("received signal, stopping...")
			running = false
		case <-ticker.C:
			if p.Status() == bleproxy.StateCrashed {
				return errors.New("proxy crashed")
			}
		}
	}

	if err := p.Stop(); err != nil {
		return fmt.Errorf("stop proxy: %w", err)
	}
	return nil
}

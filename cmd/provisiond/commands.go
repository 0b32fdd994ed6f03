package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/provkit/provisiond/internal/announce"
	"github.com/provkit/provisiond/internal/config"
	"github.com/provkit/provisiond/internal/connmgr"
	"github.com/provkit/provisiond/internal/display"
	"github.com/provkit/provisiond/internal/logging"
	"github.com/provkit/provisiond/internal/radio"
	"github.com/provkit/provisiond/internal/resetbutton"
	"github.com/provkit/provisiond/internal/server"
	"github.com/provkit/provisiond/internal/store"
)

// Serve command and flags
var (
	configPath string
	listenAddr string
	storePath  string
	ifaceName  string
	logLevel   string
	instance   string
	simulate   bool
	noPanel    bool
	noAnnounce bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the provisioning agent",
	Long: `Run the provisioning agent.

On startup the agent tries any stored credentials. When none exist, or
the join fails after the retry budget, it raises the setup access
point and waits for credentials on the HTTP endpoint.

By default the radio is driven through wpa_cli on the configured
interface. Use --simulate to run against an in-memory radio for
development; the simulated neighborhood comes from the config file's
radio.networks table.`,
	Example: `  # Run with the system config file
  provisiond serve

  # Run against a simulated radio on a development machine
  provisiond serve --config ./dev.yaml --listen 127.0.0.1:8080 --simulate

  # Run headless (log-only status output) with verbose logging
  provisiond serve --no-panel --log-level debug`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&configPath, "config", config.DefaultPath, "Path to the agent config file")
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "Provisioning HTTP listen address (overrides config)")
	serveCmd.Flags().StringVar(&storePath, "store", "", "Credential store path (overrides config)")
	serveCmd.Flags().StringVar(&ifaceName, "interface", "", "Wireless interface for wpa_cli (overrides config)")
	serveCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	serveCmd.Flags().StringVar(&instance, "instance", "", "mDNS instance name (defaults to hostname)")
	serveCmd.Flags().BoolVar(&simulate, "simulate", false, "Use the in-memory radio driver")
	serveCmd.Flags().BoolVar(&noPanel, "no-panel", false, "Disable the status panel, log status lines instead")
	serveCmd.Flags().BoolVar(&noAnnounce, "no-announce", false, "Do not advertise the endpoint over mDNS")
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := logging.Initialize(logLevel); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logging.Sync()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if listenAddr != "" {
		cfg.Listen = listenAddr
	}
	if storePath != "" {
		cfg.StorePath = storePath
	}
	if ifaceName != "" {
		cfg.Radio.Interface = ifaceName
	}
	if instance != "" {
		cfg.Instance = instance
	}
	if simulate {
		cfg.Radio.Simulate = true
	}

	sink := newSink()
	defer sink.Close()

	var driver radio.Driver
	if cfg.Radio.Simulate {
		driver = radio.NewSimulator(cfg.Radio.Networks)
		logging.Info("Using simulated radio",
			zap.Int("networks", len(cfg.Radio.Networks)))
	} else {
		driver = radio.NewWPACLIDriver(cfg.Radio.Interface)
	}

	// One store handle: its mutex serializes the watcher's Clear against
	// the manager's Put on the same path
	credStore := store.NewFileStore(cfg.StorePath)

	manager := connmgr.New(driver, credStore, sink,
		cfg.AccessPoint.SSID, cfg.AccessPoint.Passphrase)
	manager.Bootstrap()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Reset.GPIOPath != "" {
		watcher := resetbutton.NewWatcher(
			&resetbutton.GPIOInput{Path: cfg.Reset.GPIOPath, ActiveLow: cfg.Reset.ActiveLow},
			credStore,
			sink,
			&resetbutton.ExecRestarter{Command: cfg.Reset.RebootCommand},
		)
		go watcher.Run(ctx)
		logging.Info("Reset button watcher running",
			zap.String("gpio", cfg.Reset.GPIOPath))
	}

	srv := server.New(&server.Config{ListenAddr: cfg.Listen}, manager, sink)

	var announcer *announce.Announcer
	if !noAnnounce {
		announcer = announce.NewAnnouncer(instanceName(cfg), listenPort(cfg.Listen), func() string {
			return manager.State().String()
		})
		if err := announcer.Start(); err != nil {
			// Discovery is a convenience; the endpoint still works by IP
			logging.Warn("mDNS announcement failed", zap.Error(err))
			announcer = nil
		}
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if announcer != nil {
			announcer.Shutdown()
		}
		return err
	case <-ctx.Done():
	}

	logging.Info("Shutting down")
	if announcer != nil {
		announcer.Shutdown()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Warn("Server shutdown incomplete", zap.Error(err))
	}

	manager.Wait()
	return nil
}

// newSink builds the status surface. When the panel cannot start the
// agent halts rather than run invisibly; a device without its status
// surface cannot guide the user through setup.
func newSink() display.Sink {
	if noPanel {
		return display.NewLogSink()
	}

	panel, err := display.NewPanel()
	if err != nil {
		if errors.Is(err, display.ErrInit) {
			logging.Error("Status panel initialization failed, halting", zap.Error(err))
			logging.Sync()
			select {}
		}
		logging.Warn("Status panel unavailable, logging status instead", zap.Error(err))
		return display.NewLogSink()
	}
	return panel
}

func instanceName(cfg *config.Config) string {
	if cfg.Instance != "" {
		return cfg.Instance
	}
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "provisiond"
	}
	return host
}

// listenPort extracts the port to advertise from a listen address,
// defaulting to the provisioning port when unspecified.
func listenPort(addr string) int {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return announce.DefaultPort
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port == 0 {
		return announce.DefaultPort
	}
	return port
}

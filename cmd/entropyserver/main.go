// Command entropyserver runs the entropy conditioning-and-dispatch
// pipeline (§2-§5 of the design): one Refiller per configured device
// feeding the shared pool, and a TLS accept loop handing conditioned
// blocks to clients.
//
// Usage:
//
//	entropyserver [-config file] <device_port_name> <ssl_port> <cert_file> <key_file>
//
// Positional arguments, when given, override the corresponding fields
// of -config (or the built-in defaults if -config is omitted).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/cvpoienaru/entropysource/internal/config"
	"github.com/cvpoienaru/entropysource/internal/device"
	"github.com/cvpoienaru/entropysource/internal/digest"
	"github.com/cvpoienaru/entropysource/internal/dispatcher"
	"github.com/cvpoienaru/entropysource/internal/entropypool"
	"github.com/cvpoienaru/entropysource/internal/logging"
	"github.com/cvpoienaru/entropysource/internal/refiller"
	"github.com/cvpoienaru/entropysource/internal/shutdown"
	"github.com/cvpoienaru/entropysource/internal/telemetry"
	"github.com/cvpoienaru/entropysource/internal/tlsstream"
)

func main() {
	configPath := flag.String("config", "", "optional TOML configuration file")
	flag.Parse()

	cfg, err := config.LoadServerConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "entropyserver: load config:", err)
		os.Exit(1)
	}
	if err := applyPositionalArgs(cfg, flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, "entropyserver: args:", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "entropyserver: invalid configuration:", err)
		os.Exit(1)
	}

	log, err := logging.New(&logging.Config{
		Level:     logging.ParseLevelOrDefault(cfg.Logging.Level),
		Format:    logging.ParseFormat(cfg.Logging.Format),
		Output:    cfg.Logging.Output,
		FilePath:  cfg.Logging.FilePath,
		Component: cfg.Logging.Component,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "entropyserver: init logging:", err)
		os.Exit(1)
	}
	defer log.Close()

	if err := run(cfg, log); err != nil {
		log.Error("fatal startup error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.ServerConfig, log *logging.Logger) error {
	hashKind, err := digest.ParseKind(cfg.HashKind)
	if err != nil {
		return fmt.Errorf("hash kind: %w", err)
	}

	pool, err := entropypool.NewPool(cfg.PoolSize, cfg.BlockSize, cfg.Threshold, hashKind)
	if err != nil {
		return fmt.Errorf("allocate pool: %w", err)
	}

	dev, err := openDevice(cfg)
	if err != nil {
		pool.Close()
		return fmt.Errorf("open device: %w", err)
	}

	var store *telemetry.Store
	if cfg.TelemetryPath != "" {
		store, err = telemetry.Open(cfg.TelemetryPath)
		if err != nil {
			log.Warn("telemetry store unavailable", "error", err)
			store = nil
		} else {
			defer store.Close()
		}
	}

	watcher, err := tlsstream.NewCertWatcher(cfg.CertFile, cfg.KeyFile)
	if err != nil {
		dev.Close()
		pool.Close()
		return fmt.Errorf("load TLS certificate: %w", err)
	}
	defer watcher.Close()

	listener, err := tlsstream.NewListener(fmt.Sprintf(":%d", cfg.SSLPort), watcher)
	if err != nil {
		dev.Close()
		pool.Close()
		return fmt.Errorf("listen: %w", err)
	}

	coord := shutdown.New()
	coord.ListenForSignals()
	defer coord.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-coord.Done()
		cancel()
		listener.Close()
	}()

	bundle := entropypool.NewBundle(pool, dev)
	onLost := func(idx int, reason string) {
		if store != nil {
			store.RecordLostBlock(idx, reason)
		}
	}
	rCfg := refiller.Config{
		ReadChunkSize:      cfg.ReadChunkSize,
		DeviceIdleInterval: msDuration(cfg.DeviceIdleIntervalMs, refiller.DefaultConfig().DeviceIdleInterval),
	}
	bank := device.NewBankWithParams(cfg.Health.RepetitionCutoff,
		cfg.Health.AdaptiveProportionWindow, cfg.Health.AdaptiveProportionCutoff,
		cfg.Health.ChiSquareWindow, cfg.Health.ChiSquareThreshold)

	crashHandler := logging.NewCrashHandler(&logging.CrashHandlerConfig{
		CrashDir:  cfg.CrashDir,
		Component: "entropyserver",
		OnCrash: func(report logging.CrashReport) {
			if store != nil {
				store.RecordHealthFailure(report.Component, "panic: "+report.PanicValue)
			}
		},
	})

	rf := refiller.NewWithBank(bundle, coord, rCfg, bank, log.WithComponent("refiller"), onLost).
		WithCrashHandler(crashHandler)

	done := make(chan struct{})
	go func() {
		defer close(done)
		rf.Run(ctx)
	}()

	dCfg := dispatcher.Config{
		RequestIdleInterval: msDuration(cfg.RequestIdleIntervalMs, dispatcher.DefaultConfig().RequestIdleInterval),
		GreetingBufferSize:  cfg.GreetingBufferSize,
	}
	disp := dispatcher.New(pool, coord, dCfg, log.WithComponent("dispatcher")).
		WithCrashHandler(crashHandler)

	log.Info("entropy server starting",
		"ssl_port", cfg.SSLPort, "pool_size", cfg.PoolSize, "block_size", cfg.BlockSize,
		"device_kind", cfg.DeviceKind, "device_port_name", cfg.DevicePortName)

	disp.Serve(ctx, listener)

	<-done
	dev.Close()
	pool.Close()
	log.Info("entropy server stopped")
	return nil
}

func openDevice(cfg *config.ServerConfig) (device.Reader, error) {
	switch cfg.DeviceKind {
	case "tpm":
		if !device.Available(cfg.DevicePortName) {
			return nil, fmt.Errorf("no usable TPM device (path %q)", cfg.DevicePortName)
		}
		return device.OpenTPM(cfg.DevicePortName)
	default:
		return device.OpenSerial(cfg.DevicePortName, cfg.DeviceBaud)
	}
}

// applyPositionalArgs overlays the CLI's positional
// <device_port_name> <ssl_port> <cert_file> <key_file> onto cfg,
// matching §6's entropy server invocation. Any argument supplied
// overrides the corresponding config-file/default field; arguments are
// all-or-nothing per position (trailing ones may be omitted).
func applyPositionalArgs(cfg *config.ServerConfig, args []string) error {
	if len(args) > 0 {
		cfg.DevicePortName = args[0]
	}
	if len(args) > 1 {
		port, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("ssl_port: %w", err)
		}
		cfg.SSLPort = port
	}
	if len(args) > 2 {
		cfg.CertFile = args[2]
	}
	if len(args) > 3 {
		cfg.KeyFile = args[3]
	}
	if len(args) > 4 {
		return fmt.Errorf("unexpected extra arguments: %v", args[4:])
	}
	return nil
}

// msDuration converts a millisecond config value to a Duration, using
// fallback when ms is non-positive (the zero value left by a config
// file that doesn't set the field).
func msDuration(ms int, fallback time.Duration) time.Duration {
	if ms <= 0 {
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}

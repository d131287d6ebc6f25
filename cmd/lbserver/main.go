// Command lbserver is the load-balancer front end: a trivial TLS
// responder that accepts a client's arbitrary greeting and replies with
// a fixed (hostname, port, block_count) descriptor pointing at a
// backing entropy server (§6).
//
// Usage:
//
//	lbserver [-config file] <ssl_port> <cert_file> <key_file>
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/cvpoienaru/entropysource/internal/config"
	"github.com/cvpoienaru/entropysource/internal/logging"
	"github.com/cvpoienaru/entropysource/internal/shutdown"
	"github.com/cvpoienaru/entropysource/internal/tlsstream"
	"github.com/cvpoienaru/entropysource/internal/wire"
)

func main() {
	configPath := flag.String("config", "", "optional TOML configuration file")
	flag.Parse()

	cfg, err := config.LoadLoadBalancerConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "lbserver: load config:", err)
		os.Exit(1)
	}
	if err := applyPositionalArgs(cfg, flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, "lbserver: args:", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "lbserver: invalid configuration:", err)
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
		fmt.Fprintln(os.Stderr, "lbserver: init logging:", err)
		os.Exit(1)
	}
	defer log.Close()

	if err := run(cfg, log); err != nil {
		log.Error("fatal startup error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.LoadBalancerConfig, log *logging.Logger) error {
	descriptor := wire.Descriptor{
		Hostname:   cfg.EntropyHostname,
		Port:       int32(cfg.EntropyPort),
		BlockCount: int32(cfg.BlockCount),
	}
	encoded, err := descriptor.Encode()
	if err != nil {
		return fmt.Errorf("encode descriptor: %w", err)
	}

	watcher, err := tlsstream.NewCertWatcher(cfg.CertFile, cfg.KeyFile)
	if err != nil {
		return fmt.Errorf("load TLS certificate: %w", err)
	}
	defer watcher.Close()

	listener, err := tlsstream.NewListener(fmt.Sprintf(":%d", cfg.SSLPort), watcher)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	coord := shutdown.New()
	coord.ListenForSignals()
	defer coord.Close()

	go func() {
		<-coord.Done()
		listener.Close()
	}()

	log.Info("load balancer starting", "ssl_port", cfg.SSLPort,
		"entropy_hostname", cfg.EntropyHostname, "entropy_port", cfg.EntropyPort, "block_count", cfg.BlockCount)

	for coord.Runnable() {
		conn, err := listener.Accept()
		if err != nil {
			if !coord.Runnable() {
				break
			}
			log.Warn("accept failed", "error", err)
			continue
		}

		go serveOne(conn, encoded, log)
	}

	log.Info("load balancer stopped")
	return nil
}

// serveOne reads the client's arbitrary greeting (ignored, per the
// wire protocol) and writes back the fixed descriptor.
func serveOne(conn *tlsstream.Stream, descriptor []byte, log *logging.Logger) {
	defer conn.Close()

	greeting := make([]byte, 512)
	if _, err := conn.Read(greeting); err != nil {
		log.Warn("read greeting failed", "error", err)
		return
	}
	if _, err := conn.Write(descriptor); err != nil {
		log.Warn("write descriptor failed", "error", err)
	}
}

// applyPositionalArgs overlays the CLI's positional
// <ssl_port> <cert_file> <key_file> onto cfg (§6).
func applyPositionalArgs(cfg *config.LoadBalancerConfig, args []string) error {
	if len(args) > 0 {
		port, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("ssl_port: %w", err)
		}
		cfg.SSLPort = port
	}
	if len(args) > 1 {
		cfg.CertFile = args[1]
	}
	if len(args) > 2 {
		cfg.KeyFile = args[2]
	}
	if len(args) > 3 {
		return fmt.Errorf("unexpected extra arguments: %v", args[3:])
	}
	return nil
}

// Command entclient is the entropy-consuming client: it optionally
// seeds the kernel CSPRNG from a local file, asks a load balancer for
// an entropy server descriptor, and feeds the conditioned randomness it
// fetches from that server back into the kernel CSPRNG (§6).
//
// Usage:
//
//	entclient [-config file] <lb_hostname> <lb_port> [<entropy_file>]
//
// entropy_file is optional. When given, its contents are read and
// written to the kernel entropy pool before the load-balancer/entropy-
// server exchange even begins; it is never the destination for the
// bytes the entropy server returns. Both the pre-exchange seed and the
// post-exchange fetched block always go to the same fixed kernel
// entropy pool device (/dev/urandom), matching the original
// implementation's hardcoded es_update_kernel_entropy_pool target.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/cvpoienaru/entropysource/internal/config"
	"github.com/cvpoienaru/entropysource/internal/logging"
	"github.com/cvpoienaru/entropysource/internal/tlsstream"
	"github.com/cvpoienaru/entropysource/internal/wire"
)

// kernelEntropyPool is the fixed destination for every write this client
// makes to the kernel CSPRNG, regardless of where the seed material came
// from. The original implementation hardcodes this same path rather than
// taking it as a parameter.
const kernelEntropyPool = "/dev/urandom"

// entropyFileBufferSize bounds how much of a local seed file is read
// before it's written to the kernel entropy pool.
const entropyFileBufferSize = 2048

// connectionBufferSize bounds a single read from the entropy server,
// matching the load-balanced protocol's one-shot request/response
// shape (no streaming).
const connectionBufferSize = 4096

func main() {
	configPath := flag.String("config", "", "optional TOML configuration file")
	flag.Parse()

	cfg, err := config.LoadClientConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "entclient: load config:", err)
		os.Exit(1)
	}
	if err := applyPositionalArgs(cfg, flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, "entclient: args:", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "entclient: invalid configuration:", err)
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
		fmt.Fprintln(os.Stderr, "entclient: init logging:", err)
		os.Exit(1)
	}
	defer log.Close()

	if err := run(cfg, log); err != nil {
		log.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.ClientConfig, log *logging.Logger) error {
	if cfg.EntropyFile != "" {
		seed, err := readEntropyFile(cfg.EntropyFile)
		if err != nil {
			return fmt.Errorf("read entropy file %s: %w", cfg.EntropyFile, err)
		}
		if err := depositEntropy(seed); err != nil {
			return fmt.Errorf("seed kernel entropy pool: %w", err)
		}
		log.Info("seeded kernel entropy pool from file", "file", cfg.EntropyFile, "bytes", len(seed))
	}

	descriptor, err := fetchDescriptor(cfg, log)
	if err != nil {
		return fmt.Errorf("fetch descriptor from load balancer: %w", err)
	}
	log.Info("received entropy server descriptor",
		"hostname", descriptor.Hostname, "port", descriptor.Port, "block_count", descriptor.BlockCount)

	data, err := fetchEntropy(descriptor, cfg.InsecureSkipVerify, log)
	if err != nil {
		return fmt.Errorf("fetch entropy: %w", err)
	}
	log.Info("received entropy block", "bytes", len(data))

	if err := depositEntropy(data); err != nil {
		return fmt.Errorf("deposit entropy into %s: %w", kernelEntropyPool, err)
	}
	log.Info("deposited entropy", "file", kernelEntropyPool, "bytes", len(data))
	return nil
}

// readEntropyFile reads up to entropyFileBufferSize bytes from path, the
// same way the original client reads its optional seed file argument.
func readEntropyFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, entropyFileBufferSize)
	n, err := f.Read(buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

// fetchDescriptor dials the load balancer, sends an arbitrary greeting,
// and decodes the descriptor it replies with.
func fetchDescriptor(cfg *config.ClientConfig, log *logging.Logger) (wire.Descriptor, error) {
	addr := fmt.Sprintf("%s:%d", cfg.LBHostname, cfg.LBPort)
	conn, err := tlsstream.Dial(addr, cfg.InsecureSkipVerify)
	if err != nil {
		return wire.Descriptor{}, err
	}
	defer conn.Close()

	if _, err := conn.Write([]byte("hello")); err != nil {
		return wire.Descriptor{}, fmt.Errorf("send greeting: %w", err)
	}

	buf := make([]byte, wire.DescriptorSize)
	if _, err := readFull(conn, buf); err != nil {
		return wire.Descriptor{}, fmt.Errorf("read descriptor: %w", err)
	}

	return wire.Decode(buf)
}

// fetchEntropy dials the entropy server named by descriptor, sends an
// arbitrary greeting, and returns whatever it reads back (up to
// connectionBufferSize bytes).
func fetchEntropy(descriptor wire.Descriptor, insecureSkipVerify bool, log *logging.Logger) ([]byte, error) {
	addr := fmt.Sprintf("%s:%d", descriptor.Hostname, descriptor.Port)
	conn, err := tlsstream.Dial(addr, insecureSkipVerify)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if _, err := conn.Write([]byte("hello")); err != nil {
		return nil, fmt.Errorf("send greeting: %w", err)
	}

	buf := make([]byte, connectionBufferSize)
	n, err := conn.Read(buf)
	if err != nil {
		return nil, fmt.Errorf("read entropy: %w", err)
	}
	return buf[:n], nil
}

// depositEntropy writes data to the kernel entropy pool, the same way
// the original client's es_update_kernel_entropy_pool always targets
// /dev/urandom regardless of where the bytes came from.
func depositEntropy(data []byte) error {
	f, err := os.OpenFile(kernelEntropyPool, os.O_WRONLY, 0)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(data)
	return err
}

// readFull reads exactly len(buf) bytes from r, the way the protocol's
// fixed-size descriptor exchange requires (io.ReadFull would do, but
// tlsstream.Stream only promises io.Reader semantics on short reads
// from TCP segmentation, so loop explicitly).
func readFull(r interface{ Read([]byte) (int, error) }, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// applyPositionalArgs overlays the CLI's positional
// <lb_hostname> <lb_port> [<entropy_file>] onto cfg (§6).
func applyPositionalArgs(cfg *config.ClientConfig, args []string) error {
	if len(args) > 0 {
		cfg.LBHostname = args[0]
	}
	if len(args) > 1 {
		port, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("lb_port: %w", err)
		}
		cfg.LBPort = port
	}
	if len(args) > 2 {
		cfg.EntropyFile = args[2]
	}
	if len(args) > 3 {
		return fmt.Errorf("unexpected extra arguments: %v", args[3:])
	}
	return nil
}

package config

import (
	"errors"
	"fmt"

	"github.com/cvpoienaru/entropysource/internal/digest"
)

// These errors mirror the spec's InvalidArgument error kind (§7): fatal
// at initialization, refused before any work starts.
var (
	ErrMissingDevicePortName = errors.New("config: device_port_name is required")
	ErrInvalidDeviceKind     = errors.New("config: device_kind must be \"serial\" or \"tpm\"")
	ErrInvalidSSLPort        = errors.New("config: ssl_port must be in [1, 65535]")
	ErrMissingCertFile       = errors.New("config: cert_file is required")
	ErrMissingKeyFile        = errors.New("config: key_file is required")
	ErrInvalidPoolSize       = errors.New("config: pool_size must be positive")
	ErrInvalidBlockSize      = errors.New("config: block_size must be greater than 1")
	ErrInvalidThreshold      = errors.New("config: threshold must be in [0, 100]")
	ErrInvalidReadChunkSize  = errors.New("config: read_chunk_size must be at least 2")
	ErrMissingEntropyHost    = errors.New("config: entropy_hostname is required")
	ErrInvalidEntropyPort    = errors.New("config: entropy_port must be in [1, 65535]")
	ErrInvalidBlockCount     = errors.New("config: block_count must be positive")
	ErrMissingLBHostname     = errors.New("config: lb_hostname is required")
	ErrInvalidLBPort         = errors.New("config: lb_port must be in [1, 65535]")
)

func validPort(p int) bool { return p >= 1 && p <= 65535 }

// Validate checks a ServerConfig against the invariants the core
// requires before any worker starts (§3's block/pool invariants and
// §7's InvalidArgument kind).
func (c *ServerConfig) Validate() error {
	if c.DevicePortName == "" {
		return ErrMissingDevicePortName
	}
	if c.DeviceKind != "serial" && c.DeviceKind != "tpm" {
		return ErrInvalidDeviceKind
	}
	if !validPort(c.SSLPort) {
		return ErrInvalidSSLPort
	}
	if c.CertFile == "" {
		return ErrMissingCertFile
	}
	if c.KeyFile == "" {
		return ErrMissingKeyFile
	}
	if c.PoolSize <= 0 {
		return ErrInvalidPoolSize
	}
	if c.BlockSize <= 1 {
		return ErrInvalidBlockSize
	}
	if c.Threshold < 0.0 || c.Threshold > 100.0 {
		return ErrInvalidThreshold
	}
	if _, err := digest.ParseKind(c.HashKind); err != nil {
		return fmt.Errorf("config: hash_kind: %w", err)
	}
	if c.ReadChunkSize < 2 {
		return ErrInvalidReadChunkSize
	}
	return nil
}

// Validate checks a LoadBalancerConfig.
func (c *LoadBalancerConfig) Validate() error {
	if !validPort(c.SSLPort) {
		return ErrInvalidSSLPort
	}
	if c.CertFile == "" {
		return ErrMissingCertFile
	}
	if c.KeyFile == "" {
		return ErrMissingKeyFile
	}
	if c.EntropyHostname == "" {
		return ErrMissingEntropyHost
	}
	if !validPort(c.EntropyPort) {
		return ErrInvalidEntropyPort
	}
	if c.BlockCount <= 0 {
		return ErrInvalidBlockCount
	}
	return nil
}

// Validate checks a ClientConfig. LBHostname/LBPort are only required
// once the CLI has had a chance to fill them in from positional
// arguments (see cmd/entclient); Validate is called after that merge.
func (c *ClientConfig) Validate() error {
	if c.LBHostname == "" {
		return ErrMissingLBHostname
	}
	if !validPort(c.LBPort) {
		return ErrInvalidLBPort
	}
	return nil
}

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultServerConfigRequiresDevicePortName(t *testing.T) {
	cfg := DefaultServerConfig()
	cfg.SSLPort = 10105
	cfg.CertFile = "cert.pem"
	cfg.KeyFile = "key.pem"

	if err := cfg.Validate(); err != ErrMissingDevicePortName {
		t.Fatalf("Validate() = %v, want ErrMissingDevicePortName", err)
	}

	cfg.DevicePortName = "/dev/ttyUSB0"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil once device_port_name is set", err)
	}
}

func TestServerConfigRejectsBadThreshold(t *testing.T) {
	cfg := DefaultServerConfig()
	cfg.DevicePortName = "/dev/ttyUSB0"
	cfg.SSLPort = 10105
	cfg.CertFile = "cert.pem"
	cfg.KeyFile = "key.pem"
	cfg.Threshold = 150.0

	if err := cfg.Validate(); err != ErrInvalidThreshold {
		t.Fatalf("Validate() = %v, want ErrInvalidThreshold", err)
	}
}

func TestServerConfigRejectsUnknownHashKind(t *testing.T) {
	cfg := DefaultServerConfig()
	cfg.DevicePortName = "/dev/ttyUSB0"
	cfg.SSLPort = 10105
	cfg.CertFile = "cert.pem"
	cfg.KeyFile = "key.pem"
	cfg.HashKind = "blake3"

	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate() = nil, want an error for an unsupported hash kind")
	}
}

func TestServerConfigRejectsBadDeviceKind(t *testing.T) {
	cfg := DefaultServerConfig()
	cfg.DevicePortName = "/dev/ttyUSB0"
	cfg.SSLPort = 10105
	cfg.CertFile = "cert.pem"
	cfg.KeyFile = "key.pem"
	cfg.DeviceKind = "bluetooth"

	if err := cfg.Validate(); err != ErrInvalidDeviceKind {
		t.Fatalf("Validate() = %v, want ErrInvalidDeviceKind", err)
	}
}

func TestLoadServerConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadServerConfig("")
	if err != nil {
		t.Fatalf("LoadServerConfig(\"\") = %v", err)
	}
	if cfg.PoolSize != DefaultPoolSize {
		t.Fatalf("PoolSize = %d, want default %d", cfg.PoolSize, DefaultPoolSize)
	}
}

func TestLoadServerConfigOverlaysFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "server.toml")
	toml := `
device_port_name = "/dev/ttyUSB1"
device_kind = "serial"
ssl_port = 11000
cert_file = "server.crt"
key_file = "server.key"
pool_size = 4
block_size = 32
threshold = 25.0
hash_kind = "sha512"
read_chunk_size = 8
`
	if err := os.WriteFile(path, []byte(toml), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadServerConfig(path)
	if err != nil {
		t.Fatalf("LoadServerConfig: %v", err)
	}
	if cfg.PoolSize != 4 {
		t.Fatalf("PoolSize = %d, want 4", cfg.PoolSize)
	}
	if cfg.DevicePortName != "/dev/ttyUSB1" {
		t.Fatalf("DevicePortName = %q, want /dev/ttyUSB1", cfg.DevicePortName)
	}
	// Fields absent from the file keep their defaults.
	if cfg.GreetingBufferSize != DefaultGreetingBufferSize {
		t.Fatalf("GreetingBufferSize = %d, want default %d", cfg.GreetingBufferSize, DefaultGreetingBufferSize)
	}
}

func TestLoadBalancerConfigDefaultsMatchScenarioS6(t *testing.T) {
	cfg := DefaultLoadBalancerConfig()
	if cfg.EntropyHostname != "127.0.0.1" {
		t.Fatalf("EntropyHostname = %q, want 127.0.0.1", cfg.EntropyHostname)
	}
	if cfg.EntropyPort != 10105 {
		t.Fatalf("EntropyPort = %d, want 10105", cfg.EntropyPort)
	}
	if cfg.BlockCount != 32 {
		t.Fatalf("BlockCount = %d, want 32", cfg.BlockCount)
	}
}

func TestClientConfigValidateRequiresHostnameAndPort(t *testing.T) {
	cfg := DefaultClientConfig()
	if err := cfg.Validate(); err != ErrMissingLBHostname {
		t.Fatalf("Validate() = %v, want ErrMissingLBHostname", err)
	}
	cfg.LBHostname = "lb.example.internal"
	if err := cfg.Validate(); err != ErrInvalidLBPort {
		t.Fatalf("Validate() = %v, want ErrInvalidLBPort", err)
	}
	cfg.LBPort = 443
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
}

// Package config loads and validates the TOML configuration accepted
// by the entropy server, load balancer, and client binaries, mirroring
// the teacher's config package: a plain struct with toml tags, a
// DefaultConfig constructor per binary, a Load that falls back to
// defaults when no file is present, and a Validate performing the same
// class of checks the core's InvalidArgument error kind covers. CLI
// flags are parsed separately with the standard flag package and
// override file-sourced values field by field (see cmd/).
package config

// HealthConfig tunes the online device health-test bank (§10.3 of the
// design). A zero value for any field means "use that test's built-in
// default" (see internal/device's NewRepetitionCountTest,
// NewAdaptiveProportionTest, NewChiSquareTest).
type HealthConfig struct {
	RepetitionCutoff         int     `toml:"repetition_cutoff"`
	AdaptiveProportionWindow int     `toml:"adaptive_proportion_window"`
	AdaptiveProportionCutoff int     `toml:"adaptive_proportion_cutoff"`
	ChiSquareWindow          int     `toml:"chi_square_window"`
	ChiSquareThreshold       float64 `toml:"chi_square_threshold"`
}

// LoggingConfig configures the shared logging package (internal/logging).
type LoggingConfig struct {
	Level     string `toml:"level"`
	Format    string `toml:"format"`
	Output    string `toml:"output"`
	FilePath  string `toml:"file_path"`
	Component string `toml:"component"`
}

// ServerConfig configures an entropy server process end to end: its
// device source, pool conditioning parameters, TLS material, health
// tests, and telemetry store.
type ServerConfig struct {
	// DevicePortName is the serial device path (device_kind "serial")
	// or, for device_kind "tpm", an optional TPM device path override.
	DevicePortName string `toml:"device_port_name"`
	// DeviceKind selects the DeviceReader implementation: "serial" or
	// "tpm". See internal/device.
	DeviceKind string `toml:"device_kind"`
	// DeviceBaud is the serial baud rate; ignored for device_kind "tpm".
	DeviceBaud int `toml:"device_baud"`

	SSLPort  int    `toml:"ssl_port"`
	CertFile string `toml:"cert_file"`
	KeyFile  string `toml:"key_file"`

	// PoolSize is the number of blocks the pool allocates (C3).
	PoolSize int `toml:"pool_size"`
	// BlockSize is the byte size of each block's content/staging
	// buffers (C2); the final byte of served content is always zero.
	BlockSize int `toml:"block_size"`
	// Threshold is the staging-fill percentage, in [0, 100], that
	// triggers a mix step.
	Threshold float64 `toml:"threshold"`
	// HashKind names the Hasher used by the mix step: "md5", "sha1",
	// "sha256", or "sha512". Defaults to "sha512"; the entropy server
	// passes whichever kind is configured to every block.
	HashKind string `toml:"hash_kind"`

	// ReadChunkSize is how many bytes a Refiller requests from its
	// device per read (C5 step 2a).
	ReadChunkSize int `toml:"read_chunk_size"`
	// DeviceIdleIntervalMs is how long a Refiller sleeps after finding
	// the dirty queue empty before polling again.
	DeviceIdleIntervalMs int `toml:"device_idle_interval_ms"`
	// RequestIdleIntervalMs is how long a Dispatcher sleeps after
	// finding the clean queue empty before polling again.
	RequestIdleIntervalMs int `toml:"request_idle_interval_ms"`
	// GreetingBufferSize is how many bytes are read from a client's
	// arbitrary opening greeting before a block is served.
	GreetingBufferSize int `toml:"greeting_buffer_size"`

	Health HealthConfig `toml:"health"`

	// TelemetryPath is the SQLite database path for operational
	// telemetry (§10.5). Empty disables the telemetry store.
	TelemetryPath string `toml:"telemetry_path"`

	// CrashDir is the directory crash dumps from recovered Refiller and
	// Dispatcher goroutine panics are written to. Empty uses
	// logging.DefaultCrashDir().
	CrashDir string `toml:"crash_dir"`

	Logging LoggingConfig `toml:"logging"`
}

// LoadBalancerConfig configures the load-balancer process: the TLS
// listener it serves descriptors on, and the fixed descriptor it hands
// back to every client.
type LoadBalancerConfig struct {
	SSLPort  int    `toml:"ssl_port"`
	CertFile string `toml:"cert_file"`
	KeyFile  string `toml:"key_file"`

	// EntropyHostname, EntropyPort, and BlockCount are the fixed
	// (hostname, port, block_count) descriptor this load balancer
	// hands back to every client (§6).
	EntropyHostname string `toml:"entropy_hostname"`
	EntropyPort     int    `toml:"entropy_port"`
	BlockCount      int    `toml:"block_count"`

	Logging LoggingConfig `toml:"logging"`
}

// ClientConfig configures the client process.
type ClientConfig struct {
	LBHostname string `toml:"lb_hostname"`
	LBPort     int    `toml:"lb_port"`
	// EntropyFile, if non-empty, names a file whose contents are
	// written to /dev/urandom before the protocol exchange (§6's CLI
	// clause).
	EntropyFile string `toml:"entropy_file"`
	// InsecureSkipVerify disables server certificate verification, for
	// talking to a deployment's self-signed certificate. Production
	// deployments should supply a proper CA pool instead.
	InsecureSkipVerify bool `toml:"insecure_skip_verify"`

	Logging LoggingConfig `toml:"logging"`
}

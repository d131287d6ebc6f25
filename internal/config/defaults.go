package config

// Defaults mirror the spec's illustrative constants: an 8-byte device
// read chunk, one-second idle polling, and the load balancer's worked
// example in scenario S6 (127.0.0.1:10105, 32 blocks advertised).
const (
	DefaultPoolSize              = 16
	DefaultBlockSize             = 64
	DefaultThreshold             = 50.0
	DefaultHashKind              = "sha512"
	DefaultReadChunkSize         = 8
	DefaultDeviceIdleIntervalMs  = 1000
	DefaultRequestIdleIntervalMs = 1000
	DefaultGreetingBufferSize    = 512
	DefaultDeviceBaud            = 9600

	DefaultEntropyHostname = "127.0.0.1"
	DefaultEntropyPort     = 10105
	DefaultBlockCount      = 32
)

// DefaultLoggingConfig returns the logging defaults shared by every
// binary: info level, text format, stderr output.
func DefaultLoggingConfig(component string) LoggingConfig {
	return LoggingConfig{
		Level:     "info",
		Format:    "text",
		Output:    "stderr",
		Component: component,
	}
}

// DefaultHealthConfig returns zero values for every health-test
// parameter, which tells internal/device to fall back to each test's
// own conservative built-in default.
func DefaultHealthConfig() HealthConfig {
	return HealthConfig{}
}

// DefaultServerConfig returns the entropy server's default
// configuration. No device port name is set by default; the CLI
// requires one explicitly (§6).
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		DeviceKind:            "serial",
		DeviceBaud:            DefaultDeviceBaud,
		SSLPort:               0,
		PoolSize:              DefaultPoolSize,
		BlockSize:             DefaultBlockSize,
		Threshold:             DefaultThreshold,
		HashKind:              DefaultHashKind,
		ReadChunkSize:         DefaultReadChunkSize,
		DeviceIdleIntervalMs:  DefaultDeviceIdleIntervalMs,
		RequestIdleIntervalMs: DefaultRequestIdleIntervalMs,
		GreetingBufferSize:    DefaultGreetingBufferSize,
		Health:                DefaultHealthConfig(),
		Logging:               DefaultLoggingConfig("entropyserver"),
	}
}

// DefaultLoadBalancerConfig returns the load balancer's default
// configuration, using scenario S6's worked descriptor as the fixed
// response.
func DefaultLoadBalancerConfig() *LoadBalancerConfig {
	return &LoadBalancerConfig{
		EntropyHostname: DefaultEntropyHostname,
		EntropyPort:     DefaultEntropyPort,
		BlockCount:      DefaultBlockCount,
		Logging:         DefaultLoggingConfig("lbserver"),
	}
}

// DefaultClientConfig returns the client's default configuration.
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		Logging: DefaultLoggingConfig("entclient"),
	}
}

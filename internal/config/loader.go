package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// load decodes the TOML file at path into cfg, which should already
// hold the binary's defaults: BurntSushi/toml only overwrites fields
// present in the file, so an absent or partial file leaves the rest of
// cfg untouched. A missing file is not an error — the defaults are
// used as-is, matching the teacher's Load behavior.
func load(path string, cfg any) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("config: stat %s: %w", path, err)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("config: decode %s: %w", path, err)
	}
	return nil
}

// LoadServerConfig builds a ServerConfig from defaults, then overlays
// the TOML file at path if one is given and exists. The result is not
// validated here: the CLI's positional arguments (device_port_name,
// ssl_port, cert_file, key_file) are layered on top of this afterward
// (see cmd/entropyserver), and Validate is meant to run once that merge
// is complete.
func LoadServerConfig(path string) (*ServerConfig, error) {
	cfg := DefaultServerConfig()
	if err := load(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadLoadBalancerConfig builds a LoadBalancerConfig from defaults and
// overlays path if given. As with LoadServerConfig, validation is
// deferred until after the CLI's positional arguments are merged (see
// cmd/lbserver).
func LoadLoadBalancerConfig(path string) (*LoadBalancerConfig, error) {
	cfg := DefaultLoadBalancerConfig()
	if err := load(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadClientConfig builds a ClientConfig from defaults and overlays
// path if given. As with the server and load balancer, the result is not
// validated here: the client's lb_hostname/lb_port are positional CLI
// arguments layered on top after this call (see cmd/entclient), and
// Validate is meant to run once that merge is complete.
func LoadClientConfig(path string) (*ClientConfig, error) {
	cfg := DefaultClientConfig()
	if err := load(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

package entropypool

import "github.com/cvpoienaru/entropysource/internal/device"

// Bundle pairs a shared Pool with one exclusively-owned DeviceReader. A
// Refiller worker owns exactly one Bundle: the pool by reference (shared
// with every other Refiller and the Dispatcher accept loop), the device
// reader exclusively.
type Bundle struct {
	Pool   *Pool
	Device device.Reader
}

// NewBundle pairs pool and dev into a Bundle for a single Refiller.
func NewBundle(pool *Pool, dev device.Reader) *Bundle {
	return &Bundle{Pool: pool, Device: dev}
}

// Package refiller implements the per-device worker that drains dirty
// block indices, reads from its device, and mixes fresh bytes into the
// indexed block until it is clean.
package refiller

import (
	"context"
	"time"

	"github.com/cvpoienaru/entropysource/internal/device"
	"github.com/cvpoienaru/entropysource/internal/entropypool"
	"github.com/cvpoienaru/entropysource/internal/logging"
	"github.com/cvpoienaru/entropysource/internal/shutdown"
)

// Config tunes a Refiller's read chunking and idle polling.
type Config struct {
	// ReadChunkSize is the number of bytes requested from the device per
	// read, e.g. the spec's small illustrative default of 8.
	ReadChunkSize int
	// DeviceIdleInterval is how long a Refiller sleeps after finding the
	// dirty queue empty before polling again.
	DeviceIdleInterval time.Duration
}

// DefaultConfig returns the spec's suggested defaults: an 8-byte read
// chunk and a one-second idle poll.
func DefaultConfig() Config {
	return Config{
		ReadChunkSize:      8,
		DeviceIdleInterval: time.Second,
	}
}

// Lost is called once per block permanently dropped from circulation,
// so the caller can log and record telemetry. reason is a short,
// human-readable cause ("device read failed: ...", "health test failed:
// <test name>", "mix failed: ...").
type Lost func(idx int, reason string)

// Refiller owns one EntropyBundle (a shared pool plus an exclusively
// owned device reader) and runs its refill loop until the shutdown
// coordinator's runnable flag clears.
type Refiller struct {
	bundle *entropypool.Bundle
	coord  *shutdown.Coordinator
	health *device.Bank
	cfg    Config
	log    *logging.Logger
	onLost Lost
	crash  *logging.CrashHandler
}

// New returns a Refiller for bundle, using cfg for chunking/polling and
// log for per-iteration diagnostics, and the health-test bank's default
// parameters (see NewWithBank to configure them). onLost may be nil.
func New(bundle *entropypool.Bundle, coord *shutdown.Coordinator, cfg Config, log *logging.Logger, onLost Lost) *Refiller {
	return NewWithBank(bundle, coord, cfg, device.NewBank(), log, onLost)
}

// NewWithBank is New but takes an explicitly configured health-test
// bank, for callers that tune the bank's window sizes and thresholds
// (§10.3) rather than accepting its conservative defaults.
func NewWithBank(bundle *entropypool.Bundle, coord *shutdown.Coordinator, cfg Config, bank *device.Bank, log *logging.Logger, onLost Lost) *Refiller {
	return &Refiller{
		bundle: bundle,
		coord:  coord,
		health: bank,
		cfg:    cfg,
		log:    log,
		onLost: onLost,
	}
}

// WithCrashHandler attaches a crash handler so that a panic in the
// device read/mix loop is recorded as a crash dump instead of taking
// down the whole process. It returns r for chaining.
func (r *Refiller) WithCrashHandler(h *logging.CrashHandler) *Refiller {
	r.crash = h
	return r
}

// Run executes the refill loop until the coordinator's runnable flag
// clears or ctx is cancelled. It returns when the loop exits; callers
// typically run it in its own goroutine, one per device.
func (r *Refiller) Run(ctx context.Context) {
	if r.crash != nil {
		defer r.crash.RecoverGoroutine()
	}

	for r.coord.Runnable() {
		idx, ok := r.bundle.Pool.TakeDirty()
		if !ok {
			if !sleepOrDone(ctx, r.cfg.DeviceIdleInterval) {
				return
			}
			continue
		}

		r.refillOne(ctx, idx)

		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

// refillOne drives a single dirty block to clean (or drops it), mirroring
// the mix loop in §4.4: keep reading and updating while the block stays
// DIRTY, bail out to Drop on the first device, health, or mix failure.
func (r *Refiller) refillOne(ctx context.Context, idx int) {
	block := r.bundle.Pool.Block(idx)

	for block.State() == entropypool.StateDirty {
		select {
		case <-ctx.Done():
			return
		default:
		}

		data, err := r.bundle.Device.Read(ctx, r.cfg.ReadChunkSize)
		if err != nil {
			r.drop(idx, "device read failed: "+err.Error())
			return
		}

		r.health.Feed(data[:len(data)-1])
		if name, failed := r.health.Failed(); failed {
			r.drop(idx, "health test failed: "+name)
			return
		}

		if err := block.Update(data); err != nil {
			r.drop(idx, "mix failed: "+err.Error())
			return
		}
	}

	r.bundle.Pool.ReturnClean(idx)
	if r.log != nil {
		r.log.Debug("block refilled", "index", idx)
	}
}

func (r *Refiller) drop(idx int, reason string) {
	r.bundle.Pool.Drop(idx)
	if r.log != nil {
		r.log.Warn("block lost", "index", idx, "reason", reason)
	}
	if r.onLost != nil {
		r.onLost(idx, reason)
	}
}

// sleepOrDone sleeps for d, returning false early if ctx is cancelled
// during the sleep (the caller should exit its loop in that case).
func sleepOrDone(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

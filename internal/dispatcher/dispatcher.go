// Package dispatcher implements the per-request worker that waits for a
// clean block, extracts its content, returns the index to the dirty
// queue, and writes the content over a secure stream — plus the TLS
// accept loop that spawns one dispatch per incoming client connection.
package dispatcher

import (
	"context"
	"time"

	"github.com/cvpoienaru/entropysource/internal/entropypool"
	"github.com/cvpoienaru/entropysource/internal/logging"
	"github.com/cvpoienaru/entropysource/internal/shutdown"
	"github.com/cvpoienaru/entropysource/internal/tlsstream"
)

// Config tunes a Dispatcher's idle polling.
type Config struct {
	// RequestIdleInterval is how long a Dispatcher sleeps after finding
	// the clean queue empty before polling again.
	RequestIdleInterval time.Duration
	// GreetingBufferSize is how many bytes are read from the client's
	// arbitrary opening greeting before a block is served.
	GreetingBufferSize int
}

// DefaultConfig returns the spec's suggested one-second idle poll and a
// generous greeting buffer.
func DefaultConfig() Config {
	return Config{
		RequestIdleInterval: time.Second,
		GreetingBufferSize:  512,
	}
}

// streamReadWriter is the subset of *tlsstream.Stream a Dispatcher uses;
// narrowed to an interface so tests can substitute an in-memory pipe.
type streamReadWriter interface {
	Read([]byte) (int, error)
	Write([]byte) (int, error)
}

// Dispatcher serves conditioned entropy blocks to clients out of a
// shared pool. One Dispatcher instance is shared by every accepted
// connection; Dispatch is called once per connection, in its own
// goroutine.
type Dispatcher struct {
	pool  *entropypool.Pool
	coord *shutdown.Coordinator
	cfg   Config
	log   *logging.Logger
	crash *logging.CrashHandler
}

// New returns a Dispatcher over pool, polling at cfg's idle interval and
// stopping once coord's runnable flag clears.
func New(pool *entropypool.Pool, coord *shutdown.Coordinator, cfg Config, log *logging.Logger) *Dispatcher {
	return &Dispatcher{pool: pool, coord: coord, cfg: cfg, log: log}
}

// WithCrashHandler attaches a crash handler so that a panic in a
// per-connection dispatch goroutine is recorded as a crash dump instead
// of taking down the whole server. It returns d for chaining.
func (d *Dispatcher) WithCrashHandler(h *logging.CrashHandler) *Dispatcher {
	d.crash = h
	return d
}

// Dispatch reads the client's opening greeting (its content is ignored,
// per the wire protocol's "arbitrary greeting" contract), waits for a
// clean block, extracts it, and writes the conditioned content back.
func (d *Dispatcher) Dispatch(ctx context.Context, stream streamReadWriter) error {
	greeting := make([]byte, d.cfg.GreetingBufferSize)
	if _, err := stream.Read(greeting); err != nil {
		return err
	}

	idx, err := d.waitForClean(ctx)
	if err != nil {
		return err
	}

	block := d.pool.Block(idx)
	out := make([]byte, block.Size())
	if err := block.Extract(out); err != nil {
		d.pool.Drop(idx)
		return err
	}
	// Extraction succeeded: per §4.7, the block only returns to the
	// dirty queue because extraction succeeded, independent of whether
	// the subsequent write succeeds.
	d.pool.ReturnDirty(idx)

	if _, err := stream.Write(out); err != nil {
		if d.log != nil {
			d.log.Warn("client write failed", "index", idx, "error", err)
		}
		return err
	}

	if d.log != nil {
		d.log.Debug("dispatched block", "index", idx)
	}
	return nil
}

// waitForClean polls TakeClean until it succeeds, the coordinator's
// runnable flag clears, or ctx is cancelled.
func (d *Dispatcher) waitForClean(ctx context.Context) (int, error) {
	for {
		if !d.coord.Runnable() {
			return 0, context.Canceled
		}
		if idx, ok := d.pool.TakeClean(); ok {
			return idx, nil
		}

		t := time.NewTimer(d.cfg.RequestIdleInterval)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return 0, ctx.Err()
		}
	}
}

// Serve runs the accept loop: accept, spawn a Dispatch goroutine, repeat
// until the coordinator's runnable flag clears. Each connection is
// closed after its single request/response exchange, matching the
// per-request connection lifecycle in §6.
func (d *Dispatcher) Serve(ctx context.Context, listener *tlsstream.Listener) {
	for d.coord.Runnable() {
		conn, err := listener.Accept()
		if err != nil {
			if !d.coord.Runnable() {
				return
			}
			if d.log != nil {
				d.log.Warn("accept failed", "error", err)
			}
			continue
		}

		go func() {
			defer conn.Close()
			if d.crash != nil {
				defer d.crash.RecoverGoroutine()
			}
			if err := d.Dispatch(ctx, conn); err != nil && d.log != nil {
				d.log.Warn("dispatch failed", "error", err)
			}
		}()
	}
}

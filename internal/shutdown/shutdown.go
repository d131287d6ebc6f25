// Package shutdown implements the process-wide runnable flag workers
// poll cooperatively, and the signal handler that clears it. This
// replaces the original design's signal handler reaching into a global
// bundle array directly: the handler here only ever touches the flag.
package shutdown

import (
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
)

// Coordinator holds the process-wide runnable flag. Workers call
// Runnable() at the top of every outer loop iteration; nothing else in
// this package touches worker state.
type Coordinator struct {
	runnable atomic.Bool
	sigCh    chan os.Signal
	done     chan struct{}

	stopOnce sync.Once
	stopped  chan struct{}
}

// New returns a Coordinator with the flag set true.
func New() *Coordinator {
	c := &Coordinator{
		sigCh:   make(chan os.Signal, 1),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	c.runnable.Store(true)
	return c
}

// Runnable reports whether workers should continue running.
func (c *Coordinator) Runnable() bool {
	return c.runnable.Load()
}

// Done returns a channel that closes the first time the runnable flag
// clears, whether from a signal or a direct Stop call. Callers that
// need to interrupt a blocking operation (e.g. derive a cancellable
// context for an accept loop) select on this instead of polling
// Runnable.
func (c *Coordinator) Done() <-chan struct{} {
	return c.stopped
}

// Stop clears the runnable flag directly, for callers that want to
// trigger shutdown without a signal (tests, programmatic control).
func (c *Coordinator) Stop() {
	c.runnable.Store(false)
	c.stopOnce.Do(func() { close(c.stopped) })
}

// ListenForSignals installs handlers for SIGINT, SIGTERM, SIGQUIT and
// SIGTSTP that clear the runnable flag. Call Close to stop listening.
func (c *Coordinator) ListenForSignals() {
	signal.Notify(c.sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGTSTP)
	go func() {
		select {
		case <-c.sigCh:
			c.Stop()
		case <-c.done:
		}
	}()
}

// Close stops listening for signals. Safe to call once.
func (c *Coordinator) Close() {
	signal.Stop(c.sigCh)
	close(c.done)
}

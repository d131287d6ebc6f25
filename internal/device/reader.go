// Package device implements the entropy sources a Refiller worker reads
// from: a serial-port device using a sentinel-framed wire protocol, and
// a TPM 2.0 device using its hardware RNG command. Both implement
// Reader, so a Refiller is agnostic to which kind of device it owns.
package device

import "context"

// Reader is an abstract fixed-size entropy byte source. Read requests n
// bytes and returns exactly n: the first n-1 are device material, the
// last is always zero (the wire sentinel convention carried through from
// the pool's content/staging layout). A non-nil error means the read
// failed and the caller should treat the owning block as lost.
type Reader interface {
	// Read returns n freshly read bytes, or an error.
	Read(ctx context.Context, n int) ([]byte, error)
	// Close releases the underlying device handle.
	Close() error
}

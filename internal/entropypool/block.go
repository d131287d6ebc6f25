// Package entropypool implements the conditioned-entropy block pool: the
// fixed-size blocks that accumulate fresh device bytes in a staging
// buffer, periodically mix them into conditioned content, and the pool
// that tracks which blocks are ready (clean) versus awaiting more
// material (dirty).
package entropypool

import (
	"errors"
	"fmt"
	"sync"

	"github.com/cvpoienaru/entropysource/internal/digest"
	"github.com/cvpoienaru/entropysource/internal/security"
)

// State is a block's population membership.
type State int

const (
	StateDirty State = iota
	StateClean
)

func (s State) String() string {
	if s == StateClean {
		return "clean"
	}
	return "dirty"
}

var (
	// ErrInvalidSize is returned when a block is constructed with a
	// size smaller than 2 (one content byte plus the trailing zero).
	ErrInvalidSize = errors.New("entropypool: block size must be greater than 1")
	// ErrInvalidThreshold is returned when threshold is outside [0, 100].
	ErrInvalidThreshold = errors.New("entropypool: threshold must be in [0, 100]")
	// ErrNotClean is returned by Extract when the block is not CLEAN.
	ErrNotClean = errors.New("entropypool: block is not clean")
	// ErrOutputTooSmall is returned by Extract when the destination is
	// smaller than the block size.
	ErrOutputTooSmall = errors.New("entropypool: extract destination too small")
)

// Block is a single fixed-size unit of conditioned entropy. Update and
// Extract hold the block's own lock for their entire duration, so the
// caller never observes a partially-mixed or partially-extracted block.
// The pool's lock is never held across these calls (see pool.go); the
// index-ownership protocol means only one worker ever calls into a
// given block at a time, but the lock is kept anyway so a bug in that
// protocol fails loudly instead of corrupting content silently.
type Block struct {
	mu        sync.Mutex
	size      int
	content   *security.LockedBuffer
	staging   *security.LockedBuffer
	used      int // bytes currently occupied in staging
	state     State
	threshold float64
	hashKind  digest.Kind
}

// NewBlock allocates a DIRTY block of the given size with empty content
// and staging. threshold is the staging-fill percentage, in [0, 100],
// that triggers a mix on Update. hashKind selects the Hasher used by the
// mix step; cmd/entropyserver passes the configured hash_kind (SHA512 by
// default), and any supported kind is accepted here.
//
// A failure to lock the underlying buffers into physical memory (see
// internal/security) is non-fatal and is returned alongside a
// fully-usable block so the caller can log it without aborting startup.
func NewBlock(size int, threshold float64, hashKind digest.Kind) (*Block, error) {
	if size <= 1 {
		return nil, ErrInvalidSize
	}
	if threshold < 0.0 || threshold > 100.0 {
		return nil, ErrInvalidThreshold
	}

	content, lockErr1 := security.NewLockedBuffer(size)
	staging, lockErr2 := security.NewLockedBuffer(size)

	b := &Block{
		size:      size,
		content:   content,
		staging:   staging,
		state:     StateDirty,
		threshold: threshold,
		hashKind:  hashKind,
	}

	if lockErr1 != nil {
		return b, fmt.Errorf("lock content buffer: %w", lockErr1)
	}
	if lockErr2 != nil {
		return b, fmt.Errorf("lock staging buffer: %w", lockErr2)
	}
	return b, nil
}

// Size returns the block's fixed byte size.
func (b *Block) Size() int { return b.size }

// State returns the block's current population membership.
func (b *Block) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Update appends as much of data as fits in the remaining staging
// capacity (size - used - 1, reserving the trailing sentinel byte), then
// mixes if the post-append fill percentage has reached threshold.
//
// Mix step: digest = H2(hashKind, content[:size-1], staging[:used]);
// both buffers are zeroed; the first size-1 digest bytes become the new
// content, content[size-1] stays zero; state becomes CLEAN.
//
// On any hash failure, both buffers are zeroed, state stays DIRTY, and
// the error is returned — identical recovery to a device read failure
// from the caller's point of view (the Refiller drops the block either
// way).
func (b *Block) Update(data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	room := b.size - b.used - 1
	if room < 0 {
		room = 0
	}
	n := len(data)
	if n > room {
		n = room
	}
	copy(b.staging.Bytes()[b.used:b.used+n], data[:n])
	b.used += n

	fillPct := 100.0 * float64(b.used) / float64(b.size)
	if fillPct < b.threshold {
		return nil
	}

	digestBytes, err := digest.H2(b.hashKind, b.content.Bytes()[:b.size-1], b.staging.Bytes()[:b.used])
	if err != nil {
		b.content.Zero()
		b.staging.Zero()
		b.used = 0
		return fmt.Errorf("mix step: %w", err)
	}

	b.content.Zero()
	b.staging.Zero()
	b.used = 0
	copy(b.content.Bytes()[:b.size-1], digestBytes[:b.size-1])
	b.state = StateClean
	return nil
}

// Extract copies content into out (which must be at least Size() bytes
// long), zeroes content and staging, and transitions the block back to
// DIRTY. This is the sole path by which CLEAN becomes DIRTY.
func (b *Block) Extract(out []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != StateClean {
		return ErrNotClean
	}
	if len(out) < b.size {
		return ErrOutputTooSmall
	}

	copy(out[:b.size], b.content.Bytes())
	b.content.Zero()
	b.staging.Zero()
	b.used = 0
	b.state = StateDirty
	return nil
}

// Destroy releases the block's locked buffers. Called once a block is
// permanently dropped from circulation (device or hash failure) or when
// the pool is torn down.
func (b *Block) Destroy() {
	b.content.Destroy()
	b.staging.Destroy()
}

//go:build unix

// Package security provides sensitive-memory handling for entropy block
// content: zeroing on every mix/extract, and best-effort mlock so
// conditioned bytes are not swapped to disk while a block is live.
package security

import (
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"
)

// LockedBuffer is a fixed-size byte buffer backing an EntropyBlock's
// content or staging array. It owns the allocation, the mlock attempt,
// and the wipe-on-destroy; in-place mutation is the caller's
// responsibility (EntropyBlock holds its own lock while mutating).
type LockedBuffer struct {
	data   []byte
	locked bool
}

// NewLockedBuffer allocates a zeroed buffer of the given size and
// attempts to lock it into physical memory. A non-nil error means the
// lock failed (no privilege, platform limit); the buffer is still
// usable without the swap guarantee, and the caller decides whether to
// log it.
func NewLockedBuffer(size int) (*LockedBuffer, error) {
	b := &LockedBuffer{data: make([]byte, size)}
	lockErr := b.lock()
	runtime.SetFinalizer(b, func(lb *LockedBuffer) { lb.Destroy() })
	return b, lockErr
}

// Bytes returns the underlying slice for direct in-place mutation.
func (b *LockedBuffer) Bytes() []byte {
	return b.data
}

// Len returns the buffer's fixed size.
func (b *LockedBuffer) Len() int {
	return len(b.data)
}

// Zero overwrites the buffer with zeros without releasing the mlock.
func (b *LockedBuffer) Zero() {
	Wipe(b.data)
}

// Destroy zeroes the buffer and releases the memory lock, if held.
func (b *LockedBuffer) Destroy() {
	if b.data == nil {
		return
	}
	Wipe(b.data)
	if b.locked {
		b.unlock()
	}
	b.data = nil
}

func (b *LockedBuffer) lock() error {
	if len(b.data) == 0 {
		return nil
	}
	ptr := unsafe.Pointer(&b.data[0])
	size := uintptr(len(b.data))
	if err := unix.Mlock((*[1 << 30]byte)(ptr)[:size:size]); err != nil {
		return err
	}
	b.locked = true
	return nil
}

func (b *LockedBuffer) unlock() {
	if len(b.data) == 0 {
		return
	}
	ptr := unsafe.Pointer(&b.data[0])
	size := uintptr(len(b.data))
	unix.Munlock((*[1 << 30]byte)(ptr)[:size:size])
	b.locked = false
}

// Wipe overwrites data with zeros. The explicit loop plus KeepAlive
// keep the compiler from eliding the writes as dead stores.
func Wipe(data []byte) {
	if len(data) == 0 {
		return
	}
	for i := range data {
		data[i] = 0
	}
	runtime.KeepAlive(data)
}

//go:build !unix

package security

import "runtime"

// LockedBuffer is the non-Unix fallback: allocation and wiping work
// identically, mlock is unavailable so lock/unlock are no-ops.
type LockedBuffer struct {
	data []byte
}

// NewLockedBuffer allocates a zeroed buffer. mlock is not available on
// this platform, so the returned error is always nil and the swap
// guarantee never holds.
func NewLockedBuffer(size int) (*LockedBuffer, error) {
	b := &LockedBuffer{data: make([]byte, size)}
	runtime.SetFinalizer(b, func(lb *LockedBuffer) { lb.Destroy() })
	return b, nil
}

func (b *LockedBuffer) Bytes() []byte { return b.data }
func (b *LockedBuffer) Len() int      { return len(b.data) }
func (b *LockedBuffer) Zero()         { Wipe(b.data) }

func (b *LockedBuffer) Destroy() {
	if b.data == nil {
		return
	}
	Wipe(b.data)
	b.data = nil
}

// Wipe overwrites data with zeros.
func Wipe(data []byte) {
	if len(data) == 0 {
		return
	}
	for i := range data {
		data[i] = 0
	}
	runtime.KeepAlive(data)
}

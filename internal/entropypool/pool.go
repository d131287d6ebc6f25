package entropypool

import (
	"errors"
	"fmt"
	"sync"

	"github.com/cvpoienaru/entropysource/internal/digest"
)

// ErrNoPoolSize is returned when a pool is constructed with a
// non-positive block count.
var ErrNoPoolSize = errors.New("entropypool: pool size must be positive")

// Pool is a bounded collection of blocks plus their dirty/clean
// work-queues. The pool lock guards only queue membership and
// index-ownership transitions; it is never held across a block
// operation or any I/O, which is the invariant that keeps this
// deadlock-free (see §5 of the design).
type Pool struct {
	mu         sync.Mutex
	blocks     []*Block
	dirtyQueue []int
	cleanQueue []int
	lost       []bool
	lostCount  int
}

// NewPool allocates size blocks of blockSize bytes each, all DIRTY, and
// pushes their indices onto the dirty queue in ascending order.
func NewPool(size, blockSize int, threshold float64, hashKind digest.Kind) (*Pool, error) {
	if size <= 0 {
		return nil, ErrNoPoolSize
	}

	p := &Pool{
		blocks:     make([]*Block, size),
		dirtyQueue: make([]int, 0, size),
		lost:       make([]bool, size),
	}

	for i := 0; i < size; i++ {
		b, err := NewBlock(blockSize, threshold, hashKind)
		// A block returned alongside an error only failed to lock its
		// buffers into memory; it is still usable, so keep it.
		if b == nil {
			// Unwind already-allocated blocks before returning.
			for j := 0; j < i; j++ {
				p.blocks[j].Destroy()
			}
			return nil, fmt.Errorf("allocate block %d: %w", i, err)
		}
		p.blocks[i] = b
		p.dirtyQueue = append(p.dirtyQueue, i)
	}

	return p, nil
}

// Size returns the number of blocks the pool was constructed with,
// including any since lost to device or hash failures.
func (p *Pool) Size() int {
	return len(p.blocks)
}

// LostCount returns the number of blocks permanently removed from
// circulation.
func (p *Pool) LostCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lostCount
}

// Block returns the block at idx. The caller must hold ownership of idx
// (via a prior TakeDirty/TakeClean) before calling Update or Extract on
// it.
func (p *Pool) Block(idx int) *Block {
	return p.blocks[idx]
}

// TakeDirty pops the head of the dirty queue. ok is false if the queue
// is empty.
func (p *Pool) TakeDirty() (idx int, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.dirtyQueue) == 0 {
		return 0, false
	}
	idx, p.dirtyQueue = p.dirtyQueue[0], p.dirtyQueue[1:]
	return idx, true
}

// TakeClean pops the head of the clean queue. ok is false if the queue
// is empty.
func (p *Pool) TakeClean() (idx int, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.cleanQueue) == 0 {
		return 0, false
	}
	idx, p.cleanQueue = p.cleanQueue[0], p.cleanQueue[1:]
	return idx, true
}

// ReturnClean pushes idx onto the tail of the clean queue. Precondition
// (trusted, not re-verified under the pool lock): blocks[idx] is CLEAN.
func (p *Pool) ReturnClean(idx int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cleanQueue = append(p.cleanQueue, idx)
}

// ReturnDirty pushes idx onto the tail of the dirty queue. Precondition
// (trusted, not re-verified under the pool lock): blocks[idx] is DIRTY.
func (p *Pool) ReturnDirty(idx int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dirtyQueue = append(p.dirtyQueue, idx)
}

// Drop permanently removes idx from circulation: its buffers are wiped
// and released, and it is never again pushed to a queue. Called after a
// device read, health-test, or mix failure.
func (p *Pool) Drop(idx int) {
	p.blocks[idx].Destroy()

	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.lost[idx] {
		p.lost[idx] = true
		p.lostCount++
	}
}

// Close tears down every remaining block, wiping and releasing its
// buffers. Called once at shutdown after all workers have exited.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, lost := range p.lost {
		if !lost {
			p.blocks[i].Destroy()
		}
	}
}

package entropypool

import (
	"testing"

	"github.com/cvpoienaru/entropysource/internal/digest"
)

func TestNewPoolInitialCondition(t *testing.T) {
	p, err := NewPool(4, 8, 0.0, digest.SHA256)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}

	for i := 0; i < 4; i++ {
		idx, ok := p.TakeDirty()
		if !ok {
			t.Fatalf("expected dirty index %d to be available", i)
		}
		if idx != i {
			t.Fatalf("dirty queue order: got %d, want %d (expected ascending order)", idx, i)
		}
	}
	if _, ok := p.TakeDirty(); ok {
		t.Fatal("expected dirty queue to be empty after draining all indices")
	}
	if _, ok := p.TakeClean(); ok {
		t.Fatal("expected clean queue to start empty")
	}
}

// TestIndexConservation checks property 1 across a take/return cycle.
func TestIndexConservation(t *testing.T) {
	p, err := NewPool(3, 8, 0.0, digest.SHA256)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}

	var inFlight []int
	for i := 0; i < 3; i++ {
		idx, ok := p.TakeDirty()
		if !ok {
			t.Fatalf("expected index %d", i)
		}
		inFlight = append(inFlight, idx)
	}

	for _, idx := range inFlight {
		p.ReturnClean(idx)
	}

	count := 0
	for {
		if _, ok := p.TakeClean(); !ok {
			break
		}
		count++
	}
	if count != 3 {
		t.Fatalf("clean queue drained %d indices, want 3", count)
	}
	if p.LostCount() != 0 {
		t.Fatalf("LostCount() = %d, want 0", p.LostCount())
	}
}

// TestDropRemovesIndexPermanently checks scenario S5: a dropped index is
// never re-queued and LostCount increments.
func TestDropRemovesIndexPermanently(t *testing.T) {
	p, err := NewPool(2, 8, 0.0, digest.SHA256)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}

	idx, _ := p.TakeDirty()
	p.Drop(idx)

	if p.LostCount() != 1 {
		t.Fatalf("LostCount() = %d, want 1", p.LostCount())
	}

	// The remaining index is still obtainable, the dropped one is not
	// re-queued by any operation.
	remaining, ok := p.TakeDirty()
	if !ok {
		t.Fatal("expected the other index to still be available")
	}
	if remaining == idx {
		t.Fatal("dropped index must not be handed out again")
	}
}

func TestNewPoolRejectsNonPositiveSize(t *testing.T) {
	if _, err := NewPool(0, 8, 0, digest.SHA256); err != ErrNoPoolSize {
		t.Fatalf("expected ErrNoPoolSize, got %v", err)
	}
}

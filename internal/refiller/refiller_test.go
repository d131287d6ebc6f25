package refiller

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cvpoienaru/entropysource/internal/digest"
	"github.com/cvpoienaru/entropysource/internal/entropypool"
	"github.com/cvpoienaru/entropysource/internal/shutdown"
)

// fakeDevice returns a fixed sequence of reads, then an error.
type fakeDevice struct {
	reads [][]byte
	pos   int
	err   error
}

func (f *fakeDevice) Read(ctx context.Context, n int) ([]byte, error) {
	if f.pos >= len(f.reads) {
		if f.err != nil {
			return nil, f.err
		}
		return nil, errors.New("fakeDevice: exhausted")
	}
	out := f.reads[f.pos]
	f.pos++
	return out, nil
}

func (f *fakeDevice) Close() error { return nil }

func TestRefillOneMixesUntilClean(t *testing.T) {
	pool, err := entropypool.NewPool(1, 8, 0.0, digest.SHA512)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	dev := &fakeDevice{reads: [][]byte{[]byte("abcdefg\x00")}}
	bundle := entropypool.NewBundle(pool, dev)
	coord := shutdown.New()

	r := New(bundle, coord, DefaultConfig(), nil, nil)
	idx, ok := pool.TakeDirty()
	if !ok {
		t.Fatal("expected a dirty index")
	}

	r.refillOne(context.Background(), idx)

	if pool.Block(idx).State() != entropypool.StateClean {
		t.Fatalf("expected block to be clean after refill, got %v", pool.Block(idx).State())
	}
}

func TestRefillOneDropsOnDeviceError(t *testing.T) {
	pool, err := entropypool.NewPool(1, 8, 0.0, digest.SHA512)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	dev := &fakeDevice{err: errors.New("boom")}
	bundle := entropypool.NewBundle(pool, dev)
	coord := shutdown.New()

	var lostIdx = -1
	r := New(bundle, coord, DefaultConfig(), nil, func(idx int, reason string) { lostIdx = idx })
	idx, _ := pool.TakeDirty()

	r.refillOne(context.Background(), idx)

	if lostIdx != idx {
		t.Fatalf("expected onLost(%d, ...), got lostIdx=%d", idx, lostIdx)
	}
	if pool.LostCount() != 1 {
		t.Fatalf("expected LostCount() == 1, got %d", pool.LostCount())
	}
}

func TestRunStopsOnShutdown(t *testing.T) {
	pool, err := entropypool.NewPool(1, 8, 100.0, digest.SHA512)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	dev := &fakeDevice{err: errors.New("no device configured")}
	bundle := entropypool.NewBundle(pool, dev)
	coord := shutdown.New()

	cfg := DefaultConfig()
	cfg.DeviceIdleInterval = time.Millisecond
	r := New(bundle, coord, cfg, nil, nil)

	done := make(chan struct{})
	go func() {
		r.Run(context.Background())
		close(done)
	}()

	time.Sleep(5 * time.Millisecond)
	coord.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not exit after Stop")
	}
}

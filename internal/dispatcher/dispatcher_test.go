package dispatcher

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/cvpoienaru/entropysource/internal/digest"
	"github.com/cvpoienaru/entropysource/internal/entropypool"
	"github.com/cvpoienaru/entropysource/internal/shutdown"
)

// fakeStream is an in-memory streamReadWriter: it returns fixed bytes
// for Read and records what's written.
type fakeStream struct {
	readData  []byte
	written   []byte
}

func (f *fakeStream) Read(buf []byte) (int, error) {
	n := copy(buf, f.readData)
	return n, nil
}

func (f *fakeStream) Write(buf []byte) (int, error) {
	f.written = append(f.written, buf...)
	return len(buf), nil
}

func TestDispatchServesCleanBlock(t *testing.T) {
	pool, err := entropypool.NewPool(1, 8, 0.0, digest.SHA512)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	idx, _ := pool.TakeDirty()
	block := pool.Block(idx)
	if err := block.Update([]byte("abcdefg\x00")); err != nil {
		t.Fatalf("Update: %v", err)
	}
	pool.ReturnClean(idx)

	coord := shutdown.New()
	cfg := DefaultConfig()
	cfg.RequestIdleInterval = time.Millisecond
	d := New(pool, coord, cfg, nil)

	stream := &fakeStream{readData: []byte("Hello")}
	if err := d.Dispatch(context.Background(), stream); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	if len(stream.written) != 8 {
		t.Fatalf("written length = %d, want 8", len(stream.written))
	}
	if stream.written[7] != 0 {
		t.Fatalf("expected trailing zero byte, got %x", stream.written[7])
	}
	if bytes.Equal(stream.written, make([]byte, 8)) {
		t.Fatal("expected non-zero conditioned content")
	}

	if pool.Block(idx).State() != entropypool.StateDirty {
		t.Fatal("expected block to return to dirty after extraction")
	}
}

func TestDispatchStopsWhenNotRunnable(t *testing.T) {
	pool, err := entropypool.NewPool(1, 8, 0.0, digest.SHA512)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	coord := shutdown.New()
	coord.Stop()

	cfg := DefaultConfig()
	cfg.RequestIdleInterval = time.Millisecond
	d := New(pool, coord, cfg, nil)

	stream := &fakeStream{readData: []byte("Hello")}
	if err := d.Dispatch(context.Background(), stream); err == nil {
		t.Fatal("expected Dispatch to return an error when not runnable")
	}
}

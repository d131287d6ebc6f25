package entropypool

import (
	"bytes"
	"testing"

	"github.com/cvpoienaru/entropysource/internal/digest"
)

// TestS1SingleBlockThresholdZero reproduces scenario S1: pool size 1,
// block size 8, threshold 0, SHA-512, one 8-byte device read.
func TestS1SingleBlockThresholdZero(t *testing.T) {
	b, err := NewBlock(8, 0.0, digest.SHA512)
	if err != nil {
		t.Fatalf("NewBlock: %v", err)
	}

	data := []byte{0x61, 0x62, 0x63, 0x64, 0x65, 0x66, 0x67, 0x00}
	if err := b.Update(data); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if b.State() != StateClean {
		t.Fatalf("state = %v, want clean", b.State())
	}

	zeros := make([]byte, 7)
	want, err := digest.H2(digest.SHA512, zeros, []byte("abcdefg"))
	if err != nil {
		t.Fatalf("H2: %v", err)
	}

	out := make([]byte, 8)
	if err := b.Extract(out); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !bytes.Equal(out[:7], want[:7]) {
		t.Fatalf("content = %x, want %x", out[:7], want[:7])
	}
	if out[7] != 0 {
		t.Fatalf("out[7] = %x, want 0", out[7])
	}
}

// TestS2ThresholdFiftyTwoPartialReads reproduces scenario S2: pool size
// 1, block size 16, threshold 50, two 4-byte reads.
func TestS2ThresholdFiftyTwoPartialReads(t *testing.T) {
	b, err := NewBlock(16, 50.0, digest.SHA512)
	if err != nil {
		t.Fatalf("NewBlock: %v", err)
	}

	if err := b.Update([]byte("AAAA")); err != nil {
		t.Fatalf("Update 1: %v", err)
	}
	if b.State() != StateDirty {
		t.Fatalf("after first update, state = %v, want dirty", b.State())
	}

	if err := b.Update([]byte("BBBB")); err != nil {
		t.Fatalf("Update 2: %v", err)
	}
	if b.State() != StateClean {
		t.Fatalf("after second update, state = %v, want clean", b.State())
	}
}

// TestThresholdLaw checks property 4: update(data) triggers a mix iff
// post-append fill_pct >= threshold.
func TestThresholdLaw(t *testing.T) {
	b, err := NewBlock(10, 30.0, digest.SHA256)
	if err != nil {
		t.Fatalf("NewBlock: %v", err)
	}

	// 2/10 = 20% < 30%: no mix.
	if err := b.Update([]byte("AB")); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if b.State() != StateDirty {
		t.Fatal("expected no mix below threshold")
	}

	// cumulative 4/10 = 40% >= 30%: mix fires.
	if err := b.Update([]byte("CD")); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if b.State() != StateClean {
		t.Fatal("expected mix at or above threshold")
	}
}

// TestZeroAfterExtract checks property 3: after Extract, content reads
// as all-zero until the next Update.
func TestZeroAfterExtract(t *testing.T) {
	b, err := NewBlock(8, 0.0, digest.SHA512)
	if err != nil {
		t.Fatalf("NewBlock: %v", err)
	}
	if err := b.Update([]byte("abcdefg\x00")); err != nil {
		t.Fatalf("Update: %v", err)
	}

	out := make([]byte, 8)
	if err := b.Extract(out); err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if !bytes.Equal(b.content.Bytes(), make([]byte, 8)) {
		t.Fatal("content not zeroed after extract")
	}
	if !bytes.Equal(b.staging.Bytes(), make([]byte, 8)) {
		t.Fatal("staging not zeroed after extract")
	}
	if b.state != StateDirty {
		t.Fatal("expected dirty after extract")
	}
}

func TestExtractRequiresClean(t *testing.T) {
	b, err := NewBlock(8, 50.0, digest.SHA256)
	if err != nil {
		t.Fatalf("NewBlock: %v", err)
	}
	out := make([]byte, 8)
	if err := b.Extract(out); err != ErrNotClean {
		t.Fatalf("Extract error = %v, want ErrNotClean", err)
	}
}

func TestNewBlockRejectsInvalidArguments(t *testing.T) {
	if _, err := NewBlock(0, 0, digest.SHA256); err != ErrInvalidSize {
		t.Fatalf("expected ErrInvalidSize, got %v", err)
	}
	if _, err := NewBlock(8, 150, digest.SHA256); err != ErrInvalidThreshold {
		t.Fatalf("expected ErrInvalidThreshold, got %v", err)
	}
}

package digest

import (
	"bytes"
	"testing"
)

func TestH1RejectsEmpty(t *testing.T) {
	if _, err := H1(SHA256, nil); err != ErrEmptyInput {
		t.Fatalf("H1(nil) error = %v, want ErrEmptyInput", err)
	}
}

func TestH2RejectsEmpty(t *testing.T) {
	if _, err := H2(SHA256, []byte("a"), nil); err != ErrEmptyInput {
		t.Fatalf("H2 error = %v, want ErrEmptyInput", err)
	}
}

func TestH2UnsupportedKind(t *testing.T) {
	if _, err := H2(Kind(99), []byte("a"), []byte("b")); err == nil {
		t.Fatal("expected error for unsupported kind")
	}
}

// TestH2EqualLengthSymmetry checks property 5 from the testable
// properties list: H2(k, a, b) with |a| = |b| equals H1(k, a XOR b).
func TestH2EqualLengthSymmetry(t *testing.T) {
	a := []byte("abcdefgh")
	b := []byte("12345678")

	xored := make([]byte, len(a))
	for i := range a {
		xored[i] = a[i] ^ b[i]
	}

	want, err := H1(SHA512, xored)
	if err != nil {
		t.Fatalf("H1: %v", err)
	}
	got, err := H2(SHA512, a, b)
	if err != nil {
		t.Fatalf("H2: %v", err)
	}
	if !bytes.Equal(want, got) {
		t.Fatalf("H2 != H1(a XOR b): got %x, want %x", got, want)
	}
}

func TestH2UnevenLengthTakesTailOfLonger(t *testing.T) {
	a := []byte("abcdefgh") // longer
	b := []byte("123")      // shorter

	want := make([]byte, len(a))
	copy(want, a)
	for i := range b {
		want[i] ^= b[i]
	}
	wantDigest, err := H1(SHA256, want)
	if err != nil {
		t.Fatalf("H1: %v", err)
	}

	got, err := H2(SHA256, a, b)
	if err != nil {
		t.Fatalf("H2: %v", err)
	}
	if !bytes.Equal(wantDigest, got) {
		t.Fatalf("H2 mismatch: got %x, want %x", got, wantDigest)
	}

	// order shouldn't matter: combine always puts the longer first.
	got2, err := H2(SHA256, b, a)
	if err != nil {
		t.Fatalf("H2: %v", err)
	}
	if !bytes.Equal(got, got2) {
		t.Fatalf("H2(a,b) != H2(b,a): %x vs %x", got, got2)
	}
}

func TestSize(t *testing.T) {
	cases := map[Kind]int{
		MD5:    16,
		SHA1:   20,
		SHA256: 32,
		SHA512: 64,
	}
	for kind, want := range cases {
		got, err := Size(kind)
		if err != nil {
			t.Fatalf("Size(%v): %v", kind, err)
		}
		if got != want {
			t.Errorf("Size(%v) = %d, want %d", kind, got, want)
		}
	}
}

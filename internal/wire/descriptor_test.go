package wire

import "testing"

func TestEncodeDecodeRoundTrip(t *testing.T) {
	d := Descriptor{Hostname: "127.0.0.1", Port: 10105, BlockCount: 32}

	buf, err := d.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(buf) != DescriptorSize {
		t.Fatalf("encoded length = %d, want %d", len(buf), DescriptorSize)
	}

	got, err := Decode(buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got != d {
		t.Fatalf("round-trip mismatch: got %+v, want %+v", got, d)
	}
}

func TestEncodeRejectsLongHostname(t *testing.T) {
	long := make([]byte, HostnameSize)
	for i := range long {
		long[i] = 'a'
	}
	d := Descriptor{Hostname: string(long)}
	if _, err := d.Encode(); err != ErrHostnameTooLong {
		t.Fatalf("Encode error = %v, want ErrHostnameTooLong", err)
	}
}

func TestDecodeRejectsShortBuffer(t *testing.T) {
	if _, err := Decode(make([]byte, 4)); err != ErrShortBuffer {
		t.Fatalf("Decode error = %v, want ErrShortBuffer", err)
	}
}

package device

import (
	"context"
	"fmt"
)

// TPMReader draws entropy from a TPM 2.0 device's GetRandom command. It
// implements Reader identically in shape to SerialReader: Read(n)
// returns n bytes, the last always zero, even though there is no
// physical sentinel pacing to perform — the TPM command is already a
// single framed request/response.
type TPMReader struct {
	tpm tpmHandle
}

// tpmHandle is the subset of the TPM transport this package needs,
// implemented per-OS in tpm_linux.go / tpm_other.go.
type tpmHandle interface {
	getRandom(n int) ([]byte, error)
	close() error
}

// OpenTPM opens the first available TPM device at the usual resource
// manager paths. devicePath, if non-empty, overrides the search.
func OpenTPM(devicePath string) (*TPMReader, error) {
	h, err := openTPMHandle(devicePath)
	if err != nil {
		return nil, fmt.Errorf("device: open tpm: %w", err)
	}
	return &TPMReader{tpm: h}, nil
}

// Available reports whether a TPM device is present and openable
// without actually opening a long-lived handle.
func Available(devicePath string) bool {
	return tpmAvailable(devicePath)
}

// Read requests n-1 random bytes from the TPM and appends the trailing
// zero sentinel.
func (r *TPMReader) Read(ctx context.Context, n int) ([]byte, error) {
	if n < 2 {
		return nil, fmt.Errorf("device: read size must be >= 2, got %d", n)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	want := n - 1
	out := make([]byte, n)
	got := 0
	for got < want {
		// TPM2_GetRandom has a per-call maximum tied to the digest size
		// of the TPM's name algorithm; request in bounded chunks and
		// loop, mirroring the serial reader's accumulate-until-full
		// shape.
		chunkSize := want - got
		if chunkSize > maxTPMRandomChunk {
			chunkSize = maxTPMRandomChunk
		}
		b, err := r.tpm.getRandom(chunkSize)
		if err != nil {
			return nil, fmt.Errorf("device: tpm GetRandom: %w", err)
		}
		if len(b) == 0 {
			return nil, fmt.Errorf("device: tpm GetRandom returned no bytes")
		}
		copy(out[got:got+len(b)], b)
		got += len(b)
	}

	out[n-1] = 0
	return out, nil
}

// Close releases the TPM transport handle.
func (r *TPMReader) Close() error {
	return r.tpm.close()
}

// maxTPMRandomChunk is a conservative per-call request size; real
// devices commonly cap GetRandom responses at their name digest size
// (32 bytes for SHA-256).
const maxTPMRandomChunk = 32

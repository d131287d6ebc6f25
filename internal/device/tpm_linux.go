//go:build linux

package device

import (
	"fmt"
	"os"

	"github.com/google/go-tpm/tpm2"
	"github.com/google/go-tpm/tpm2/transport"
)

// tpmDevicePaths are probed in order of preference when devicePath is
// not explicitly configured.
var tpmDevicePaths = []string{
	"/dev/tpmrm0", // TPM Resource Manager (preferred: handles context save/load)
	"/dev/tpm0",   // direct device access
}

type linuxTPM struct {
	t transport.TPM
}

func resolveTPMPath(devicePath string) string {
	if devicePath != "" {
		return devicePath
	}
	for _, p := range tpmDevicePaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func tpmAvailable(devicePath string) bool {
	path := resolveTPMPath(devicePath)
	if path == "" {
		return false
	}
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return false
	}
	f.Close()
	return true
}

func openTPMHandle(devicePath string) (tpmHandle, error) {
	path := resolveTPMPath(devicePath)
	if path == "" {
		return nil, fmt.Errorf("no TPM device found")
	}
	t, err := transport.OpenTPM(path)
	if err != nil {
		return nil, err
	}
	return &linuxTPM{t: t}, nil
}

func (h *linuxTPM) getRandom(n int) ([]byte, error) {
	cmd := tpm2.GetRandom{BytesRequested: uint16(n)}
	rsp, err := cmd.Execute(h.t)
	if err != nil {
		return nil, err
	}
	return rsp.RandomBytes.Buffer, nil
}

func (h *linuxTPM) close() error {
	return h.t.Close()
}

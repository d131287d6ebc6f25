//go:build !linux

package device

import "errors"

// TPM support in this build targets Linux's /dev/tpmrm0 resource
// manager (see tpm_linux.go); other platforms have their own device
// conventions and are not wired up here.
func tpmAvailable(devicePath string) bool {
	return false
}

func openTPMHandle(devicePath string) (tpmHandle, error) {
	return nil, errors.New("device: tpm devices are not supported on this platform in this build")
}

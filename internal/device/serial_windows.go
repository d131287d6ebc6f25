//go:build windows

package device

import (
	"errors"
	"io"
)

// openSerialPort is unimplemented on Windows; this module targets the
// Unix serial stack described in serial_unix.go. A COM-port backed
// implementation would live here.
func openSerialPort(path string, baud int) (io.ReadWriteCloser, error) {
	return nil, errors.New("device: serial devices are not supported on windows in this build")
}

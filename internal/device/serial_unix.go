//go:build unix

package device

import (
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// serialPort adapts an *os.File opened on a tty to io.ReadWriteCloser.
type serialPort struct {
	f *os.File
}

func (s *serialPort) Read(p []byte) (int, error)  { return s.f.Read(p) }
func (s *serialPort) Write(p []byte) (int, error) { return s.f.Write(p) }
func (s *serialPort) Close() error                { return s.f.Close() }

// baudRate maps a requested baud rate to the termios constant, falling
// back to 9600 for anything unrecognized.
func baudRate(baud int) uint32 {
	switch baud {
	case 1200:
		return unix.B1200
	case 2400:
		return unix.B2400
	case 4800:
		return unix.B4800
	case 19200:
		return unix.B19200
	case 38400:
		return unix.B38400
	case 57600:
		return unix.B57600
	case 115200:
		return unix.B115200
	default:
		return unix.B9600
	}
}

// openSerialPort opens path and configures it for 8N1, no flow control,
// raw (non-canonical) input with echo and signal generation disabled —
// the framing the sentinel protocol in serial.go depends on.
func openSerialPort(path string, baud int) (io.ReadWriteCloser, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_NOCTTY, 0)
	if err != nil {
		return nil, err
	}

	fd := int(f.Fd())
	t, err := unix.IoctlGetTermios(fd, ioctlGetTermios)
	if err != nil {
		f.Close()
		return nil, err
	}

	rate := baudRate(baud)
	t.Cflag &^= unix.CSIZE | unix.PARENB | unix.CSTOPB | unix.CBAUD
	t.Cflag |= unix.CS8 | unix.CLOCAL | unix.CREAD | rate
	t.Lflag &^= unix.ICANON | unix.ECHO | unix.ECHOE | unix.ISIG | unix.IEXTEN
	t.Iflag &^= unix.IXON | unix.IXOFF | unix.ICRNL | unix.INLCR
	t.Oflag &^= unix.OPOST
	t.Cc[unix.VMIN] = 1
	t.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(fd, ioctlSetTermios, t); err != nil {
		f.Close()
		return nil, err
	}
	unix.IoctlSetInt(fd, unix.TCFLSH, unix.TCIFLUSH)

	return &serialPort{f: f}, nil
}

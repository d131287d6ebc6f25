// Package wire implements the raw binary struct the load balancer hands
// back to a client: a fixed-layout (hostname, port, block_count)
// descriptor, transmitted as a byte-for-byte struct copy in the
// original implementation. Go has no struct-memcpy-over-the-wire
// primitive, so this package fixes an explicit binary layout that is
// equivalent in spirit: fixed-width fields, no padding ambiguity.
package wire

import (
	"encoding/binary"
	"errors"
)

// HostnameSize is the fixed width of the hostname field, matching the
// original's char hostname[N] buffer.
const HostnameSize = 256

// DescriptorSize is the encoded size of a Descriptor on the wire.
const DescriptorSize = HostnameSize + 4 + 4

// Descriptor is the entropy-server locator a load balancer sends to a
// client: struct Descriptor { char hostname[N]; int port; int
// block_count; }.
type Descriptor struct {
	Hostname   string
	Port       int32
	BlockCount int32
}

// ErrHostnameTooLong is returned by Encode when Hostname (plus its NUL
// terminator) would not fit in HostnameSize bytes.
var ErrHostnameTooLong = errors.New("wire: hostname too long")

// ErrShortBuffer is returned by Decode when the input is smaller than
// DescriptorSize.
var ErrShortBuffer = errors.New("wire: buffer too short for descriptor")

// Encode renders d as DescriptorSize raw bytes: a NUL-padded hostname
// field, followed by port and block_count as little-endian int32s.
func (d Descriptor) Encode() ([]byte, error) {
	if len(d.Hostname)+1 > HostnameSize {
		return nil, ErrHostnameTooLong
	}

	buf := make([]byte, DescriptorSize)
	copy(buf[:HostnameSize], d.Hostname)
	binary.LittleEndian.PutUint32(buf[HostnameSize:HostnameSize+4], uint32(d.Port))
	binary.LittleEndian.PutUint32(buf[HostnameSize+4:HostnameSize+8], uint32(d.BlockCount))
	return buf, nil
}

// Decode parses a Descriptor out of a raw byte buffer produced by
// Encode.
func Decode(buf []byte) (Descriptor, error) {
	if len(buf) < DescriptorSize {
		return Descriptor{}, ErrShortBuffer
	}

	end := 0
	for end < HostnameSize && buf[end] != 0 {
		end++
	}
	hostname := string(buf[:end])
	port := int32(binary.LittleEndian.Uint32(buf[HostnameSize : HostnameSize+4]))
	blockCount := int32(binary.LittleEndian.Uint32(buf[HostnameSize+4 : HostnameSize+8]))

	return Descriptor{Hostname: hostname, Port: port, BlockCount: blockCount}, nil
}

// Package digest implements the fixed-output mixing primitive used to
// condition entropy block content: a single-input hash and a two-input
// hash built from it by XOR-combining the shorter input into the longer
// one before hashing.
package digest

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"errors"
	"fmt"
	"hash"
	"strings"
)

// Kind identifies a supported hash primitive.
type Kind int

const (
	MD5 Kind = iota
	SHA1
	SHA256
	SHA512
)

func (k Kind) String() string {
	switch k {
	case MD5:
		return "md5"
	case SHA1:
		return "sha1"
	case SHA256:
		return "sha256"
	case SHA512:
		return "sha512"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ErrUnsupportedKind is returned for an unknown hash kind identifier.
var ErrUnsupportedKind = errors.New("digest: unsupported hash kind")

// ParseKind maps a configuration string ("md5", "sha1", "sha256",
// "sha512", case-insensitive) to its Kind, for use by config loaders
// that accept the hash kind as a human-readable name.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(name) {
	case "md5":
		return MD5, nil
	case "sha1":
		return SHA1, nil
	case "sha256":
		return SHA256, nil
	case "sha512":
		return SHA512, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedKind, name)
	}
}

// ErrEmptyInput is returned when H1 or H2 is given a zero-length input.
var ErrEmptyInput = errors.New("digest: empty input")

func newHash(kind Kind) (hash.Hash, error) {
	switch kind {
	case MD5:
		return md5.New(), nil
	case SHA1:
		return sha1.New(), nil
	case SHA256:
		return sha256.New(), nil
	case SHA512:
		return sha512.New(), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedKind, int(kind))
	}
}

// Size returns the output length in bytes for kind, or an error if kind
// is not recognized.
func Size(kind Kind) (int, error) {
	h, err := newHash(kind)
	if err != nil {
		return 0, err
	}
	return h.Size(), nil
}

// H1 hashes a single byte string under the given kind.
func H1(kind Kind, data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrEmptyInput
	}
	h, err := newHash(kind)
	if err != nil {
		return nil, err
	}
	h.Write(data)
	return h.Sum(nil), nil
}

// H2 hashes a pair of byte strings under the given kind. It is defined as
// H1(kind, combine(a, b)), where combine produces a byte string whose
// first min(len(a), len(b)) bytes are the XOR of the corresponding bytes
// of the longer and shorter inputs, and whose remaining bytes are the
// tail of the longer input.
func H2(kind Kind, a, b []byte) ([]byte, error) {
	if len(a) == 0 || len(b) == 0 {
		return nil, ErrEmptyInput
	}
	combined := combine(a, b)
	return H1(kind, combined)
}

// combine XOR-combines the shorter of a, b into a copy of the longer.
func combine(a, b []byte) []byte {
	longer, shorter := a, b
	if len(shorter) > len(longer) {
		longer, shorter = shorter, longer
	}

	out := make([]byte, len(longer))
	copy(out, longer)
	for i := range shorter {
		out[i] ^= shorter[i]
	}
	return out
}

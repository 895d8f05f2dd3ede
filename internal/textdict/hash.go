package textdict

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
)

// HashContractVersion identifies the (wide encoding, hash function) pairs below.
// Dictionary shards are only usable with the pair they were generated with, so
// any change to either side must bump this.
const HashContractVersion = 1

// Supported hash algorithms.
const (
	// AlgorithmMSVC is std::hash<std::wstring> as built by MSVC: 64-bit FNV-1a
	// over the UTF-16LE bytes of the text.
	AlgorithmMSVC = "msvc-fnv1a64-utf16le"
	// AlgorithmGNU is std::hash<std::wstring> as built by libstdc++: 64-bit
	// _Hash_bytes over the UTF-32LE bytes of the text.
	AlgorithmGNU = "gnu-murmur64-utf32le"

	DefaultAlgorithm = AlgorithmMSVC
)

// Hasher computes the dictionary hash of a text.
type Hasher interface {
	Algorithm() string
	Sum64(text string) uint64
}

// NewHasher returns the Hasher for the named algorithm.
func NewHasher(algorithm string) (Hasher, error) {
	switch algorithm {
	case AlgorithmMSVC:
		return wideHasher{
			name: AlgorithmMSVC,
			wide: unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM),
			sum:  fnv1a64,
		}, nil
	case AlgorithmGNU:
		return wideHasher{
			name: AlgorithmGNU,
			wide: utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM),
			sum:  gnuHashBytes,
		}, nil
	default:
		return nil, fmt.Errorf("unknown hash algorithm %q", algorithm)
	}
}

// IsKnownAlgorithm reports whether NewHasher accepts the name.
func IsKnownAlgorithm(algorithm string) bool {
	return algorithm == AlgorithmMSVC || algorithm == AlgorithmGNU
}

type wideHasher struct {
	name string
	wide encoding.Encoding
	sum  func([]byte) uint64
}

func (h wideHasher) Algorithm() string { return h.name }

// Sum64 decodes text as UTF-8, re-encodes it to wide code units and hashes
// the resulting bytes. Invalid UTF-8 sequences become U+FFFD.
func (h wideHasher) Sum64(text string) uint64 {
	// Bytes grows its own buffer, so the unicode encoders cannot fail here.
	wide, _ := h.wide.NewEncoder().Bytes([]byte(text))
	return h.sum(wide)
}

func fnv1a64(b []byte) uint64 {
	f := fnv.New64a()
	_, _ = f.Write(b)
	return f.Sum64()
}

const (
	gnuMul  uint64 = 0xc6a4a7935bd1e995
	gnuSeed uint64 = 0xc70f6907
)

// gnuHashBytes is libstdc++'s 64-bit std::_Hash_bytes with the default seed.
func gnuHashBytes(b []byte) uint64 {
	aligned := len(b) &^ 7
	h := gnuSeed ^ (uint64(len(b)) * gnuMul)

	for i := 0; i < aligned; i += 8 {
		data := shiftMix(binary.LittleEndian.Uint64(b[i:])*gnuMul) * gnuMul
		h ^= data
		h *= gnuMul
	}
	if rest := b[aligned:]; len(rest) > 0 {
		var data uint64
		for i := len(rest) - 1; i >= 0; i-- {
			data = data<<8 | uint64(rest[i])
		}
		h ^= data
		h *= gnuMul
	}

	h = shiftMix(h) * gnuMul
	return shiftMix(h)
}

func shiftMix(v uint64) uint64 {
	return v ^ (v >> 47)
}

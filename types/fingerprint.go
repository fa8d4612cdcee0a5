package types

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/bits"
	"strings"
)

// Fingerprint is a fixed-length perceptual bit vector. The engine only
// ever compares fingerprints by Hamming distance.
type Fingerprint []byte

// FingerprintFromUint64 packs a 64-bit hash big-endian
func FingerprintFromUint64(v uint64) Fingerprint {
	fp := make(Fingerprint, 8)
	binary.BigEndian.PutUint64(fp, v)
	return fp
}

// ParseFingerprint decodes the hex form stored in the catalog
func ParseFingerprint(s string) (Fingerprint, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty fingerprint")
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode fingerprint %q: %w", s, err)
	}
	return Fingerprint(raw), nil
}

// String returns the lowercase hex encoding
func (f Fingerprint) String() string {
	return hex.EncodeToString(f)
}

// Bits returns the vector length in bits
func (f Fingerprint) Bits() int {
	return len(f) * 8
}

// Distance returns the Hamming distance between two fingerprints. Bytes
// present on only one side count every set bit as differing.
func (f Fingerprint) Distance(other Fingerprint) int {
	short, long := f, other
	if len(short) > len(long) {
		short, long = long, short
	}
	distance := 0
	for i := range short {
		distance += bits.OnesCount8(short[i] ^ long[i])
	}
	for _, b := range long[len(short):] {
		distance += bits.OnesCount8(b)
	}
	return distance
}

// HammingDistance is a convenience wrapper around Fingerprint.Distance
func HammingDistance(a, b Fingerprint) int {
	return a.Distance(b)
}

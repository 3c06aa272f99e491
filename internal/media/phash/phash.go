// Package phash computes and compares 64-bit perceptual hashes.
package phash

import (
	"fmt"
	"image"
	"math/bits"

	"github.com/corona10/goimagehash"
)

// FromImage computes the DCT-based perceptual hash of a decoded image.
func FromImage(img image.Image) (uint64, error) {
	h, err := goimagehash.PerceptionHash(img)
	if err != nil {
		return 0, fmt.Errorf("perception hash: %w", err)
	}
	return h.GetHash(), nil
}

// Distance is the Hamming distance between two hashes: the number of
// differing bits over the full 64-bit width.
func Distance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

// Similar reports whether two hashes are within threshold differing bits.
func Similar(a, b uint64, threshold int) bool {
	return Distance(a, b) <= threshold
}

// Format renders a hash as a fixed-width hex string.
func Format(h uint64) string {
	return fmt.Sprintf("%016x", h)
}

// ToSigned reinterprets the hash bit pattern as int64 for BIGINT storage.
func ToSigned(h uint64) int64 { return int64(h) }

// FromSigned is the inverse of ToSigned.
func FromSigned(h int64) uint64 { return uint64(h) }

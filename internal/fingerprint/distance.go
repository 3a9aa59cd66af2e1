package fingerprint

import (
	"errors"
	"fmt"
)

// ErrLengthMismatch signals that two fingerprints of different bit lengths
// were compared. Generate always produces 64-bit fingerprints, so hitting
// this error means the fixed-length contract was violated somewhere. It is a
// defect signal, not a recoverable runtime condition.
var ErrLengthMismatch = errors.New("fingerprint length mismatch")

// HammingDistance returns the number of bit positions where a and b differ.
func HammingDistance(a, b Fingerprint) (int, error) {
	if a.Size != b.Size {
		return 0, fmt.Errorf("%w: %d vs %d bits", ErrLengthMismatch, a.Size, b.Size)
	}

	xor := a.Bits ^ b.Bits
	distance := 0
	for xor != 0 {
		distance++
		xor &= xor - 1 // Clear lowest set bit
	}
	return distance, nil
}

// Similarity returns 1 - distance/length in [0,1]. Identical fingerprints
// score 1.0; bitwise complements score 0.0.
func Similarity(a, b Fingerprint) (float64, error) {
	distance, err := HammingDistance(a, b)
	if err != nil {
		return 0, err
	}
	return 1 - float64(distance)/float64(a.Size), nil
}

// Package safeconv provides integer conversions that panic instead of
// silently wrapping, plus the lossless int <-> two uint32 split used by the
// node arena columns.
package safeconv

import "math"

// MaxUint32 is the maximum value for uint32 type.
const MaxUint32 = uint32(math.MaxUint32)

// uint32Bits is the width of one half of a split int.
const uint32Bits = 32

// MustIntToUint32 converts int to uint32, panics on bounds violation.
// Use only when bounds violations are logically impossible.
func MustIntToUint32(v int) uint32 {
	if v < 0 || uint64(v) > uint64(MaxUint32) {
		panic("safeconv: int to uint32 out of bounds")
	}

	return uint32(v)
}

// MustUint64ToInt64 converts uint64 to int64, panics on overflow.
func MustUint64ToInt64(v uint64) int64 {
	if v > math.MaxInt64 {
		panic("safeconv: uint64 to int64 overflow")
	}

	return int64(v)
}

// SplitInt returns the low and high 32 bits of v's two's complement form.
func SplitInt(v int) (lo, hi uint32) {
	bits := uint64(int64(v))

	return uint32(bits), uint32(bits >> uint32Bits)
}

// JoinInt reverses SplitInt.
func JoinInt(lo, hi uint32) int {
	return int(int64(uint64(hi)<<uint32Bits | uint64(lo)))
}

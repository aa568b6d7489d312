package fastindex

// maxSegments bounds the number of hash segments a Builder/Filter may use.
// The design point is 3 (spec.md's studied case); the cap keeps the
// per-key index scratch array fixed-size and stack-allocated.
const maxSegments = 8

const (
	fnvOffsetBasis uint64 = 14695981039346656037
	fnvPrime       uint64 = 1099511628211
	lowMask36      uint64 = (1 << 36) - 1
)

// mix is the FNV-like 64-to-64 scrambler from spec.md §4.1: it folds the
// low 36 bits then the high 32 bits of u into the FNV offset basis via
// XOR-then-multiply. It is a distribution scrambler, not a cryptographic
// hash, and is used uniformly for both seeding keys during construction
// and re-deriving the same hash during a query.
func mix(u uint64) uint64 {
	h := fnvOffsetBasis
	h = (h ^ (u & lowMask36)) * fnvPrime
	h = (h ^ (u >> 32)) * fnvPrime
	return h
}

// rotl rotates v left by k bits, taking k mod 64 so that any k >= 64
// wraps around. For k == 0 (or any multiple of 64) the right shift is by
// 64, which Go (unlike C) defines as yielding zero rather than undefined
// behavior, so the result is v unchanged.
func rotl(v uint64, k uint) uint64 {
	k &= 63
	return (v << k) | (v >> (64 - k))
}

// fastrange is Lemire's multiply-shift range reduction: an unbiased
// alternative to h%l that consumes only the low 32 bits of h.
func fastrange(h uint64, l uint32) uint32 {
	return uint32((uint64(uint32(h)) * uint64(l)) >> 32)
}

// segmentRotations are the per-segment rotation amounts for the studied
// s=3 case (spec.md §4.1: I_0 uses no rotation, I_1 rotates by 21, I_2 by
// 43).
var segmentRotations = [3]uint{0, 21, 43}

// rotationFor returns the rotation amount for segment i of s. For s==3 it
// uses the published constants; for other s (spec.md calls this
// "experimental") it spreads rotations evenly across the 64-bit word.
func rotationFor(i, s int) uint {
	if s == 3 {
		return segmentRotations[i]
	}
	return uint(i) * (64 / uint(s))
}

// segmentIndex returns I_i(h): the slot fastrange selects within segment
// i's L-sized band, given the segment count s and band length l.
func segmentIndex(h uint64, i, s int, l uint32) uint32 {
	return fastrange(rotl(h, rotationFor(i, s)), l)
}

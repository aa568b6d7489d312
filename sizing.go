package fastindex

import (
	"math"

	"golang.org/x/exp/constraints"
)

// ceilDiv is integer division rounded up, generic over any integer type
// so both the int arithmetic here and Filter.PackedOriginTagBytes in
// query.go share one implementation.
func ceilDiv[T constraints.Integer](a, b T) T {
	return (a + b - 1) / b
}

// sizeFor implements spec.md §4.6: m = ((32 + ceil(1.23*n)) / s) * s, with
// the division rounded UP to the next multiple of s (verified against
// spec.md scenario S1: n=1000, s=3 -> m=1263).
func sizeFor(n, s int) int {
	base := 32 + int(math.Ceil(1.23*float64(n)))
	bands := ceilDiv(base, s)
	return bands * s
}

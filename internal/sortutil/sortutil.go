package sortutil

import (
	"cmp"
	"slices"
)

// Sorted returns a new slice containing the input values in ascending
// order. The original slice is not modified.
func Sorted[T cmp.Ordered](in []T) []T {
	out := slices.Clone(in)
	slices.Sort(out)
	return out
}

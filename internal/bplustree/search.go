package bplustree

import "TreeStore/internal/common"

// keyIndex returns the smallest i with keys[i] >= target (a lower bound),
// or len(keys) if every key is less than target.
func keyIndex(keys [][]byte, target []byte, cmp common.Comparator) int {
	lo, hi := 0, len(keys)
	for lo < hi {
		mid := lo + (hi-lo)/2
		if cmp(keys[mid], target) < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// insertAt shifts elements right from i and inserts v, returning the
// extended slice.
func insertAt[T any](slice []T, i int, v T) []T {
	var zero T
	slice = append(slice, zero)
	copy(slice[i+1:], slice[i:])
	slice[i] = v
	return slice
}

// removeAt deletes the element at index i, returning the shortened slice.
func removeAt[T any](slice []T, i int) []T {
	return append(slice[:i], slice[i+1:]...)
}

package gudaprim

import "math/bits"

// NextPow2 returns the smallest power of two that is >= n. Values below 2
// map to 1.
func NextPow2(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << Log2Ceil(n)
}

// Log2Ceil returns ⌈log2(n)⌉, the number of tree levels over a padded
// buffer of n elements. Log2Ceil(1) is 0.
func Log2Ceil(n int) int {
	if n <= 1 {
		return 0
	}
	return bits.Len(uint(n - 1))
}

// IsPow2 reports whether n is a positive power of two.
func IsPow2(n int) bool {
	return n > 0 && n&(n-1) == 0
}

/*
Package bitint provides the power-of-two helpers used when sizing FFT
workspaces and analysis frames. All operations are O(1) and allocation
free, so they may be called on the audio thread.

Usage:

	// Smallest transform that holds a linear autocorrelation of n samples
	size := bitint.NextPowerOfTwo(2*n - 1)

	// Validate a configured window size
	ok := bitint.IsPowerOfTwo(windowSize)

NextPowerOfTwo subtracts one before taking the bit length so exact powers
of two map to themselves: for 8 (1000b), bits.Len(7) is 3 and 1<<3 is 8,
whereas bits.Len(8) would give 16.
*/
package bitint

import "math/bits"

// NextPowerOfTwo returns the smallest power of 2 >= size. Values <= 0 map
// to 1.
//
//	Input  Output
//	4      4
//	5      8
//	0      1
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}
	return 1 << bits.Len(uint(size-1))
}

// IsPowerOfTwo reports whether n is a positive power of 2. A power of two
// has a single bit set, so n & (n-1) clears it to zero.
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}

// Log2 returns floor(log2(n)) for n > 0 and -1 otherwise.
func Log2(n int) int {
	if n <= 0 {
		return -1
	}
	return bits.Len(uint(n)) - 1
}

// SPDX-License-Identifier: MIT

// Package bitint holds the power-of-two helpers used to size FFT buffers.
// Everything here is allocation free and constant time.
package bitint

import "math/bits"

// NextPowerOfTwo returns the smallest power of 2 >= size, 1 for size <= 0.
//
// size-1 keeps exact powers unchanged: for 8, bits.Len(7) is 3 and 1<<3 is 8,
// where bits.Len(8) would give 16.
func NextPowerOfTwo(size int) int {
	if size <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(size-1))
}

// IsPowerOfTwo reports whether n is a positive power of 2. A power of 2 has a
// single bit set, so n&(n-1) clears it to zero.
//
//	8  true   1000 & 0111 = 0000
//	7  false  0111 & 0110 = 0110
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}

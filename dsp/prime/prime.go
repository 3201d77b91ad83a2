// Package prime selects prime delay lengths.
//
// Delay networks built from prime-length lines avoid coinciding echo
// periods. Lengths are looked up in a fixed ascending table rather than
// tested for primality, so results above MaxTabulated saturate.
package prime

import "math"

// MaxTabulated is the largest prime in the lookup table.
const MaxTabulated = 3571

var table = sieve(MaxTabulated)

// sieve returns all primes <= limit in ascending order.
func sieve(limit int) []int {
	composite := make([]bool, limit+1)
	primes := make([]int, 0, limit/4)
	for n := 2; n <= limit; n++ {
		if composite[n] {
			continue
		}
		primes = append(primes, n)
		for m := n * n; m <= limit; m += n {
			composite[m] = true
		}
	}
	return primes
}

// Table returns a copy of the ascending prime table.
func Table() []int {
	out := make([]int, len(table))
	copy(out, table)
	return out
}

// NearestPrime rounds x to the nearest integer and returns the tabulated
// prime with the smallest absolute distance to it. On a tie the smaller
// prime wins. Values below 2 (and NaN) map to 2 and values above
// MaxTabulated map to MaxTabulated.
func NearestPrime(x float64) int {
	switch {
	case math.IsNaN(x) || x < 2:
		return table[0]
	case x > MaxTabulated:
		return MaxTabulated
	}

	val := int(math.Round(x))

	best := table[0]
	bestDiff := absInt(val - best)
	for _, p := range table[1:] {
		diff := absInt(val - p)
		if diff < bestDiff {
			best, bestDiff = p, diff
		}
	}
	return best
}

// Samples converts a delay time in seconds to the nearest prime number of
// samples at sampleRate.
func Samples(seconds, sampleRate float64) int {
	return NearestPrime(seconds * sampleRate)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

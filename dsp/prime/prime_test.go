package prime

import (
	"math"
	"testing"
)

func TestTable(t *testing.T) {
	tab := Table()
	if len(tab) != 500 {
		t.Fatalf("table length: got %d want 500", len(tab))
	}
	if tab[0] != 2 || tab[len(tab)-1] != MaxTabulated {
		t.Fatalf("table bounds: first=%d last=%d", tab[0], tab[len(tab)-1])
	}
	for i := 1; i < len(tab); i++ {
		if tab[i] <= tab[i-1] {
			t.Fatalf("table not ascending at %d: %d <= %d", i, tab[i], tab[i-1])
		}
		if !isPrime(tab[i]) {
			t.Fatalf("table[%d]=%d is not prime", i, tab[i])
		}
	}

	// Mutating the copy must not affect lookups.
	tab[0] = 100
	if got := NearestPrime(2); got != 2 {
		t.Fatalf("Table copy aliased internal state: NearestPrime(2)=%d", got)
	}
}

func TestNearestPrime_ExactPrimes(t *testing.T) {
	for _, p := range Table() {
		if got := NearestPrime(float64(p)); got != p {
			t.Fatalf("NearestPrime(%d) = %d", p, got)
		}
	}
}

func TestNearestPrime(t *testing.T) {
	cases := []struct {
		x    float64
		want int
	}{
		{0, 2},
		{-50, 2},
		{1, 2},
		{4, 3}, // tie between 3 and 5
		{6, 5}, // tie between 5 and 7
		{9, 7}, // tie between 7 and 11
		{10, 11},
		{8.4, 7},   // rounds to 8, nearer 7
		{8.6, 7},   // rounds to 9, tie 7/11
		{10.5, 11}, // rounds half away from zero
		{93, 89},   // tie between 89 and 97
		{1323, 1321},
		{1543.5, 1543},
		{1764, 1759},
		{1984.5, 1987},
		{220.5, 223},
		{74.97, 73},
		{3571, 3571},
		{5000, MaxTabulated},
		{math.Inf(1), MaxTabulated},
		{math.Inf(-1), 2},
		{math.NaN(), 2},
	}
	for _, tc := range cases {
		if got := NearestPrime(tc.x); got != tc.want {
			t.Errorf("NearestPrime(%v) = %d, want %d", tc.x, got, tc.want)
		}
	}
}

func TestSamples_DefaultReverbTaps(t *testing.T) {
	taus := []float64{0.030, 0.035, 0.040, 0.045, 0.005, 0.0017}
	want := []int{1321, 1543, 1759, 1987, 223, 73}
	for i, tau := range taus {
		if got := Samples(tau, 44100); got != want[i] {
			t.Errorf("Samples(%v, 44100) = %d, want %d", tau, got, want[i])
		}
	}
}

func isPrime(n int) bool {
	if n < 2 {
		return false
	}
	for d := 2; d*d <= n; d++ {
		if n%d == 0 {
			return false
		}
	}
	return true
}

func BenchmarkNearestPrime(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = NearestPrime(1764)
	}
}

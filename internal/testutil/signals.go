// Package testutil holds signal sources and assertions shared by the
// processor tests.
package testutil

import (
	"math"
	"math/rand"
)

// DeterministicSine returns length samples of a zero-phase sine.
func DeterministicSine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}
	return out
}

// DeterministicNoise returns uniform noise in [-amplitude, amplitude]
// drawn from a generator seeded with seed.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

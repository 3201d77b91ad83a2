package reverb

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-fx/dsp/delay"
)

// NumCombs is the number of parallel comb filters in a CombBank.
const NumCombs = 4

// CombBank is a set of parallel feedback comb filters sharing one input.
// Each comb stores its own output, so its impulse response is a train of
// echoes every d samples decaying by g per echo.
type CombBank struct {
	lines [NumCombs]*delay.Line
	gains [NumCombs]float64
}

// NewCombBank creates a comb bank with the given delay lengths in samples
// and feedback gains.
func NewCombBank(lengths [NumCombs]int, gains [NumCombs]float64) (*CombBank, error) {
	b := &CombBank{gains: gains}

	for k, length := range lengths {
		if math.IsNaN(gains[k]) || math.IsInf(gains[k], 0) {
			return nil, fmt.Errorf("comb %d gain must be finite: %f", k, gains[k])
		}

		line, err := delay.New(length)
		if err != nil {
			return nil, fmt.Errorf("comb %d: %w", k, err)
		}

		b.lines[k] = line
	}

	return b, nil
}

// ProcessSample feeds x into every comb and returns the sum of their
// outputs.
func (b *CombBank) ProcessSample(x float64) float64 {
	var sum float64

	for k, line := range b.lines {
		out := x + b.gains[k]*line.Tap()
		line.Write(out)
		sum += out
	}

	return sum
}

// Reset clears all comb buffers.
func (b *CombBank) Reset() {
	for _, line := range b.lines {
		line.Reset()
	}
}

// Lengths returns the comb delay lengths in samples.
func (b *CombBank) Lengths() [NumCombs]int {
	var out [NumCombs]int
	for k, line := range b.lines {
		out[k] = line.Len()
	}

	return out
}

// Gains returns the comb feedback gains.
func (b *CombBank) Gains() [NumCombs]float64 { return b.gains }

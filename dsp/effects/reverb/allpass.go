package reverb

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-fx/dsp/delay"
)

// NumAllpasses is the number of sections in an AllpassChain.
const NumAllpasses = 2

// AllpassSection is one diffusion stage. It computes
//
//	y = -g*x + x[n-d] + x
//
// and stores its input x, not its output.
type AllpassSection struct {
	line *delay.Line
	gain float64
}

// NewAllpassSection creates a section with a delay of length samples.
func NewAllpassSection(length int, gain float64) (*AllpassSection, error) {
	if math.IsNaN(gain) || math.IsInf(gain, 0) {
		return nil, fmt.Errorf("allpass gain must be finite: %f", gain)
	}

	line, err := delay.New(length)
	if err != nil {
		return nil, err
	}

	return &AllpassSection{line: line, gain: gain}, nil
}

// ProcessSample processes one sample.
func (a *AllpassSection) ProcessSample(x float64) float64 {
	delayed := a.line.Tap()
	y := -a.gain*x + delayed + x
	a.line.Write(x)

	return y
}

// Reset clears the delay buffer.
func (a *AllpassSection) Reset() { a.line.Reset() }

// Len returns the delay length in samples.
func (a *AllpassSection) Len() int { return a.line.Len() }

// Gain returns the section gain.
func (a *AllpassSection) Gain() float64 { return a.gain }

// AllpassChain runs two AllpassSections in series.
type AllpassChain struct {
	sections [NumAllpasses]*AllpassSection
}

// NewAllpassChain creates a chain whose section i has delay lengths[i] and
// gain gains[i].
func NewAllpassChain(lengths [NumAllpasses]int, gains [NumAllpasses]float64) (*AllpassChain, error) {
	c := &AllpassChain{}

	for i := range c.sections {
		s, err := NewAllpassSection(lengths[i], gains[i])
		if err != nil {
			return nil, fmt.Errorf("allpass %d: %w", i, err)
		}

		c.sections[i] = s
	}

	return c, nil
}

// ProcessSample feeds x through both sections and returns the output of
// the last one.
func (c *AllpassChain) ProcessSample(x float64) float64 {
	for _, s := range c.sections {
		x = s.ProcessSample(x)
	}

	return x
}

// Reset clears both sections.
func (c *AllpassChain) Reset() {
	for _, s := range c.sections {
		s.Reset()
	}
}

// Section returns section i.
func (c *AllpassChain) Section(i int) *AllpassSection { return c.sections[i] }

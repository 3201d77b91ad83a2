package design

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-fx/dsp/filter/biquad"
)

// ButterworthQ is the quality factor of a second-order Butterworth section.
const ButterworthQ = 1 / math.Sqrt2

const defaultQ = ButterworthQ

// ErrInvalidCutoff is returned by ValidateCutoff.
var ErrInvalidCutoff = errors.New("design: invalid cutoff")

// ButterworthLowpass designs a second-order Butterworth lowpass. The DC
// gain is exactly 1 and the gain at cutoff is -3.01 dB.
func ButterworthLowpass(cutoff, sampleRate float64) biquad.Coefficients {
	return BilinearLowpass(cutoff, ButterworthQ, sampleRate)
}

// BilinearLowpass designs a second-order lowpass via the bilinear
// transform with frequency prewarping:
//
//	C  = 1 / tan(pi*cutoff/sampleRate)
//	D  = 1 / (1 + C/q + C^2)
//	B0 = D, B1 = 2*D, B2 = D
//	A1 = 2*(1 - C^2)*D
//	A2 = (1 - C/q + C^2)*D
//
// q = 0.5 gives the critically damped form 1 + 2C + C^2 with -6.02 dB at
// cutoff. Inputs are not checked; a cutoff at or above Nyquist yields an
// unusable filter. Use ValidateCutoff on construction paths.
func BilinearLowpass(cutoff, q, sampleRate float64) biquad.Coefficients {
	c := 1 / math.Tan(math.Pi*cutoff/sampleRate)
	c2 := c * c
	k := c / q
	d := 1 / (1 + k + c2)

	return biquad.Coefficients{
		B0: d,
		B1: 2 * d,
		B2: d,
		A1: 2 * (1 - c2) * d,
		A2: (1 - k + c2) * d,
	}
}

// ValidateCutoff reports whether cutoff lies strictly between 0 and the
// Nyquist frequency of sampleRate.
func ValidateCutoff(cutoff, sampleRate float64) error {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return fmt.Errorf("%w: sample rate must be positive and finite: %f", ErrInvalidCutoff, sampleRate)
	}

	if cutoff <= 0 || math.IsNaN(cutoff) || math.IsInf(cutoff, 0) {
		return fmt.Errorf("%w: cutoff must be positive and finite: %f", ErrInvalidCutoff, cutoff)
	}

	if cutoff >= sampleRate/2 {
		return fmt.Errorf("%w: cutoff %.2f Hz at or above Nyquist %.2f Hz", ErrInvalidCutoff, cutoff, sampleRate/2)
	}

	return nil
}

// Lowpass designs an RBJ cookbook lowpass biquad at freq (Hz) with quality
// factor q. With q = ButterworthQ it matches ButterworthLowpass.
func Lowpass(freq, q, sampleRate float64) biquad.Coefficients {
	w0, ok := normalizedW0(freq, sampleRate)
	if !ok {
		return biquad.Coefficients{}
	}

	q = normalizedQ(q)
	cw := math.Cos(w0)
	sw := math.Sin(w0)
	alpha := sw / (2 * q)

	b1 := 1 - cw
	b0 := b1 / 2
	b2 := b0
	a0 := 1 + alpha
	a1 := -2 * cw
	a2 := 1 - alpha

	return normalizeBiquad(b0, b1, b2, a0, a1, a2)
}

func normalizedW0(freq, sampleRate float64) (float64, bool) {
	if ValidateCutoff(freq, sampleRate) != nil {
		return 0, false
	}

	return 2 * math.Pi * freq / sampleRate, true
}

func normalizedQ(q float64) float64 {
	if q <= 0 || math.IsNaN(q) || math.IsInf(q, 0) {
		return defaultQ
	}

	return q
}

func normalizeBiquad(b0, b1, b2, a0, a1, a2 float64) biquad.Coefficients {
	if a0 == 0 || math.IsNaN(a0) || math.IsInf(a0, 0) {
		return biquad.Coefficients{}
	}

	return biquad.Coefficients{
		B0: b0 / a0,
		B1: b1 / a0,
		B2: b2 / a0,
		A1: a1 / a0,
		A2: a2 / a0,
	}
}

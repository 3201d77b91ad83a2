package ir

import (
	"errors"
	"math"

	vecmath "github.com/cwbudde/algo-vecmath"
)

// Errors returned by IR analysis functions.
var (
	ErrEmptyIR           = errors.New("ir: impulse response is empty")
	ErrSilentIR          = errors.New("ir: impulse response is silent")
	ErrInvalidSampleRate = errors.New("ir: sample rate must be positive")
	ErrInvalidLevel      = errors.New("ir: level must be negative dB")
	ErrNoDecay           = errors.New("ir: insufficient decay for RT calculation")
)

// curveFloorDB is reported for samples after the last non-zero energy.
const curveFloorDB = -200

// Metrics holds decay analysis results. Times are in seconds and measured
// from the peak. Fields the response does not support are zero.
type Metrics struct {
	RT60       float64 // T30, falling back to T20
	EDT        float64 // 0 to -10 dB fit
	T20        float64 // -5 to -25 dB fit
	T30        float64 // -5 to -35 dB fit
	Crossing60 float64 // peak-hold envelope below -60 dB
	PeakIndex  int     // index of the absolute maximum
	Peak       float64 // absolute maximum
}

// Analyzer computes decay metrics for responses sampled at SampleRate.
type Analyzer struct {
	SampleRate float64
}

// NewAnalyzer creates an IR analyzer with the given sample rate.
func NewAnalyzer(sampleRate float64) *Analyzer {
	return &Analyzer{SampleRate: sampleRate}
}

// Analyze computes all decay metrics. Everything before the peak is
// ignored.
func (a *Analyzer) Analyze(ir []float64) (Metrics, error) {
	peakIdx, peak, err := a.checkedPeak(ir)
	if err != nil {
		return Metrics{}, err
	}

	tail := ir[peakIdx:]
	curve := schroederCurve(tail)

	m := Metrics{
		PeakIndex: peakIdx,
		Peak:      peak,
		EDT:       a.fitDecay(curve, 0, -10),
		T20:       a.fitDecay(curve, -5, -25),
		T30:       a.fitDecay(curve, -5, -35),
	}

	m.RT60 = m.T30
	if m.RT60 == 0 {
		m.RT60 = m.T20
	}

	if n, ok := crossingIndex(tail, peak, -60); ok {
		m.Crossing60 = float64(n) / a.SampleRate
	}

	return m, nil
}

// RT60 returns T30, or T20 when the response does not decay by 35 dB.
func (a *Analyzer) RT60(ir []float64) (float64, error) {
	peakIdx, _, err := a.checkedPeak(ir)
	if err != nil {
		return 0, err
	}

	curve := schroederCurve(ir[peakIdx:])

	if rt := a.fitDecay(curve, -5, -35); rt > 0 {
		return rt, nil
	}

	if rt := a.fitDecay(curve, -5, -25); rt > 0 {
		return rt, nil
	}

	return 0, ErrNoDecay
}

// EnvelopeCrossing returns the time in seconds from the peak until the
// peak-hold envelope of |ir| drops below levelDB relative to the peak.
// ErrNoDecay is returned when the response ends above that level.
func (a *Analyzer) EnvelopeCrossing(ir []float64, levelDB float64) (float64, error) {
	if levelDB >= 0 || math.IsNaN(levelDB) {
		return 0, ErrInvalidLevel
	}

	peakIdx, peak, err := a.checkedPeak(ir)
	if err != nil {
		return 0, err
	}

	n, ok := crossingIndex(ir[peakIdx:], peak, levelDB)
	if !ok {
		return 0, ErrNoDecay
	}

	return float64(n) / a.SampleRate, nil
}

// SchroederCurve returns the backward integral of the squared response in
// dB relative to the total energy:
//
//	S(n) = 10*log10( sum_{k>=n} h[k]^2 / sum_k h[k]^2 )
func (a *Analyzer) SchroederCurve(ir []float64) ([]float64, error) {
	if len(ir) == 0 {
		return nil, ErrEmptyIR
	}

	return schroederCurve(ir), nil
}

func (a *Analyzer) checkedPeak(ir []float64) (int, float64, error) {
	if len(ir) == 0 {
		return 0, 0, ErrEmptyIR
	}

	if a.SampleRate <= 0 || math.IsNaN(a.SampleRate) || math.IsInf(a.SampleRate, 0) {
		return 0, 0, ErrInvalidSampleRate
	}

	peak := vecmath.MaxAbs(ir)
	if peak == 0 {
		return 0, 0, ErrSilentIR
	}

	for i, v := range ir {
		if math.Abs(v) == peak {
			return i, peak, nil
		}
	}

	return 0, peak, nil
}

func schroederCurve(ir []float64) []float64 {
	curve := make([]float64, len(ir))

	var acc float64
	for i := len(ir) - 1; i >= 0; i-- {
		acc += ir[i] * ir[i]
		curve[i] = acc
	}

	total := curve[0]
	if total <= 0 {
		return curve
	}

	for i, e := range curve {
		if e <= 0 {
			curve[i] = curveFloorDB
			continue
		}

		curve[i] = 10 * math.Log10(e/total)
	}

	return curve
}

// fitDecay fits a line to curve between the first samples at or below
// startDB and endDB and extrapolates the slope to 60 dB. It returns 0 when
// the curve does not span the range or does not decay.
func (a *Analyzer) fitDecay(curve []float64, startDB, endDB float64) float64 {
	first, last := -1, -1

	for i, v := range curve {
		if first < 0 && v <= startDB {
			first = i
		}

		if first >= 0 && v <= endDB {
			last = i
			break
		}
	}

	if first < 0 || last <= first {
		return 0
	}

	var sumX, sumY, sumXX, sumXY float64

	for i := first; i <= last; i++ {
		x := float64(i - first)
		y := curve[i]
		sumX += x
		sumY += y
		sumXX += x * x
		sumXY += x * y
	}

	n := float64(last - first + 1)

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}

	slope := (n*sumXY - sumX*sumY) / denom // dB per sample
	if slope >= 0 {
		return 0
	}

	return -60 / (slope * a.SampleRate)
}

// crossingIndex returns the number of samples after which every |tail|
// value stays below peak*10^(levelDB/20).
func crossingIndex(tail []float64, peak, levelDB float64) (int, bool) {
	threshold := peak * math.Pow(10, levelDB/20)

	for i := len(tail) - 1; i >= 0; i-- {
		if math.Abs(tail[i]) >= threshold {
			if i == len(tail)-1 {
				return 0, false
			}

			return i + 1, true
		}
	}

	return 0, true
}

package thd

import (
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-fx/dsp/window"
)

const (
	defaultRangeLowerHz = 20.0
	defaultRangeUpperHz = 20000.0
)

// Config holds THD calculation parameters.
//
// A zero WindowType selects Hann. A zero FundamentalFreq selects the
// strongest bin inside the analysis range.
type Config struct {
	SampleRate      float64
	FFTSize         int
	FundamentalFreq float64
	RangeLowerFreq  float64
	RangeUpperFreq  float64
	CaptureBins     int
	MaxHarmonics    int
	WindowType      window.Type
}

// Result holds THD measurement results. Ratios are amplitude ratios
// relative to the fundamental.
//
//nolint:revive
type Result struct {
	FundamentalFreq  float64
	FundamentalPower float64
	THD              float64
	THDN             float64
	THD_dB           float64
	THDN_dB          float64
	OddHD            float64
	EvenHD           float64
	// Inharmonic covers every in-range bin outside the fundamental and
	// harmonic capture zones. For a clean bin-centred test tone this is
	// dominated by aliasing products folded back from above Nyquist.
	Inharmonic    float64
	Inharmonic_dB float64
	Harmonics     []float64
	SINAD         float64
}

// Calculator performs THD analysis on frequency-domain data.
type Calculator struct {
	cfg Config
}

// NewCalculator creates a new THD calculator.
func NewCalculator(cfg Config) *Calculator {
	return &Calculator{cfg: normalizeConfig(cfg)}
}

// AnalyzeSignal performs one-shot THD analysis from a time-domain signal.
func AnalyzeSignal(signal []float64, cfg Config) Result {
	return NewCalculator(cfg).AnalyzeSignal(signal)
}

// PowerSpectrum applies the periodic form of winType to signal, zero-pads
// it to fftSize and returns the one-sided power spectrum |X[k]|^2 for k in
// [0, fftSize/2]. Samples beyond fftSize are ignored.
func PowerSpectrum(signal []float64, fftSize int, winType window.Type) ([]float64, error) {
	if len(signal) > fftSize {
		signal = signal[:fftSize]
	}

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, err
	}

	coeffs := window.Generate(winType, len(signal), window.WithPeriodic())

	in := make([]complex128, fftSize)
	for i, v := range signal {
		in[i] = complex(v*coeffs[i], 0)
	}

	out := make([]complex128, fftSize)
	if err := plan.Forward(out, in); err != nil {
		return nil, err
	}

	bins := fftSize/2 + 1
	re := make([]float64, bins)
	im := make([]float64, bins)

	for i := range bins {
		re[i] = real(out[i])
		im[i] = imag(out[i])
	}

	power := make([]float64, bins)
	vecmath.Power(power, re, im)

	return power, nil
}

// AnalyzeSignal computes THD metrics from a real-valued time-domain signal.
func (c *Calculator) AnalyzeSignal(signal []float64) Result {
	if len(signal) == 0 {
		return Result{}
	}

	cfg := c.cfg

	fftSize := cfg.FFTSize
	if fftSize <= 0 {
		fftSize = nextPowerOf2(len(signal))
	}

	if fftSize <= 1 {
		return Result{}
	}

	power, err := PowerSpectrum(signal, fftSize, cfg.WindowType)
	if err != nil {
		return Result{}
	}

	cfg.FFTSize = fftSize
	calc := Calculator{cfg: cfg}

	return calc.CalculateFromPower(power)
}

// CalculateFromPower computes THD metrics from a one-sided power spectrum.
//
//nolint:cyclop,funlen
func (c *Calculator) CalculateFromPower(power []float64) Result {
	if len(power) <= 1 {
		return Result{}
	}

	cfg := c.cfg
	if cfg.FFTSize <= 0 {
		cfg.FFTSize = 2 * (len(power) - 1)
	}

	if cfg.SampleRate <= 0 {
		cfg.SampleRate = float64(cfg.FFTSize)
	}

	maxBin := len(power) - 1
	binHz := cfg.SampleRate / float64(cfg.FFTSize)

	lowerBin := clampInt(int(math.Ceil(cfg.RangeLowerFreq/binHz)), 1, maxBin)
	upperBin := clampInt(int(math.Floor(cfg.RangeUpperFreq/binHz)), lowerBin, maxBin)

	fundamentalBin := c.findFundamentalBin(power, lowerBin, upperBin, binHz)

	captureBins := cfg.CaptureBins
	if captureBins <= 0 {
		captureBins = captureBinsByType(cfg.WindowType)
	}

	if captureBins*2 >= fundamentalBin {
		captureBins = (fundamentalBin - 1) / 2
	}

	// zone[i] is 0 for inharmonic bins, 1 for the fundamental and k for
	// the k-th harmonic.
	zone := make([]int, len(power))
	markZone(zone, fundamentalBin, captureBins, 1)

	harmonicCount := 0
	for k := 2; ; k++ {
		if cfg.MaxHarmonics > 0 && harmonicCount >= cfg.MaxHarmonics {
			break
		}

		bin := k * fundamentalBin
		if bin > upperBin {
			break
		}

		markZone(zone, bin, captureBins, k)
		harmonicCount++
	}

	perHarmonic := make([]float64, harmonicCount+2)

	inharmonic := 0.0

	for i := lowerBin; i <= upperBin; i++ {
		if z := zone[i]; z > 0 {
			perHarmonic[z] += power[i]
		} else {
			inharmonic += power[i]
		}
	}

	fundamental := perHarmonic[1]
	if fundamental <= 0 {
		return Result{FundamentalFreq: float64(fundamentalBin) * binHz}
	}

	harmonics := make([]float64, 0, harmonicCount)

	var total, odd, even float64

	for k := 2; k < len(perHarmonic); k++ {
		p := perHarmonic[k]
		total += p

		if k%2 == 0 {
			even += p
		} else {
			odd += p
		}

		harmonics = append(harmonics, math.Sqrt(p/fundamental))
	}

	thd := math.Sqrt(total / fundamental)
	thdn := math.Sqrt((total + inharmonic) / fundamental)
	inh := math.Sqrt(inharmonic / fundamental)

	sinad := math.Inf(1)
	if thdn > 0 {
		sinad = -20 * math.Log10(thdn)
	}

	return Result{
		FundamentalFreq:  float64(fundamentalBin) * binHz,
		FundamentalPower: fundamental,
		THD:              thd,
		THDN:             thdn,
		THD_dB:           ratioToDB(thd),
		THDN_dB:          ratioToDB(thdn),
		OddHD:            math.Sqrt(odd / fundamental),
		EvenHD:           math.Sqrt(even / fundamental),
		Inharmonic:       inh,
		Inharmonic_dB:    ratioToDB(inh),
		Harmonics:        harmonics,
		SINAD:            sinad,
	}
}

func (c *Calculator) findFundamentalBin(power []float64, lowerBin, upperBin int, binHz float64) int {
	if c.cfg.FundamentalFreq > 0 {
		bin := int(math.Round(c.cfg.FundamentalFreq / binHz))
		return clampInt(bin, lowerBin, upperBin)
	}

	bestBin := lowerBin
	bestVal := -1.0

	for i := lowerBin; i <= upperBin; i++ {
		if power[i] > bestVal {
			bestVal = power[i]
			bestBin = i
		}
	}

	return bestBin
}

func markZone(zone []int, centre, width, id int) {
	lo := max(centre-width, 0)
	hi := min(centre+width, len(zone)-1)

	for i := lo; i <= hi; i++ {
		if zone[i] == 0 {
			zone[i] = id
		}
	}
}

// captureBinsByType returns the main-lobe half width of the window in bins.
func captureBinsByType(t window.Type) int {
	switch t {
	case window.TypeRectangular:
		return 1
	case window.TypeHann, window.TypeHamming:
		return 2
	case window.TypeBlackman:
		return 3
	case window.TypeBlackmanHarris4Term:
		return 4
	case window.TypeFlatTop:
		return 5
	default:
		return 2
	}
}

func normalizeConfig(cfg Config) Config {
	if cfg.RangeLowerFreq <= 0 {
		cfg.RangeLowerFreq = defaultRangeLowerHz
	}

	if cfg.RangeUpperFreq <= 0 {
		cfg.RangeUpperFreq = defaultRangeUpperHz
	}

	if cfg.RangeUpperFreq < cfg.RangeLowerFreq {
		cfg.RangeUpperFreq = cfg.RangeLowerFreq
	}

	if cfg.WindowType == 0 {
		cfg.WindowType = window.TypeHann
	}

	if cfg.CaptureBins < 0 {
		cfg.CaptureBins = 0
	}

	if cfg.MaxHarmonics < 0 {
		cfg.MaxHarmonics = 0
	}

	return cfg
}

func ratioToDB(v float64) float64 {
	if v <= 0 {
		return math.Inf(-1)
	}

	return 20 * math.Log10(v)
}

func clampInt(val, lo, hi int) int {
	if val < lo {
		return lo
	}

	if val > hi {
		return hi
	}

	return val
}

func nextPowerOf2(n int) int {
	if n <= 1 {
		return 1
	}

	p := 1
	for p < n {
		p <<= 1
	}

	return p
}

package effects

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-fx/dsp/core"
	"github.com/cwbudde/algo-fx/dsp/filter/biquad"
	"github.com/cwbudde/algo-fx/dsp/filter/design"
	"github.com/cwbudde/algo-fx/dsp/stream"
)

const (
	// DefaultDrive is the nonlinearity drive applied before tanh.
	DefaultDrive = 20.0
	// DefaultOutputBoost is the gain applied before the final hard clip.
	DefaultOutputBoost = 2.0
	// DefaultOversampling is the zero-stuffing ratio.
	DefaultOversampling = 4
	// DefaultPreCutoff is the band-limiting cutoff ahead of the shaper.
	DefaultPreCutoff = 2000.0
	// DefaultPostCutoffBase divided by the oversampling ratio gives the
	// default anti-alias cutoff.
	DefaultPostCutoffBase = 20000.0
	// DefaultShapeScale multiplies drive inside tanh.
	DefaultShapeScale = 2.5

	maxOversampling = 16
)

// OversampledOption mutates construction-time parameters of
// OversampledDistortion.
type OversampledOption func(*oversampledConfig) error

type oversampledConfig struct {
	drive      float64
	boost      float64
	ratio      int
	preCutoff  float64
	postCutoff float64 // 0 selects DefaultPostCutoffBase/ratio
	shapeScale float64
	filterQ    float64
}

func defaultOversampledConfig() oversampledConfig {
	return oversampledConfig{
		drive:      DefaultDrive,
		boost:      DefaultOutputBoost,
		ratio:      DefaultOversampling,
		preCutoff:  DefaultPreCutoff,
		shapeScale: DefaultShapeScale,
		filterQ:    design.ButterworthQ,
	}
}

// WithDrive sets the nonlinearity drive (>= 0).
func WithDrive(drive float64) OversampledOption {
	return func(cfg *oversampledConfig) error {
		if drive < 0 || !isFinite(drive) {
			return fmt.Errorf("oversampled distortion drive must be >= 0 and finite: %f", drive)
		}

		cfg.drive = drive

		return nil
	}
}

// WithOutputBoost sets the post-shaper gain (>= 0).
func WithOutputBoost(boost float64) OversampledOption {
	return func(cfg *oversampledConfig) error {
		if boost < 0 || !isFinite(boost) {
			return fmt.Errorf("oversampled distortion output boost must be >= 0 and finite: %f", boost)
		}

		cfg.boost = boost

		return nil
	}
}

// WithOversampling sets the zero-stuffing ratio in [1, 16].
func WithOversampling(ratio int) OversampledOption {
	return func(cfg *oversampledConfig) error {
		if ratio < 1 || ratio > maxOversampling {
			return fmt.Errorf("oversampled distortion ratio must be in [1, %d]: %d", maxOversampling, ratio)
		}

		cfg.ratio = ratio

		return nil
	}
}

// WithPreCutoff sets the pre-filter cutoff in Hz. It must lie below the
// base Nyquist frequency.
func WithPreCutoff(hz float64) OversampledOption {
	return func(cfg *oversampledConfig) error {
		if hz <= 0 || !isFinite(hz) {
			return fmt.Errorf("oversampled distortion pre cutoff must be > 0 and finite: %f", hz)
		}

		cfg.preCutoff = hz

		return nil
	}
}

// WithPostCutoff sets the anti-alias cutoff in Hz. It must lie below the
// oversampled Nyquist frequency.
func WithPostCutoff(hz float64) OversampledOption {
	return func(cfg *oversampledConfig) error {
		if hz <= 0 || !isFinite(hz) {
			return fmt.Errorf("oversampled distortion post cutoff must be > 0 and finite: %f", hz)
		}

		cfg.postCutoff = hz

		return nil
	}
}

// WithShapeScale sets the factor multiplying drive inside tanh.
func WithShapeScale(scale float64) OversampledOption {
	return func(cfg *oversampledConfig) error {
		if scale <= 0 || !isFinite(scale) {
			return fmt.Errorf("oversampled distortion shape scale must be > 0 and finite: %f", scale)
		}

		cfg.shapeScale = scale

		return nil
	}
}

// WithFilterQ sets the quality factor of both lowpass filters. The default
// is design.ButterworthQ, which puts -3 dB at each cutoff. The literal
// 1 + 2C + C^2 denominator of the classic console effect is Q = 0.5 and
// is reproduced exactly by WithFilterQ(0.5).
func WithFilterQ(q float64) OversampledOption {
	return func(cfg *oversampledConfig) error {
		if q <= 0 || !isFinite(q) {
			return fmt.Errorf("oversampled distortion filter Q must be > 0 and finite: %f", q)
		}

		cfg.filterQ = q

		return nil
	}
}

// OversampledDistortion is a tanh waveshaper running at an oversampled rate
// between two lowpass filters.
//
// Per channel and input sample:
//
//	u0 = pre(x)
//	for k in 0..ratio-1:
//	    f = post(k == 0 ? u0 : 0)
//	    y = post(tanh(shapeScale*drive*f))
//	out = clip(boost*y, -1, 1)
//
// The same post filter instance serves as interpolator and decimator. The
// output of the final sub-step is kept. Each channel owns its filter state.
type OversampledDistortion struct {
	cfg    core.ProcessorConfig
	params oversampledConfig

	preCoeffs  biquad.Coefficients
	postCoeffs biquad.Coefficients
	pre        []biquad.Section
	post       []biquad.Section

	shapeGain float64
}

// NewOversampledDistortion creates a distortion for channels interleaved
// channels at sampleRate and initializes it with the default block size.
func NewOversampledDistortion(sampleRate float64, channels int, opts ...OversampledOption) (*OversampledDistortion, error) {
	params := defaultOversampledConfig()

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(&params); err != nil {
			return nil, err
		}
	}

	d := &OversampledDistortion{params: params}

	cfg := core.DefaultProcessorConfig()
	cfg.SampleRate = sampleRate
	cfg.Channels = channels

	if err := d.Initialize(cfg); err != nil {
		return nil, err
	}

	return d, nil
}

// Initialize designs both filters for cfg and clears all channel state.
// It may be called again to reconfigure the session. A zero
// OversampledDistortion initializes with the default parameters.
func (d *OversampledDistortion) Initialize(cfg core.ProcessorConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("oversampled distortion: %w", err)
	}

	p := d.params
	if p.ratio == 0 {
		p = defaultOversampledConfig()
	}

	overRate := cfg.SampleRate * float64(p.ratio)

	postCutoff := p.postCutoff
	if postCutoff == 0 {
		postCutoff = DefaultPostCutoffBase / float64(p.ratio)
	}

	if err := design.ValidateCutoff(p.preCutoff, cfg.SampleRate); err != nil {
		return fmt.Errorf("oversampled distortion pre-filter: %w", err)
	}

	if err := design.ValidateCutoff(postCutoff, overRate); err != nil {
		return fmt.Errorf("oversampled distortion post-filter: %w", err)
	}

	d.cfg = cfg
	d.params = p
	d.params.postCutoff = postCutoff
	d.shapeGain = p.shapeScale * p.drive
	d.preCoeffs = design.BilinearLowpass(p.preCutoff, p.filterQ, cfg.SampleRate)
	d.postCoeffs = design.BilinearLowpass(postCutoff, p.filterQ, overRate)

	d.pre = make([]biquad.Section, cfg.Channels)
	d.post = make([]biquad.Section, cfg.Channels)

	for ch := range cfg.Channels {
		d.pre[ch] = *biquad.NewSection(d.preCoeffs)
		d.post[ch] = *biquad.NewSection(d.postCoeffs)
	}

	return nil
}

// Reset clears the filter history of every channel.
func (d *OversampledDistortion) Reset() {
	for ch := range d.pre {
		d.pre[ch].Reset()
		d.post[ch].Reset()
	}
}

// ProcessSample processes one sample of channel ch.
func (d *OversampledDistortion) ProcessSample(ch int, x float64) float64 {
	u0 := d.pre[ch].ProcessSample(x)
	post := &d.post[ch]

	var y float64

	for k := range d.params.ratio {
		var up float64
		if k == 0 {
			up = u0
		}

		filtered := post.ProcessSample(up)
		y = post.ProcessSample(math.Tanh(d.shapeGain * filtered))
	}

	return clipUnit(y * d.params.boost)
}

// ProcessFrame processes one interleaved frame in place. len(frame) must
// equal the channel count.
func (d *OversampledDistortion) ProcessFrame(frame []float64) {
	for ch, x := range frame {
		frame[ch] = d.ProcessSample(ch, x)
	}
}

// ProcessInPlace processes a mono buffer of channel ch in place.
func (d *OversampledDistortion) ProcessInPlace(ch int, buf []float64) {
	for i, x := range buf {
		buf[i] = d.ProcessSample(ch, x)
	}
}

// ProcessBlock processes frames interleaved frames from in into out. A nil
// in is processed as silence. It returns stream.Abort when the processor
// was never initialized.
func (d *OversampledDistortion) ProcessBlock(in, out []float32, frames int) stream.Status {
	channels := len(d.pre)
	if channels == 0 {
		return stream.Abort
	}

	for i := range frames {
		base := i * channels
		for ch := range channels {
			x := float64(stream.SampleAt(in, base+ch))
			out[base+ch] = float32(d.ProcessSample(ch, x))
		}
	}

	return stream.Continue
}

// SampleRate returns the base sample rate in Hz.
func (d *OversampledDistortion) SampleRate() float64 { return d.cfg.SampleRate }

// Channels returns the interleaved channel count.
func (d *OversampledDistortion) Channels() int { return len(d.pre) }

// Drive returns the nonlinearity drive.
func (d *OversampledDistortion) Drive() float64 { return d.params.drive }

// OutputBoost returns the post-shaper gain.
func (d *OversampledDistortion) OutputBoost() float64 { return d.params.boost }

// Oversampling returns the zero-stuffing ratio.
func (d *OversampledDistortion) Oversampling() int { return d.params.ratio }

// PreCutoff returns the pre-filter cutoff in Hz.
func (d *OversampledDistortion) PreCutoff() float64 { return d.params.preCutoff }

// PostCutoff returns the anti-alias cutoff in Hz.
func (d *OversampledDistortion) PostCutoff() float64 { return d.params.postCutoff }

// ShapeScale returns the factor multiplying drive inside tanh.
func (d *OversampledDistortion) ShapeScale() float64 { return d.params.shapeScale }

// PreCoefficients returns the pre-filter design.
func (d *OversampledDistortion) PreCoefficients() biquad.Coefficients { return d.preCoeffs }

// PostCoefficients returns the anti-alias filter design at the oversampled rate.
func (d *OversampledDistortion) PostCoefficients() biquad.Coefficients { return d.postCoeffs }

// clipUnit hard-clips to [-1, 1] and maps NaN to 0.
func clipUnit(x float64) float64 {
	if x != x {
		return 0
	}

	return core.HardClip(x)
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

package reverb

import (
	"fmt"
	"math"

	vecmath "github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-fx/dsp/core"
	"github.com/cwbudde/algo-fx/dsp/prime"
	"github.com/cwbudde/algo-fx/dsp/stream"
)

// NumTaps is the number of delay lines in the network: the combs followed
// by the allpass sections.
const NumTaps = NumCombs + NumAllpasses

const (
	// DefaultReverbTime is the 60 dB decay time in seconds.
	DefaultReverbTime = 1.0
	// DefaultLevel is the wet gain added to the dry signal.
	DefaultLevel = 0.6
	// DefaultAllpassGain is the gain of both allpass sections.
	DefaultAllpassGain = 0.7
	// DefaultBlockSize is the host buffer size in frames.
	DefaultBlockSize = 4096

	mixChunk = 256
)

var defaultDelayTimes = [NumTaps]float64{0.030, 0.035, 0.040, 0.045, 0.005, 0.0017}

// DefaultDelayTimes returns the default tap delays in seconds, combs first.
func DefaultDelayTimes() [NumTaps]float64 { return defaultDelayTimes }

// Option mutates construction-time parameters of Schroeder.
type Option func(*schroederConfig) error

type schroederConfig struct {
	reverbTime  float64
	level       float64
	delayTimes  [NumTaps]float64
	allpassGain float64
}

func defaultSchroederConfig() schroederConfig {
	return schroederConfig{
		reverbTime:  DefaultReverbTime,
		level:       DefaultLevel,
		delayTimes:  defaultDelayTimes,
		allpassGain: DefaultAllpassGain,
	}
}

// WithReverbTime sets the 60 dB decay time in seconds (> 0).
func WithReverbTime(seconds float64) Option {
	return func(cfg *schroederConfig) error {
		if seconds <= 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
			return fmt.Errorf("schroeder reverb time must be > 0 and finite: %f", seconds)
		}

		cfg.reverbTime = seconds

		return nil
	}
}

// WithLevel sets the wet gain (>= 0).
func WithLevel(level float64) Option {
	return func(cfg *schroederConfig) error {
		if level < 0 || math.IsNaN(level) || math.IsInf(level, 0) {
			return fmt.Errorf("schroeder level must be >= 0 and finite: %f", level)
		}

		cfg.level = level

		return nil
	}
}

// WithDelayTimes sets the tap delays in seconds, four combs followed by
// two allpass sections.
func WithDelayTimes(times [NumTaps]float64) Option {
	return func(cfg *schroederConfig) error {
		for i, tau := range times {
			if tau <= 0 || math.IsNaN(tau) || math.IsInf(tau, 0) {
				return fmt.Errorf("schroeder delay time %d must be > 0 and finite: %f", i, tau)
			}
		}

		cfg.delayTimes = times

		return nil
	}
}

// WithAllpassGain sets the gain of both allpass sections in [0, 1).
func WithAllpassGain(g float64) Option {
	return func(cfg *schroederConfig) error {
		if g < 0 || g >= 1 || math.IsNaN(g) {
			return fmt.Errorf("schroeder allpass gain must be in [0, 1): %f", g)
		}

		cfg.allpassGain = g

		return nil
	}
}

type network struct {
	combs   *CombBank
	allpass *AllpassChain
	wet     float64
}

func (n *network) process(x float64) float64 {
	n.wet = n.allpass.ProcessSample(n.combs.ProcessSample(x))
	return n.wet
}

// Schroeder is a Schroeder reverberator. With one channel it is the mono
// network; with more, every interleaved channel runs an independent copy.
type Schroeder struct {
	cfg    core.ProcessorConfig
	params schroederConfig

	lengths [NumTaps]int
	gains   [NumTaps]float64

	nets []network

	dry []float64
	wet []float64
}

// NewSchroeder creates a mono reverb at sampleRate and initializes it with
// DefaultBlockSize.
func NewSchroeder(sampleRate float64, opts ...Option) (*Schroeder, error) {
	params := defaultSchroederConfig()

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(&params); err != nil {
			return nil, err
		}
	}

	r := &Schroeder{params: params}

	err := r.Initialize(core.ProcessorConfig{
		SampleRate: sampleRate,
		BlockSize:  DefaultBlockSize,
		Channels:   1,
	})
	if err != nil {
		return nil, err
	}

	return r, nil
}

// Initialize selects prime delay lengths and comb gains for cfg, allocates
// delay buffers for every channel and clears them. A zero Schroeder
// initializes with the default parameters.
func (r *Schroeder) Initialize(cfg core.ProcessorConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("schroeder reverb: %w", err)
	}

	if r.params.reverbTime == 0 {
		r.params = defaultSchroederConfig()
	}

	p := r.params

	var lengths [NumTaps]int
	for i, tau := range p.delayTimes {
		lengths[i] = prime.Samples(tau, cfg.SampleRate)
	}

	var gains [NumTaps]float64
	for i := range NumCombs {
		gains[i] = CombGain(lengths[i], cfg.SampleRate, p.reverbTime)
	}

	for i := NumCombs; i < NumTaps; i++ {
		gains[i] = p.allpassGain
	}

	nets := make([]network, cfg.Channels)
	for ch := range nets {
		combs, err := NewCombBank([NumCombs]int(lengths[:NumCombs]), [NumCombs]float64(gains[:NumCombs]))
		if err != nil {
			return fmt.Errorf("schroeder reverb: %w", err)
		}

		allpass, err := NewAllpassChain([NumAllpasses]int(lengths[NumCombs:]), [NumAllpasses]float64(gains[NumCombs:]))
		if err != nil {
			return fmt.Errorf("schroeder reverb: %w", err)
		}

		nets[ch] = network{combs: combs, allpass: allpass}
	}

	chunk := min(cfg.BlockSize, mixChunk)

	r.cfg = cfg
	r.lengths = lengths
	r.gains = gains
	r.nets = nets
	r.dry = make([]float64, chunk)
	r.wet = make([]float64, chunk)

	return nil
}

// CombGain returns the feedback gain that makes a comb of length samples
// decay by 60 dB in reverbTime seconds.
func CombGain(length int, sampleRate, reverbTime float64) float64 {
	return math.Pow(10, -3*(float64(length)/sampleRate)/reverbTime)
}

// Reset clears every delay buffer.
func (r *Schroeder) Reset() {
	for ch := range r.nets {
		r.nets[ch].combs.Reset()
		r.nets[ch].allpass.Reset()
		r.nets[ch].wet = 0
	}
}

// ProcessSample processes one sample of channel 0.
func (r *Schroeder) ProcessSample(x float64) float64 {
	return r.ProcessChannel(0, x)
}

// ProcessChannel processes one sample of channel ch and returns the dry
// input plus the scaled reverb tail.
func (r *Schroeder) ProcessChannel(ch int, x float64) float64 {
	wet := r.nets[ch].process(x) * r.params.level
	return x + wet
}

// ProcessInPlace processes a mono buffer of channel 0 in place.
func (r *Schroeder) ProcessInPlace(buf []float64) {
	for i, x := range buf {
		buf[i] = r.ProcessSample(x)
	}
}

// ProcessBlock processes frames interleaved frames from in into out. A nil
// in is processed as silence. It returns stream.Abort when the reverb was
// never initialized.
func (r *Schroeder) ProcessBlock(in, out []float32, frames int) stream.Status {
	channels := len(r.nets)
	if channels == 0 {
		return stream.Abort
	}

	for start := 0; start < frames; start += len(r.dry) {
		n := min(len(r.dry), frames-start)
		dry := r.dry[:n]
		wet := r.wet[:n]

		for ch := range channels {
			net := &r.nets[ch]

			for i := range n {
				x := float64(stream.SampleAt(in, (start+i)*channels+ch))
				dry[i] = x
				wet[i] = net.process(x)
			}

			vecmath.ScaleBlockInPlace(wet, r.params.level)
			vecmath.AddBlockInPlace(wet, dry)

			for i, y := range wet {
				out[(start+i)*channels+ch] = float32(y)
			}
		}
	}

	return stream.Continue
}

// Wet returns the most recent tail sample v2 of channel 0, before level
// scaling.
func (r *Schroeder) Wet() float64 { return r.nets[0].wet }

// DelayLengths returns the tap lengths in samples, combs first.
func (r *Schroeder) DelayLengths() [NumTaps]int { return r.lengths }

// Gains returns the tap gains, combs first.
func (r *Schroeder) Gains() [NumTaps]float64 { return r.gains }

// SampleRate returns the sample rate in Hz.
func (r *Schroeder) SampleRate() float64 { return r.cfg.SampleRate }

// Channels returns the number of independent networks.
func (r *Schroeder) Channels() int { return len(r.nets) }

// ReverbTime returns the 60 dB decay time in seconds.
func (r *Schroeder) ReverbTime() float64 { return r.params.reverbTime }

// Level returns the wet gain.
func (r *Schroeder) Level() float64 { return r.params.level }

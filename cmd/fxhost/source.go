package main

import (
	"fmt"

	"github.com/cwbudde/algo-fx/dsp/core"
	"github.com/cwbudde/algo-fx/dsp/signal"
	"github.com/cwbudde/algo-fx/internal/wavio"
)

// inputSource selects the signal fed to an output-only backend.
type inputSource struct {
	wavPath   string
	kind      string
	seconds   float64
	freq      float64
	amplitude float64
	seed      int64
}

// generate builds frames of the selected test signal at cfg's rate and
// copies it to every channel. The returned slice is interleaved.
func (s inputSource) generate(cfg core.ProcessorConfig) ([]float32, int, error) {
	frames := int(s.seconds * cfg.SampleRate)
	if frames <= 0 {
		return nil, 0, fmt.Errorf("source duration must be > 0: %g s", s.seconds)
	}

	gen := signal.NewGeneratorWithOptions(
		[]core.ProcessorOption{core.WithSampleRate(cfg.SampleRate)},
		signal.WithSeed(s.seed),
	)

	var (
		mono []float64
		err  error
	)

	switch s.kind {
	case "sine":
		mono, err = gen.Sine(s.freq, s.amplitude, frames)
	case "impulse":
		mono, err = gen.Impulse(s.amplitude, frames)
	case "noise":
		mono, err = gen.WhiteNoise(s.amplitude, frames)
	case "silence":
		mono = make([]float64, frames)
	default:
		return nil, 0, fmt.Errorf("unknown signal %q (sine, impulse, noise, silence)", s.kind)
	}

	if err != nil {
		return nil, 0, err
	}

	out := make([]float32, frames*cfg.Channels)
	for i, x := range mono {
		for ch := range cfg.Channels {
			out[i*cfg.Channels+ch] = float32(x)
		}
	}

	return out, frames, nil
}

// load reads the selected WAV file and adapts cfg to its layout.
func (s inputSource) load(cfg core.ProcessorConfig) ([]float32, int, core.ProcessorConfig, error) {
	a, err := wavio.ReadFile(s.wavPath)
	if err != nil {
		return nil, 0, cfg, err
	}

	cfg.SampleRate = float64(a.SampleRate)
	cfg.Channels = a.Channels

	in := make([]float32, a.Frames()*a.Channels)
	core.ToFloat32(in, a.Data)

	return in, a.Frames(), cfg, nil
}

// resolve returns the interleaved input, its frame count and the session
// it must be played at.
func (s inputSource) resolve(cfg core.ProcessorConfig) ([]float32, int, core.ProcessorConfig, error) {
	if s.wavPath != "" {
		return s.load(cfg)
	}

	in, frames, err := s.generate(cfg)

	return in, frames, cfg, err
}

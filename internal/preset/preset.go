// Package preset loads effect parameter sets from JSON and turns them into
// constructor options.
package preset

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/cwbudde/algo-fx/dsp/core"
	"github.com/cwbudde/algo-fx/dsp/effects"
	"github.com/cwbudde/algo-fx/dsp/effects/reverb"
)

// ErrDelayTimes is returned when a preset lists the wrong number of reverb taps.
var ErrDelayTimes = fmt.Errorf("preset: reverb delay_times must have %d entries", reverb.NumTaps)

// Preset is a named parameter set for both effects. Omitted fields keep
// the effect defaults.
type Preset struct {
	Name       string     `json:"name,omitempty"`
	Session    Session    `json:"session"`
	Distortion Distortion `json:"distortion"`
	Reverb     Reverb     `json:"reverb"`
}

// Session overrides the host session settings.
type Session struct {
	SampleRate float64 `json:"sample_rate,omitempty"`
	BlockSize  int     `json:"block_size,omitempty"`
	Channels   int     `json:"channels,omitempty"`
}

// Distortion holds oversampled distortion parameters.
type Distortion struct {
	Drive        *float64 `json:"drive,omitempty"`
	OutputBoost  *float64 `json:"output_boost,omitempty"`
	Oversampling *int     `json:"oversampling,omitempty"`
	PreCutoff    *float64 `json:"pre_cutoff_hz,omitempty"`
	PostCutoff   *float64 `json:"post_cutoff_hz,omitempty"`
	ShapeScale   *float64 `json:"shape_scale,omitempty"`
	FilterQ      *float64 `json:"filter_q,omitempty"`
}

// Reverb holds Schroeder reverb parameters.
type Reverb struct {
	ReverbTime  *float64  `json:"reverb_time,omitempty"`
	Level       *float64  `json:"level,omitempty"`
	DelayTimes  []float64 `json:"delay_times,omitempty"`
	AllpassGain *float64  `json:"allpass_gain,omitempty"`
}

// Default returns a preset with every parameter spelled out at its
// default value.
func Default() *Preset {
	delays := reverb.DefaultDelayTimes()

	return &Preset{
		Name: "default",
		Distortion: Distortion{
			Drive:        ptr(effects.DefaultDrive),
			OutputBoost:  ptr(effects.DefaultOutputBoost),
			Oversampling: ptr(effects.DefaultOversampling),
			PreCutoff:    ptr(effects.DefaultPreCutoff),
			ShapeScale:   ptr(effects.DefaultShapeScale),
		},
		Reverb: Reverb{
			ReverbTime:  ptr(reverb.DefaultReverbTime),
			Level:       ptr(reverb.DefaultLevel),
			DelayTimes:  delays[:],
			AllpassGain: ptr(reverb.DefaultAllpassGain),
		},
	}
}

// Load decodes a preset. Unknown fields are rejected.
func Load(r io.Reader) (*Preset, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var p Preset
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("preset: decode: %w", err)
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}

	return &p, nil
}

// LoadFile decodes the preset stored at path.
func LoadFile(path string) (*Preset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Load(f)
}

// Save writes p as indented JSON.
func (p *Preset) Save(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(p)
}

// Validate checks structural constraints that the effect options cannot
// express. Parameter ranges are checked when the options are applied.
func (p *Preset) Validate() error {
	if n := len(p.Reverb.DelayTimes); n != 0 && n != reverb.NumTaps {
		return fmt.Errorf("%w, got %d", ErrDelayTimes, n)
	}

	s := p.Session
	if s.SampleRate < 0 || s.BlockSize < 0 || s.Channels < 0 {
		return errors.New("preset: session values must be >= 0")
	}

	return nil
}

// ApplySession overlays the non-zero session fields onto cfg.
func (p *Preset) ApplySession(cfg core.ProcessorConfig) core.ProcessorConfig {
	if p == nil {
		return cfg
	}

	if p.Session.SampleRate > 0 {
		cfg.SampleRate = p.Session.SampleRate
	}

	if p.Session.BlockSize > 0 {
		cfg.BlockSize = p.Session.BlockSize
	}

	if p.Session.Channels > 0 {
		cfg.Channels = p.Session.Channels
	}

	return cfg
}

// DistortionOptions converts the distortion section to constructor options.
func (p *Preset) DistortionOptions() []effects.OversampledOption {
	if p == nil {
		return nil
	}

	d := p.Distortion

	var opts []effects.OversampledOption

	if d.Drive != nil {
		opts = append(opts, effects.WithDrive(*d.Drive))
	}

	if d.OutputBoost != nil {
		opts = append(opts, effects.WithOutputBoost(*d.OutputBoost))
	}

	if d.Oversampling != nil {
		opts = append(opts, effects.WithOversampling(*d.Oversampling))
	}

	if d.PreCutoff != nil {
		opts = append(opts, effects.WithPreCutoff(*d.PreCutoff))
	}

	if d.PostCutoff != nil {
		opts = append(opts, effects.WithPostCutoff(*d.PostCutoff))
	}

	if d.ShapeScale != nil {
		opts = append(opts, effects.WithShapeScale(*d.ShapeScale))
	}

	if d.FilterQ != nil {
		opts = append(opts, effects.WithFilterQ(*d.FilterQ))
	}

	return opts
}

// ReverbOptions converts the reverb section to constructor options.
func (p *Preset) ReverbOptions() []reverb.Option {
	if p == nil {
		return nil
	}

	r := p.Reverb

	var opts []reverb.Option

	if r.ReverbTime != nil {
		opts = append(opts, reverb.WithReverbTime(*r.ReverbTime))
	}

	if r.Level != nil {
		opts = append(opts, reverb.WithLevel(*r.Level))
	}

	if len(r.DelayTimes) == reverb.NumTaps {
		opts = append(opts, reverb.WithDelayTimes([reverb.NumTaps]float64(r.DelayTimes)))
	}

	if r.AllpassGain != nil {
		opts = append(opts, reverb.WithAllpassGain(*r.AllpassGain))
	}

	return opts
}

func ptr[T any](v T) *T { return &v }

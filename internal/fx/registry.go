// Package fx names the effects a host can run and builds them for a
// session.
package fx

import (
	"errors"
	"fmt"
	"slices"

	"github.com/cwbudde/algo-fx/dsp/core"
	"github.com/cwbudde/algo-fx/dsp/effects"
	"github.com/cwbudde/algo-fx/dsp/effects/reverb"
	"github.com/cwbudde/algo-fx/dsp/stream"
	"github.com/cwbudde/algo-fx/internal/preset"
)

// Builder creates a processor for cfg from the parameters in p. A nil p
// selects the effect defaults.
type Builder func(p *preset.Preset, cfg core.ProcessorConfig) (stream.Processor, error)

// Effect describes one registered effect and its native session.
type Effect struct {
	Name        string
	Description string
	Channels    int
	BlockSize   int
	Build       Builder
}

// Session returns the effect's native session at 44.1 kHz, overlaid with
// the session section of p.
func (e Effect) Session(p *preset.Preset) core.ProcessorConfig {
	cfg := core.ApplyProcessorOptions(
		core.WithChannels(e.Channels),
		core.WithBlockSize(e.BlockSize),
	)

	return p.ApplySession(cfg)
}

// Factory binds p to the builder.
func (e Effect) Factory(p *preset.Preset) stream.Factory {
	return func(cfg core.ProcessorConfig) (stream.Processor, error) {
		return e.Build(p, cfg)
	}
}

// Registry maps effect names to descriptors.
type Registry struct {
	effects map[string]Effect
}

var (
	errDuplicateEffect = errors.New("duplicate effect")
	// ErrUnknownEffect is returned by Get for unregistered names.
	ErrUnknownEffect = errors.New("unknown effect")
)

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{effects: make(map[string]Effect)}
}

// Register adds an effect.
func (r *Registry) Register(e Effect) error {
	if e.Name == "" {
		return errors.New("empty effect name")
	}

	if e.Build == nil {
		return errors.New("nil builder")
	}

	if e.Channels <= 0 || e.BlockSize <= 0 {
		return fmt.Errorf("effect %s: channels and block size must be > 0", e.Name)
	}

	if _, exists := r.effects[e.Name]; exists {
		return fmt.Errorf("%w: %s", errDuplicateEffect, e.Name)
	}

	r.effects[e.Name] = e

	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(e Effect) {
	if err := r.Register(e); err != nil {
		panic("fx registry: " + err.Error())
	}
}

// Get returns the named effect.
func (r *Registry) Get(name string) (Effect, error) {
	e, ok := r.effects[name]
	if !ok {
		return Effect{}, fmt.Errorf("%w: %q (have %v)", ErrUnknownEffect, name, r.Names())
	}

	return e, nil
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.effects))
	for name := range r.effects {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// DefaultRegistry returns a registry holding the distortion and the reverb.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.MustRegister(Effect{
		Name:        "distortion",
		Description: "oversampled tanh distortion with band-limited input",
		Channels:    2,
		BlockSize:   256,
		Build: func(p *preset.Preset, cfg core.ProcessorConfig) (stream.Processor, error) {
			d, err := effects.NewOversampledDistortion(cfg.SampleRate, cfg.Channels, p.DistortionOptions()...)
			if err != nil {
				return nil, err
			}

			if err := d.Initialize(cfg); err != nil {
				return nil, err
			}

			return d, nil
		},
	})

	r.MustRegister(Effect{
		Name:        "reverb",
		Description: "Schroeder reverb with prime-length comb and allpass delays",
		Channels:    1,
		BlockSize:   reverb.DefaultBlockSize,
		Build: func(p *preset.Preset, cfg core.ProcessorConfig) (stream.Processor, error) {
			rv, err := reverb.NewSchroeder(cfg.SampleRate, p.ReverbOptions()...)
			if err != nil {
				return nil, err
			}

			if err := rv.Initialize(cfg); err != nil {
				return nil, err
			}

			return rv, nil
		},
	})

	return r
}

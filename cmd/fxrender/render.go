package main

import (
	"context"
	"fmt"

	"github.com/cwbudde/algo-fx/dsp/core"
	"github.com/cwbudde/algo-fx/dsp/stream"
	"github.com/cwbudde/algo-fx/internal/fx"
	"github.com/cwbudde/algo-fx/internal/preset"
	"github.com/cwbudde/algo-fx/internal/wavio"
)

// session returns the effect session for a file with the given layout.
func session(e fx.Effect, p *preset.Preset, sampleRate, channels int) core.ProcessorConfig {
	cfg := e.Session(p)
	cfg.SampleRate = float64(sampleRate)
	cfg.Channels = channels

	return cfg
}

// render runs src through a fresh instance of e and appends tailSeconds
// of processed silence so decaying effects ring out.
func render(ctx context.Context, e fx.Effect, p *preset.Preset, src *wavio.Audio, tailSeconds float64) (*wavio.Audio, error) {
	if src.Channels <= 0 || src.SampleRate <= 0 {
		return nil, fmt.Errorf("render %s: invalid layout %d ch at %d Hz", e.Name, src.Channels, src.SampleRate)
	}

	cfg := session(e, p, src.SampleRate, src.Channels)

	proc, err := e.Build(p, cfg)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", e.Name, err)
	}

	tail := int(max(tailSeconds, 0) * cfg.SampleRate)
	frames := src.Frames() + tail

	in := make([]float32, frames*cfg.Channels)
	core.ToFloat32(in, src.Data[:src.Frames()*cfg.Channels])

	out, err := stream.Run(ctx, proc, cfg, in, frames)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", e.Name, err)
	}

	dst := &wavio.Audio{
		SampleRate: src.SampleRate,
		Channels:   src.Channels,
		Data:       make([]float64, len(out)),
	}
	core.ToFloat64(dst.Data, out)

	return dst, nil
}

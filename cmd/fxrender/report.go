package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/cwbudde/algo-fx/dsp/core"
	"github.com/cwbudde/algo-fx/dsp/signal"
	"github.com/cwbudde/algo-fx/dsp/stream"
	"github.com/cwbudde/algo-fx/internal/fx"
	"github.com/cwbudde/algo-fx/internal/preset"
	"github.com/cwbudde/algo-fx/measure/ir"
	"github.com/cwbudde/algo-fx/measure/thd"
)

const (
	reportFFTSize  = 8192
	reportWarmup   = 2048
	reportToneHz   = 1000.0
	reportToneGain = 0.5

	// reportTailPad is rendered past the configured decay time.
	reportTailPad = 1.5
)

// measurement is one row of the -report table.
type measurement struct {
	name  string
	value float64
	unit  string
}

type reverbTimer interface {
	ReverbTime() float64
}

// measure characterises e at sampleRate: decay metrics for effects that
// expose a reverb time, harmonic distortion for everything else.
func measure(ctx context.Context, e fx.Effect, p *preset.Preset, sampleRate int) ([]measurement, error) {
	cfg := session(e, p, sampleRate, 1)

	proc, err := e.Build(p, cfg)
	if err != nil {
		return nil, err
	}

	if rt, ok := proc.(reverbTimer); ok {
		return measureDecay(ctx, proc, cfg, rt.ReverbTime())
	}

	return measureDistortion(ctx, proc, cfg)
}

func measureDecay(ctx context.Context, proc stream.Processor, cfg core.ProcessorConfig, target float64) ([]measurement, error) {
	gen := signal.NewGenerator(core.WithSampleRate(cfg.SampleRate))

	impulse, err := gen.Impulse(1, int((target+reportTailPad)*cfg.SampleRate))
	if err != nil {
		return nil, err
	}

	in := make([]float32, len(impulse))
	core.ToFloat32(in, impulse)

	out, err := stream.Run(ctx, proc, cfg, in, len(in))
	if err != nil {
		return nil, err
	}

	// Strip the dry path so only the reverberant tail is analysed.
	wet := make([]float64, len(out))
	core.ToFloat64(wet, out)

	for i, x := range impulse {
		wet[i] -= x
	}

	m, err := ir.NewAnalyzer(cfg.SampleRate).Analyze(wet)
	if err != nil {
		return nil, fmt.Errorf("decay analysis: %w", err)
	}

	return []measurement{
		{"target RT60", target, "s"},
		{"RT60", m.RT60, "s"},
		{"EDT", m.EDT, "s"},
		{"-60 dB crossing", m.Crossing60, "s"},
	}, nil
}

func measureDistortion(ctx context.Context, proc stream.Processor, cfg core.ProcessorConfig) ([]measurement, error) {
	gen := signal.NewGenerator(core.WithSampleRate(cfg.SampleRate))

	freq, err := gen.BinCentredFrequency(reportToneHz, reportFFTSize)
	if err != nil {
		return nil, err
	}

	tone, err := gen.Sine(freq, reportToneGain, reportWarmup+reportFFTSize)
	if err != nil {
		return nil, err
	}

	in := make([]float32, len(tone))
	core.ToFloat32(in, tone)

	out, err := stream.Run(ctx, proc, cfg, in, len(in))
	if err != nil {
		return nil, err
	}

	y := make([]float64, reportFFTSize)
	core.ToFloat64(y, out[reportWarmup:])

	res := thd.AnalyzeSignal(y, thd.Config{
		SampleRate:      cfg.SampleRate,
		FFTSize:         reportFFTSize,
		FundamentalFreq: freq,
	})

	return []measurement{
		{"tone", freq, "Hz"},
		{"THD", 100 * res.THD, "%"},
		{"THD+N", 100 * res.THDN, "%"},
		{"SINAD", res.SINAD, "dB"},
		{"inharmonic", res.Inharmonic_dB, "dB"},
	}, nil
}

func printReport(w io.Writer, effect string, rows []measurement) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	if _, err := fmt.Fprintf(tw, "Effect\tMeasure\tValue\tUnit\n------\t-------\t-----\t----\n"); err != nil {
		return err
	}

	for _, r := range rows {
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%.4f\t%s\n", effect, r.name, r.value, r.unit); err != nil {
			return err
		}
	}

	return tw.Flush()
}

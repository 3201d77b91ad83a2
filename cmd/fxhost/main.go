// Command fxhost runs an effect in real time.
//
// Usage:
//
//	fxhost [flags]
//
// The portaudio backend streams the default input device through the
// effect into the default output device until Enter or Ctrl-C. The oto
// backend is output-only and plays a WAV file or a generated test signal
// through the effect.
//
// Examples:
//
//	fxhost -effect distortion
//	fxhost -effect reverb -preset hall.json
//	fxhost -backend oto -effect reverb -signal impulse -seconds 3
//	fxhost -backend oto -effect distortion -in guitar.wav
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/cwbudde/algo-fx/dsp/core"
	"github.com/cwbudde/algo-fx/internal/fx"
	"github.com/cwbudde/algo-fx/internal/host/otoplay"
	"github.com/cwbudde/algo-fx/internal/host/pa"
	"github.com/cwbudde/algo-fx/internal/preset"
)

func main() {
	effect := flag.String("effect", "distortion", "effect to run (use -list to see available)")
	presetPath := flag.String("preset", "", "optional preset JSON path")
	backend := flag.String("backend", "portaudio", "audio backend: portaudio|oto")
	sampleRate := flag.Float64("sample-rate", 0, "override the session sample rate")
	blockSize := flag.Int("block-size", 0, "override the session block size")
	list := flag.Bool("list", false, "list available effects")
	verbose := flag.Bool("v", false, "verbose logging")

	var src inputSource
	flag.StringVar(&src.wavPath, "in", "", "oto: WAV file to play through the effect")
	flag.StringVar(&src.kind, "signal", "sine", "oto: generated input: sine|impulse|noise|silence")
	flag.Float64Var(&src.seconds, "seconds", 2, "oto: generated input duration")
	flag.Float64Var(&src.freq, "freq", 220, "oto: sine frequency in Hz")
	flag.Float64Var(&src.amplitude, "amplitude", 0.5, "oto: generated input peak")
	flag.Int64Var(&src.seed, "seed", 1, "oto: noise seed")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	reg := fx.DefaultRegistry()

	if *list {
		for _, name := range reg.Names() {
			e, _ := reg.Get(name)
			fmt.Printf("%-12s %s\n", name, e.Description)
		}
		return
	}

	e, err := reg.Get(*effect)
	if err != nil {
		die(logger, "select effect", err)
	}

	var p *preset.Preset
	if *presetPath != "" {
		p, err = preset.LoadFile(*presetPath)
		if err != nil {
			die(logger, "load preset", err)
		}
	}

	cfg := e.Session(p)
	if *sampleRate > 0 {
		cfg.SampleRate = *sampleRate
	}
	if *blockSize > 0 {
		cfg.BlockSize = *blockSize
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch *backend {
	case "portaudio":
		err = runDuplex(ctx, logger, e, p, cfg)
	case "oto":
		err = runOto(ctx, logger, e, p, cfg, src)
	default:
		err = fmt.Errorf("unknown backend %q", *backend)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		die(logger, "run", err)
	}

	logger.Info("terminated")
}

func runDuplex(ctx context.Context, logger *slog.Logger, e fx.Effect, p *preset.Preset, cfg core.ProcessorConfig) (err error) {
	proc, err := e.Build(p, cfg)
	if err != nil {
		return err
	}

	d, err := pa.Open(proc, cfg)
	if err != nil {
		return err
	}

	defer func() {
		err = errors.Join(err, d.Close())
	}()

	info := d.Info()
	logger.Info("stream open", "effect", e.Name, "input", info.Input, "output", info.Output,
		"sample_rate", info.SampleRate, "channels", info.Channels, "block_size", info.BlockSize)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The read cannot be interrupted; it is abandoned when the process exits.
	go func() {
		_, _ = bufio.NewReader(os.Stdin).ReadString('\n')
		cancel()
	}()

	fmt.Fprintln(os.Stderr, "press Enter to stop")

	return d.Run(ctx)
}

func runOto(ctx context.Context, logger *slog.Logger, e fx.Effect, p *preset.Preset, cfg core.ProcessorConfig, src inputSource) error {
	in, frames, cfg, err := src.resolve(cfg)
	if err != nil {
		return err
	}

	proc, err := e.Build(p, cfg)
	if err != nil {
		return err
	}

	logger.Info("playing", "effect", e.Name, "sample_rate", cfg.SampleRate,
		"channels", cfg.Channels, "block_size", cfg.BlockSize, "frames", frames)

	return otoplay.Play(ctx, proc, cfg, in, frames)
}

func die(logger *slog.Logger, op string, err error) {
	logger.Error(op+" failed", "err", err)
	os.Exit(1)
}

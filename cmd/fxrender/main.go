// Command fxrender runs WAV files through an effect offline.
//
// Usage:
//
//	fxrender [flags] input.wav ...
//
// Every input is rendered concurrently with its own effect instance and
// written next to the input as <name>.<effect>.wav unless -out-dir is set.
//
// Examples:
//
//	fxrender -effect distortion guitar.wav
//	fxrender -effect reverb -preset hall.json -tail 3 vocals.wav drums.wav
//	fxrender -effect reverb -report
//	fxrender -dump-preset > default.json
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/algo-fx/internal/fx"
	"github.com/cwbudde/algo-fx/internal/preset"
	"github.com/cwbudde/algo-fx/internal/wavio"
)

type options struct {
	effect     string
	presetPath string
	outDir     string
	tail       float64
	bits       int
	dither     bool
	seed       int64
	jobs       int
	sampleRate int
}

func main() {
	var o options

	flag.StringVar(&o.effect, "effect", "distortion", "effect to apply (use -list to see available)")
	flag.StringVar(&o.presetPath, "preset", "", "optional preset JSON path")
	flag.StringVar(&o.outDir, "out-dir", "", "output directory (default: next to each input)")
	flag.Float64Var(&o.tail, "tail", 0, "seconds of silence rendered after each input")
	flag.IntVar(&o.bits, "bits", 16, "output bit depth: 16 or 24")
	flag.BoolVar(&o.dither, "dither", true, "apply TPDF dither before quantizing")
	flag.Int64Var(&o.seed, "seed", 1, "dither seed")
	flag.IntVar(&o.jobs, "jobs", runtime.NumCPU(), "files rendered in parallel")
	flag.IntVar(&o.sampleRate, "sample-rate", 44100, "sample rate used by -report")
	list := flag.Bool("list", false, "list available effects")
	report := flag.Bool("report", false, "measure the effect instead of rendering files")
	dumpPreset := flag.Bool("dump-preset", false, "write the default preset as JSON to stdout")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: fxrender [flags] input.wav ...\n\n")
		fmt.Fprintf(os.Stderr, "Renders WAV files through an audio effect.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  fxrender -effect distortion guitar.wav\n")
		fmt.Fprintf(os.Stderr, "  fxrender -effect reverb -tail 3 vocals.wav drums.wav\n")
		fmt.Fprintf(os.Stderr, "  fxrender -effect reverb -report\n")
	}
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	reg := fx.DefaultRegistry()

	switch {
	case *list:
		for _, name := range reg.Names() {
			e, _ := reg.Get(name)
			fmt.Printf("%-12s %s\n", name, e.Description)
		}
		return
	case *dumpPreset:
		if err := preset.Default().Save(os.Stdout); err != nil {
			die(logger, "write preset", err)
		}
		return
	}

	e, err := reg.Get(o.effect)
	if err != nil {
		die(logger, "select effect", err)
	}

	var p *preset.Preset
	if o.presetPath != "" {
		p, err = preset.LoadFile(o.presetPath)
		if err != nil {
			die(logger, "load preset", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *report {
		rows, err := measure(ctx, e, p, o.sampleRate)
		if err != nil {
			die(logger, "measure", err)
		}
		if err := printReport(os.Stdout, e.Name, rows); err != nil {
			die(logger, "write report", err)
		}
		return
	}

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	if err := renderFiles(ctx, logger, e, p, o, flag.Args()); err != nil {
		die(logger, "render", err)
	}
}

// renderFiles renders every input on its own goroutine, bounded by o.jobs.
// The first failure cancels the remaining renders.
func renderFiles(ctx context.Context, logger *slog.Logger, e fx.Effect, p *preset.Preset, o options, inputs []string) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(o.jobs, 1))

	for _, path := range inputs {
		g.Go(func() error {
			src, err := wavio.ReadFile(path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}

			logger.Debug("rendering", "input", path, "effect", e.Name,
				"sample_rate", src.SampleRate, "channels", src.Channels, "frames", src.Frames())

			dst, err := render(ctx, e, p, src, o.tail)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}

			outPath := outputPath(path, o.outDir, e.Name)

			err = wavio.WriteFile(outPath, dst, wavio.WriteOptions{
				BitDepth: o.bits,
				Dither:   o.dither,
				Seed:     o.seed,
			})
			if err != nil {
				return fmt.Errorf("%s: %w", outPath, err)
			}

			logger.Info("rendered", "input", path, "output", outPath)

			return nil
		})
	}

	return g.Wait()
}

// outputPath maps in/song.wav to <dir>/song.<effect>.wav. An empty dir
// keeps the input directory.
func outputPath(input, dir, effect string) string {
	base := filepath.Base(input)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	if dir == "" {
		dir = filepath.Dir(input)
	}

	return filepath.Join(dir, stem+"."+effect+".wav")
}

func die(logger *slog.Logger, op string, err error) {
	logger.Error(op+" failed", "err", err)
	os.Exit(1)
}

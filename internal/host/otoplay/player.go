// Package otoplay plays processor output through oto, an output-only
// backend that needs no input device.
package otoplay

import (
	"context"
	"errors"
	"fmt"

	"github.com/hajimehoshi/oto"

	"github.com/cwbudde/algo-fx/dsp/core"
	"github.com/cwbudde/algo-fx/dsp/stream"
	"github.com/cwbudde/algo-fx/internal/host"
)

const bitDepthInBytes = 2

// minBufferBytes keeps the driver buffer at or above what oto requires on
// every platform.
const minBufferBytes = 4096

// Play renders frames interleaved frames of in through proc and plays the
// result. A nil in is silence. Play blocks until playback is written out,
// the processor stops, or ctx is cancelled.
func Play(ctx context.Context, proc stream.Processor, cfg core.ProcessorConfig, in []float32, frames int) (err error) {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("otoplay: %w", err)
	}

	bufferBytes := max(cfg.BlockSize*cfg.Channels*bitDepthInBytes, minBufferBytes)

	otoCtx, err := oto.NewContext(int(cfg.SampleRate), cfg.Channels, bitDepthInBytes, bufferBytes)
	if err != nil {
		return fmt.Errorf("otoplay: context: %w", err)
	}

	defer func() {
		if cerr := otoCtx.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("otoplay: close context: %w", cerr))
		}
	}()

	player := otoCtx.NewPlayer()

	defer func() {
		if cerr := player.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("otoplay: close player: %w", cerr))
		}
	}()

	return host.Pump(ctx, player, proc, cfg, in, frames)
}

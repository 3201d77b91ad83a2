package stream

import (
	"context"
	"errors"
	"fmt"

	"github.com/cwbudde/algo-fx/dsp/core"
)

// Status is returned by ProcessBlock to drive the host stream.
type Status int

const (
	// Continue keeps the stream running.
	Continue Status = iota
	// Complete finishes the stream after the current block has played.
	Complete
	// Abort stops the stream immediately.
	Abort
)

func (s Status) String() string {
	switch s {
	case Continue:
		return "continue"
	case Complete:
		return "complete"
	case Abort:
		return "abort"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

var (
	// ErrNotInitialized is returned when a processor is driven before
	// Initialize succeeded.
	ErrNotInitialized = errors.New("stream: processor not initialized")
	// ErrAborted is returned by Run when the processor reports Abort.
	ErrAborted = errors.New("stream: processor aborted")
)

// Processor is a block-based effect driven by an audio host.
type Processor interface {
	// Initialize designs coefficients and sizes buffers for the session.
	// It clears all processing state.
	Initialize(cfg core.ProcessorConfig) error
	// ProcessBlock processes frames interleaved frames from in into out.
	// A nil in is silence. It must not allocate.
	ProcessBlock(in, out []float32, frames int) Status
	// Reset clears processing state without changing the configuration.
	Reset()
}

// Factory creates a processor and initializes it for cfg.
type Factory func(cfg core.ProcessorConfig) (Processor, error)

// SampleAt returns in[i], or 0 when the host delivered no input.
func SampleAt(in []float32, i int) float32 {
	if in == nil {
		return 0
	}
	return in[i]
}

// Run drives p over frames interleaved frames of in, calling ProcessBlock
// with at most cfg.BlockSize frames per call, and returns the interleaved
// output. A nil in renders frames of silence.
//
// Run stops early when the processor returns Complete, returning the
// output produced so far. Abort yields ErrAborted. ctx is checked between
// blocks.
func Run(ctx context.Context, p Processor, cfg core.ProcessorConfig, in []float32, frames int) ([]float32, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("stream: %w", err)
	}
	if frames < 0 {
		return nil, fmt.Errorf("stream: frame count must be >= 0: %d", frames)
	}

	ch := cfg.Channels
	if in != nil && len(in) < frames*ch {
		return nil, fmt.Errorf("stream: input holds %d samples, need %d frames x %d channels",
			len(in), frames, ch)
	}

	out := make([]float32, frames*ch)

	for start := 0; start < frames; start += cfg.BlockSize {
		if err := ctx.Err(); err != nil {
			return out[:start*ch], err
		}

		n := min(cfg.BlockSize, frames-start)

		var blockIn []float32
		if in != nil {
			blockIn = in[start*ch : (start+n)*ch]
		}

		status := p.ProcessBlock(blockIn, out[start*ch:(start+n)*ch], n)
		switch status {
		case Continue:
		case Complete:
			return out[:(start+n)*ch], nil
		default:
			return out[:start*ch], fmt.Errorf("%w at frame %d", ErrAborted, start)
		}
	}

	return out, nil
}

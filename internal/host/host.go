// Package host adapts stream processors to audio device callbacks and
// blocking writers. Device bindings live in the pa and otoplay
// subpackages; this package holds the device-independent parts.
package host

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-fx/dsp/core"
	"github.com/cwbudde/algo-fx/dsp/stream"
)

// Callback turns a Processor into a device callback. It records the first
// non-Continue status and publishes it on Done.
type Callback struct {
	proc     stream.Processor
	channels int

	stopped atomic.Bool
	done    chan stream.Status
}

// NewCallback wraps proc for a device delivering interleaved buffers of
// channels channels.
func NewCallback(proc stream.Processor, channels int) *Callback {
	return &Callback{
		proc:     proc,
		channels: channels,
		done:     make(chan stream.Status, 1),
	}
}

// Done delivers Complete or Abort once the processor asks to stop.
func (c *Callback) Done() <-chan stream.Status { return c.done }

// Process handles one device buffer. A nil in is passed through as the
// absent-input case. After the processor stopped the stream, out is
// filled with silence.
func (c *Callback) Process(in, out []float32) {
	if c.stopped.Load() {
		clear(out)
		return
	}

	frames := len(out) / c.channels

	status := c.proc.ProcessBlock(in, out, frames)
	if status == stream.Continue {
		return
	}

	if status == stream.Abort {
		clear(out)
	}

	if c.stopped.CompareAndSwap(false, true) {
		c.done <- status
	}
}

// ProcessOutput handles an output-only device buffer.
func (c *Callback) ProcessOutput(out []float32) {
	c.Process(nil, out)
}

// Pump drives proc over frames interleaved frames of in, block by block,
// and writes each output block to w as 16-bit little-endian PCM. A nil in
// is silence. Pump returns when all frames are written, the processor
// stops, or ctx is cancelled.
func Pump(ctx context.Context, w io.Writer, proc stream.Processor, cfg core.ProcessorConfig, in []float32, frames int) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("host: %w", err)
	}

	ch := cfg.Channels
	if in != nil && len(in) < frames*ch {
		return fmt.Errorf("host: input holds %d samples, need %d frames x %d channels", len(in), frames, ch)
	}

	out := make([]float32, cfg.BlockSize*ch)
	raw := make([]byte, 2*len(out))

	for start := 0; start < frames; start += cfg.BlockSize {
		if err := ctx.Err(); err != nil {
			return err
		}

		n := min(cfg.BlockSize, frames-start)

		var blockIn []float32
		if in != nil {
			blockIn = in[start*ch : (start+n)*ch]
		}

		status := proc.ProcessBlock(blockIn, out[:n*ch], n)
		if status == stream.Abort {
			return fmt.Errorf("%w at frame %d", stream.ErrAborted, start)
		}

		EncodeInt16LE(raw[:2*n*ch], out[:n*ch])

		if _, err := w.Write(raw[:2*n*ch]); err != nil {
			return fmt.Errorf("host: write: %w", err)
		}

		if status == stream.Complete {
			return nil
		}
	}

	return nil
}

// EncodeInt16LE converts samples to clipped 16-bit little-endian PCM.
// dst must hold 2*len(src) bytes.
func EncodeInt16LE(dst []byte, src []float32) {
	for i, v := range src {
		x := core.HardClip(float64(v))
		if math.IsNaN(x) {
			x = 0
		}

		binary.LittleEndian.PutUint16(dst[2*i:], uint16(int16(math.Round(x*math.MaxInt16))))
	}
}

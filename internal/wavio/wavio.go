// Package wavio reads and writes interleaved PCM WAV files as float64
// samples in [-1, 1].
package wavio

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/cwbudde/algo-vecmath"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const wavFormatPCM = 1

var (
	// ErrInvalidFile is returned when the input is not a readable WAV file.
	ErrInvalidFile = errors.New("wavio: not a valid wav file")
	// ErrUnsupportedBitDepth is returned for bit depths other than 8, 16, 24 and 32.
	ErrUnsupportedBitDepth = errors.New("wavio: unsupported bit depth")
)

// Audio is an interleaved multichannel signal.
type Audio struct {
	SampleRate int
	Channels   int
	Data       []float64
}

// Frames returns the number of sample frames.
func (a *Audio) Frames() int {
	if a.Channels <= 0 {
		return 0
	}

	return len(a.Data) / a.Channels
}

// Channel returns a copy of one channel.
func (a *Audio) Channel(ch int) []float64 {
	if ch < 0 || ch >= a.Channels {
		return nil
	}

	out := make([]float64, a.Frames())
	for i := range out {
		out[i] = a.Data[i*a.Channels+ch]
	}

	return out
}

// Read decodes a PCM WAV stream.
func Read(r io.ReadSeeker) (*Audio, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, ErrInvalidFile
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("wavio: decode pcm: %w", err)
	}

	bits := int(dec.BitDepth)
	if !validBitDepth(bits) {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, bits)
	}

	out := &Audio{
		SampleRate: buf.Format.SampleRate,
		Channels:   buf.Format.NumChannels,
		Data:       make([]float64, len(buf.Data)),
	}

	scale := 1 / float64(int64(1)<<(bits-1))

	for i, v := range buf.Data {
		if bits == 8 {
			// 8-bit WAV data is unsigned with a 128 offset.
			v -= 128
		}

		out.Data[i] = float64(v) * scale
	}

	return out, nil
}

// ReadFile decodes the WAV file at path.
func ReadFile(path string) (*Audio, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Read(f)
}

// WriteOptions controls quantization on output.
type WriteOptions struct {
	// BitDepth is 16 or 24. Zero selects 16.
	BitDepth int
	// Dither adds 1 LSB TPDF noise before rounding.
	Dither bool
	// Seed selects the dither sequence.
	Seed int64
}

// Write encodes a as a PCM WAV stream. Samples are clipped to [-1, 1].
func Write(w io.WriteSeeker, a *Audio, opts WriteOptions) error {
	bits := opts.BitDepth
	if bits == 0 {
		bits = 16
	}

	if bits != 16 && bits != 24 {
		return fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, bits)
	}

	if a.SampleRate <= 0 || a.Channels <= 0 {
		return fmt.Errorf("wavio: invalid format: %d Hz, %d channels", a.SampleRate, a.Channels)
	}

	fullScale := float64(int64(1)<<(bits-1) - 1)

	scaled := make([]float64, len(a.Data))
	vecmath.ScaleBlock(scaled, a.Data, fullScale)

	if opts.Dither {
		vecmath.AddDitherTPDF(scaled, 1, vecmath.NewDitherState(opts.Seed))
	}

	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: a.Channels, SampleRate: a.SampleRate},
		Data:           make([]int, len(scaled)),
		SourceBitDepth: bits,
	}

	for i, v := range scaled {
		buf.Data[i] = quantize(v, fullScale)
	}

	enc := wav.NewEncoder(w, a.SampleRate, bits, a.Channels, wavFormatPCM)
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("wavio: encode: %w", err)
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("wavio: finalize: %w", err)
	}

	return nil
}

// WriteFile encodes a into a new file at path.
func WriteFile(path string, a *Audio, opts WriteOptions) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	return Write(f, a, opts)
}

func quantize(v, fullScale float64) int {
	switch {
	case math.IsNaN(v):
		return 0
	case v > fullScale:
		v = fullScale
	case v < -fullScale:
		v = -fullScale
	}

	if v < 0 {
		return int(v - 0.5)
	}

	return int(v + 0.5)
}

func validBitDepth(bits int) bool {
	switch bits {
	case 8, 16, 24, 32:
		return true
	default:
		return false
	}
}

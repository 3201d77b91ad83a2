package stream

import (
	"context"
	"errors"
	"testing"

	"github.com/cwbudde/algo-fx/dsp/core"
)

// gainProcessor scales input by a fixed factor and records block sizes.
type gainProcessor struct {
	gain     float32
	channels int
	blocks   []int
	stopAt   int
	status   Status
}

func (g *gainProcessor) Initialize(cfg core.ProcessorConfig) error {
	g.channels = cfg.Channels
	return nil
}

func (g *gainProcessor) ProcessBlock(in, out []float32, frames int) Status {
	g.blocks = append(g.blocks, frames)
	for i := 0; i < frames*g.channels; i++ {
		out[i] = g.gain * SampleAt(in, i)
	}
	if g.stopAt > 0 && len(g.blocks) == g.stopAt {
		return g.status
	}
	return Continue
}

func (g *gainProcessor) Reset() { g.blocks = nil }

func TestStatusString(t *testing.T) {
	cases := map[Status]string{
		Continue:  "continue",
		Complete:  "complete",
		Abort:     "abort",
		Status(9): "Status(9)",
	}
	for s, want := range cases {
		if got := s.String(); got != want {
			t.Errorf("Status(%d).String() = %q, want %q", int(s), got, want)
		}
	}
}

func TestSampleAt(t *testing.T) {
	if got := SampleAt(nil, 5); got != 0 {
		t.Fatalf("nil input: got %v", got)
	}
	if got := SampleAt([]float32{1, 2, 3}, 2); got != 3 {
		t.Fatalf("got %v want 3", got)
	}
}

func TestRun_BlockSplitting(t *testing.T) {
	cfg := core.ProcessorConfig{SampleRate: 48000, BlockSize: 4, Channels: 2}
	p := &gainProcessor{gain: 2}
	if err := p.Initialize(cfg); err != nil {
		t.Fatal(err)
	}

	frames := 10
	in := make([]float32, frames*2)
	for i := range in {
		in[i] = float32(i)
	}

	out, err := Run(context.Background(), p, cfg, in, frames)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("output length %d want %d", len(out), len(in))
	}
	for i := range out {
		if out[i] != 2*in[i] {
			t.Fatalf("out[%d]=%v want %v", i, out[i], 2*in[i])
		}
	}

	want := []int{4, 4, 2}
	if len(p.blocks) != len(want) {
		t.Fatalf("blocks %v want %v", p.blocks, want)
	}
	for i := range want {
		if p.blocks[i] != want[i] {
			t.Fatalf("blocks %v want %v", p.blocks, want)
		}
	}
}

func TestRun_NilInputIsSilence(t *testing.T) {
	cfg := core.ProcessorConfig{SampleRate: 44100, BlockSize: 3, Channels: 1}
	p := &gainProcessor{gain: 5, channels: 1}

	out, err := Run(context.Background(), p, cfg, nil, 7)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 7 {
		t.Fatalf("length %d want 7", len(out))
	}
	for i, v := range out {
		if v != 0 {
			t.Fatalf("out[%d]=%v want 0", i, v)
		}
	}
}

func TestRun_CompleteStopsEarly(t *testing.T) {
	cfg := core.ProcessorConfig{SampleRate: 44100, BlockSize: 2, Channels: 1}
	p := &gainProcessor{gain: 1, channels: 1, stopAt: 2, status: Complete}

	out, err := Run(context.Background(), p, cfg, nil, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 4 {
		t.Fatalf("length %d want 4", len(out))
	}
}

func TestRun_Abort(t *testing.T) {
	cfg := core.ProcessorConfig{SampleRate: 44100, BlockSize: 2, Channels: 1}
	p := &gainProcessor{gain: 1, channels: 1, stopAt: 3, status: Abort}

	out, err := Run(context.Background(), p, cfg, nil, 10)
	if !errors.Is(err, ErrAborted) {
		t.Fatalf("err = %v, want ErrAborted", err)
	}
	if len(out) != 4 {
		t.Fatalf("length %d want 4", len(out))
	}
}

func TestRun_Validation(t *testing.T) {
	p := &gainProcessor{channels: 1}
	ctx := context.Background()

	if _, err := Run(ctx, p, core.ProcessorConfig{}, nil, 4); err == nil {
		t.Fatal("expected error for zero config")
	}

	cfg := core.ProcessorConfig{SampleRate: 44100, BlockSize: 4, Channels: 2}
	if _, err := Run(ctx, p, cfg, make([]float32, 5), 4); err == nil {
		t.Fatal("expected error for short input")
	}
	if _, err := Run(ctx, p, cfg, nil, -1); err == nil {
		t.Fatal("expected error for negative frames")
	}
}

func TestRun_ContextCancelled(t *testing.T) {
	cfg := core.ProcessorConfig{SampleRate: 44100, BlockSize: 4, Channels: 1}
	p := &gainProcessor{channels: 1}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, p, cfg, nil, 16)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if len(p.blocks) != 0 {
		t.Fatalf("processed %d blocks after cancel", len(p.blocks))
	}
}

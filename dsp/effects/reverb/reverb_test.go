package reverb

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-fx/dsp/core"
	"github.com/cwbudde/algo-fx/dsp/prime"
	"github.com/cwbudde/algo-fx/dsp/stream"
	"github.com/cwbudde/algo-fx/internal/testutil"
	"github.com/cwbudde/algo-fx/measure/ir"
)

const eps = 1e-12

func newTestSchroeder(t *testing.T, opts ...Option) *Schroeder {
	t.Helper()

	r, err := NewSchroeder(44100, opts...)
	if err != nil {
		t.Fatalf("NewSchroeder() error = %v", err)
	}

	return r
}

func TestCombBankStoresOutput(t *testing.T) {
	b, err := NewCombBank([NumCombs]int{5, 7, 11, 13}, [NumCombs]float64{0.5, 0, 0, 0})
	if err != nil {
		t.Fatal(err)
	}

	want := map[int]float64{0: 4, 5: 0.5, 10: 0.25, 15: 0.125, 7: 0, 11: 0}
	got := make([]float64, 16)
	for n := range got {
		var x float64
		if n == 0 {
			x = 1
		}
		got[n] = b.ProcessSample(x)
	}

	for n, w := range want {
		if math.Abs(got[n]-w) > eps {
			t.Errorf("n=%d: got %v want %v", n, got[n], w)
		}
	}
	if b.Lengths() != [NumCombs]int{5, 7, 11, 13} {
		t.Fatalf("Lengths() = %v", b.Lengths())
	}
}

func TestCombBankMarkerLatency(t *testing.T) {
	// With unity gain each comb re-emits an impulse every d samples.
	lengths := [NumCombs]int{3, 5, 7, 11}
	b, err := NewCombBank(lengths, [NumCombs]float64{1, 1, 1, 1})
	if err != nil {
		t.Fatal(err)
	}

	for n := 0; n < 40; n++ {
		var x float64
		if n == 0 {
			x = 1
		}

		var want float64
		for _, d := range lengths {
			if n%d == 0 {
				want++
			}
		}

		if got := b.ProcessSample(x); got != want {
			t.Fatalf("n=%d: got %v want %v", n, got, want)
		}
	}
}

func TestAllpassSectionStoresInput(t *testing.T) {
	s, err := NewAllpassSection(3, 0.7)
	if err != nil {
		t.Fatal(err)
	}

	want := []float64{0.3, 0, 0, 1, 0, 0, 0, 0, 0}
	for n, w := range want {
		var x float64
		if n == 0 {
			x = 1
		}
		if got := s.ProcessSample(x); math.Abs(got-w) > eps {
			t.Fatalf("n=%d: got %v want %v", n, got, w)
		}
	}
}

func TestAllpassChain(t *testing.T) {
	c, err := NewAllpassChain([NumAllpasses]int{2, 3}, [NumAllpasses]float64{0.5, 0.5})
	if err != nil {
		t.Fatal(err)
	}

	// v1 = [0.5, 0, 1, 0, ...], v2[n] = 0.5*v1[n] + v1[n-3]
	want := []float64{0.25, 0, 0.5, 0.5, 0, 1, 0, 0}
	for n, w := range want {
		var x float64
		if n == 0 {
			x = 1
		}
		if got := c.ProcessSample(x); math.Abs(got-w) > eps {
			t.Fatalf("n=%d: got %v want %v", n, got, w)
		}
	}

	if c.Section(1).Len() != 3 || c.Section(0).Gain() != 0.5 {
		t.Fatalf("section accessors: len=%d gain=%v", c.Section(1).Len(), c.Section(0).Gain())
	}
}

func TestConstructorsValidate(t *testing.T) {
	if _, err := NewCombBank([NumCombs]int{0, 1, 1, 1}, [NumCombs]float64{}); err == nil {
		t.Error("expected error for zero comb length")
	}
	if _, err := NewCombBank([NumCombs]int{1, 1, 1, 1}, [NumCombs]float64{math.NaN()}); err == nil {
		t.Error("expected error for NaN comb gain")
	}
	if _, err := NewAllpassSection(-3, 0.7); err == nil {
		t.Error("expected error for negative allpass length")
	}
	if _, err := NewAllpassSection(3, math.Inf(1)); err == nil {
		t.Error("expected error for infinite allpass gain")
	}
}

func TestSchroederDelayLengthsAndGains(t *testing.T) {
	r := newTestSchroeder(t)

	want := [NumTaps]int{1321, 1543, 1759, 1987, 223, 73}
	if got := r.DelayLengths(); got != want {
		t.Fatalf("DelayLengths() = %v, want %v", got, want)
	}

	gains := r.Gains()
	for i := range NumCombs {
		w := math.Pow(10, -3*(float64(want[i])/44100)/DefaultReverbTime)
		if math.Abs(gains[i]-w) > eps {
			t.Errorf("comb gain %d = %v, want %v", i, gains[i], w)
		}
		if gains[i] <= 0 || gains[i] >= 1 {
			t.Errorf("comb gain %d = %v outside (0, 1)", i, gains[i])
		}
	}
	if gains[4] != 0.7 || gains[5] != 0.7 {
		t.Fatalf("allpass gains = %v, %v", gains[4], gains[5])
	}
}

func TestSchroederDelayLengthsFollowSampleRate(t *testing.T) {
	r := newTestSchroeder(t)
	if err := r.Initialize(core.ProcessorConfig{SampleRate: 48000, BlockSize: 512, Channels: 1}); err != nil {
		t.Fatal(err)
	}

	taus := DefaultDelayTimes()
	for i, d := range r.DelayLengths() {
		if want := prime.Samples(taus[i], 48000); d != want {
			t.Errorf("tap %d: %d want %d", i, d, want)
		}
	}
}

func TestSchroederFirstSample(t *testing.T) {
	r := newTestSchroeder(t)

	// Combs sum to 4, v1 = 0.3*4, v2 = 0.3*v1.
	y := r.ProcessSample(1)
	if math.Abs(r.Wet()-0.36) > eps {
		t.Fatalf("Wet() = %v, want 0.36", r.Wet())
	}
	if math.Abs(y-(1+0.36*DefaultLevel)) > eps {
		t.Fatalf("output = %v, want %v", y, 1+0.36*DefaultLevel)
	}
}

func impulseTail(r *Schroeder, n int) []float64 {
	tail := make([]float64, n)
	for i := range tail {
		var x float64
		if i == 0 {
			x = 1
		}
		r.ProcessSample(x)
		tail[i] = r.Wet()
	}
	return tail
}

func TestSchroederDecay(t *testing.T) {
	for _, rt := range []float64{0.5, 1.0, 2.0} {
		r := newTestSchroeder(t, WithReverbTime(rt))
		tail := impulseTail(r, int((rt+1.5)*44100))

		m, err := ir.NewAnalyzer(44100).Analyze(tail)
		if err != nil {
			t.Fatalf("T=%v: %v", rt, err)
		}

		if math.Abs(m.RT60-rt) > 0.1*rt {
			t.Errorf("T=%v: RT60 = %.3f s, want within 10%%", rt, m.RT60)
		}

		if m.Crossing60 == 0 || math.Abs(m.Crossing60-rt) > 0.35*rt {
			t.Errorf("T=%v: -60 dB envelope crossing at %.3f s, want within 35%%", rt, m.Crossing60)
		}

		end := tail[len(tail)-4096:]
		var maxEnd float64
		for _, v := range end {
			maxEnd = math.Max(maxEnd, math.Abs(v))
		}
		if maxEnd > 1e-3*m.Peak {
			t.Errorf("T=%v: tail still at %.2e after %.1f s", rt, maxEnd, float64(len(tail))/44100)
		}
	}
}

func TestSchroederDeterminism(t *testing.T) {
	in := testutil.Interleave(testutil.DeterministicNoise(5, 0.5, 9000))
	cfg := core.ProcessorConfig{SampleRate: 44100, BlockSize: DefaultBlockSize, Channels: 1}

	run := func() []float32 {
		r := newTestSchroeder(t)
		out, err := stream.Run(t.Context(), r, cfg, in, 9000)
		if err != nil {
			t.Fatal(err)
		}
		return out
	}

	testutil.RequireFloat32Equal(t, run(), run())
}

func TestSchroederBlockMatchesSample(t *testing.T) {
	src := testutil.DeterministicSine(330, 44100, 0.4, 5000)
	in := testutil.Interleave(src)

	blockRev := newTestSchroeder(t)
	out := make([]float32, len(in))
	if status := blockRev.ProcessBlock(in, out, len(src)); status != stream.Continue {
		t.Fatalf("status = %v", status)
	}

	sampleRev := newTestSchroeder(t)
	want := make([]float32, len(in))
	for i, x := range in {
		want[i] = float32(sampleRev.ProcessSample(float64(x)))
	}

	testutil.RequireFloat32Equal(t, out, want)
}

func TestSchroederSilence(t *testing.T) {
	r := newTestSchroeder(t)

	out := make([]float32, 4096)
	for i := range out {
		out[i] = 1
	}
	r.ProcessBlock(nil, out, len(out))

	for i, v := range out {
		if v != 0 {
			t.Fatalf("sample %d = %v, want 0", i, v)
		}
	}
}

func TestSchroederChannelsIndependent(t *testing.T) {
	r := newTestSchroeder(t)
	if err := r.Initialize(core.ProcessorConfig{SampleRate: 44100, BlockSize: 512, Channels: 2}); err != nil {
		t.Fatal(err)
	}

	left := testutil.DeterministicNoise(9, 0.5, 3000)
	right := make([]float64, len(left))
	in := testutil.Interleave(left, right)
	out := make([]float32, len(in))
	r.ProcessBlock(in, out, len(left))
	chans := testutil.Deinterleave(out, 2)

	mono := newTestSchroeder(t)
	for i, x := range left {
		want := float32(mono.ProcessSample(float64(float32(x))))
		if float32(chans[0][i]) != want {
			t.Fatalf("left sample %d: %v want %v", i, chans[0][i], want)
		}
		if chans[1][i] != 0 {
			t.Fatalf("right sample %d: %v want 0", i, chans[1][i])
		}
	}
}

func TestSchroederReset(t *testing.T) {
	r := newTestSchroeder(t)
	first := impulseTail(r, 3000)

	r.Reset()
	if r.Wet() != 0 {
		t.Fatalf("Wet() after reset = %v", r.Wet())
	}

	second := impulseTail(r, 3000)
	testutil.RequireSliceNearlyEqual(t, second, first, 0)
}

func TestSchroederLevelZeroIsDry(t *testing.T) {
	r := newTestSchroeder(t, WithLevel(0))
	buf := testutil.DeterministicNoise(1, 1, 4000)
	want := append([]float64(nil), buf...)

	r.ProcessInPlace(buf)
	testutil.RequireSliceNearlyEqual(t, buf, want, 0)
}

func TestSchroederOptions(t *testing.T) {
	bad := []Option{
		WithReverbTime(0),
		WithReverbTime(math.NaN()),
		WithLevel(-1),
		WithDelayTimes([NumTaps]float64{0.03, 0.035, 0.04, 0, 0.005, 0.0017}),
		WithAllpassGain(1),
		WithAllpassGain(-0.1),
	}
	for i, opt := range bad {
		if _, err := NewSchroeder(44100, opt); err == nil {
			t.Errorf("option %d: expected error", i)
		}
	}

	if _, err := NewSchroeder(0); err == nil {
		t.Error("expected error for zero sample rate")
	}

	r := newTestSchroeder(t, nil, WithReverbTime(2.5), WithLevel(0.3), WithAllpassGain(0.5))
	if r.ReverbTime() != 2.5 || r.Level() != 0.3 || r.Gains()[4] != 0.5 {
		t.Fatalf("options not applied: T=%v level=%v g=%v", r.ReverbTime(), r.Level(), r.Gains()[4])
	}
	if r.Channels() != 1 || r.SampleRate() != 44100 {
		t.Fatalf("channels=%d sampleRate=%v", r.Channels(), r.SampleRate())
	}
}

func TestSchroederZeroValue(t *testing.T) {
	var r Schroeder
	if status := r.ProcessBlock(nil, make([]float32, 4), 4); status != stream.Abort {
		t.Fatalf("status = %v, want abort", status)
	}

	if err := r.Initialize(core.ProcessorConfig{SampleRate: 44100, BlockSize: 64, Channels: 1}); err != nil {
		t.Fatal(err)
	}
	if r.DelayLengths()[0] != 1321 || r.Level() != DefaultLevel {
		t.Fatalf("zero value did not pick defaults: %v level=%v", r.DelayLengths(), r.Level())
	}
}

func BenchmarkSchroederProcessBlock(b *testing.B) {
	r, err := NewSchroeder(44100)
	if err != nil {
		b.Fatal(err)
	}

	in := testutil.Interleave(testutil.DeterministicNoise(1, 0.5, DefaultBlockSize))
	out := make([]float32, len(in))

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.ProcessBlock(in, out, DefaultBlockSize)
	}
}

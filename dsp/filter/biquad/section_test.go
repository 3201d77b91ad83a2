package biquad

import (
	"math"
	"testing"
)

// tolerance for floating-point comparisons.
const eps = 1e-12

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

// passthrough returns coefficients for a unity gain passthrough (B0=1, all else 0).
func passthrough() Coefficients {
	return Coefficients{B0: 1}
}

func TestNewSection(t *testing.T) {
	c := Coefficients{B0: 1, B1: 2, B2: 3, A1: 4, A2: 5}
	s := NewSection(c)
	if s.Coefficients() != c {
		t.Fatalf("coefficients mismatch: got %v, want %v", s.Coefficients(), c)
	}
	if st := s.State(); st != (History{}) {
		t.Fatalf("initial state not zero: %v", st)
	}
}

func TestProcessSample_Passthrough(t *testing.T) {
	s := NewSection(passthrough())
	input := []float64{1, 0, -1, 0.5, 0.25}
	for i, x := range input {
		y := s.ProcessSample(x)
		if !almostEqual(y, x, eps) {
			t.Errorf("sample %d: got %v, want %v", i, y, x)
		}
	}
}

func TestProcessSample_DirectFormI(t *testing.T) {
	// Hand-traced direct form I with
	// B0=0.25, B1=0.5, B2=0.25, A1=-0.2, A2=0.04 and x = [1, 0, 0, 0]:
	//
	// n=0: y = 0.25
	// n=1: y = 0.5 + 0.2*0.25 = 0.55
	// n=2: y = 0.25 + 0.2*0.55 - 0.04*0.25 = 0.35
	// n=3: y = 0.2*0.35 - 0.04*0.55 = 0.048
	c := Coefficients{B0: 0.25, B1: 0.5, B2: 0.25, A1: -0.2, A2: 0.04}
	s := NewSection(c)

	want := []float64{0.25, 0.55, 0.35, 0.048}
	for i, w := range want {
		var x float64
		if i == 0 {
			x = 1
		}
		y := s.ProcessSample(x)
		if !almostEqual(y, w, eps) {
			t.Errorf("sample %d: got %.15f, want %.15f", i, y, w)
		}
	}
}

func TestProcessSample_HistoryOrder(t *testing.T) {
	s := NewSection(Coefficients{B0: 0.5, B1: 0.25, A1: 0.1})

	y0 := s.ProcessSample(2)
	got := s.State()
	want := History{X1: 2, X2: 0, Y1: y0, Y2: 0}
	if got != want {
		t.Fatalf("after one sample: got %+v, want %+v", got, want)
	}

	y1 := s.ProcessSample(-1)
	got = s.State()
	want = History{X1: -1, X2: 2, Y1: y1, Y2: y0}
	if got != want {
		t.Fatalf("after two samples: got %+v, want %+v", got, want)
	}
}

func TestProcessBlock_MatchesSample(t *testing.T) {
	c := Coefficients{B0: 0.25, B1: 0.5, B2: 0.25, A1: -0.2, A2: 0.04}

	s1 := NewSection(c)
	input := []float64{1, 0.5, -0.3, 0.7, 0, -1, 0.2, 0.8}
	ref := make([]float64, len(input))
	for i, x := range input {
		ref[i] = s1.ProcessSample(x)
	}

	s2 := NewSection(c)
	block := make([]float64, len(input))
	copy(block, input)
	s2.ProcessBlock(block)

	for i := range block {
		if block[i] != ref[i] {
			t.Errorf("sample %d: ProcessBlock=%.15f, ProcessSample=%.15f", i, block[i], ref[i])
		}
	}
	if s1.State() != s2.State() {
		t.Fatalf("history diverged: %+v vs %+v", s1.State(), s2.State())
	}
}

func TestReset(t *testing.T) {
	c := Coefficients{B0: 0.25, B1: 0.5, B2: 0.25, A1: -0.2, A2: 0.04}
	s := NewSection(c)
	s.ProcessSample(1)
	s.ProcessSample(0.5)
	s.Reset()

	if st := s.State(); st != (History{}) {
		t.Fatalf("state after reset: %+v", st)
	}
	if y := s.ProcessSample(1); !almostEqual(y, 0.25, eps) {
		t.Fatalf("first sample after reset: got %v, want 0.25", y)
	}
}

func TestSilenceStaysSilent(t *testing.T) {
	s := NewSection(Coefficients{B0: 0.1, B1: 0.2, B2: 0.1, A1: -1.2, A2: 0.5})
	for i := 0; i < 1000; i++ {
		if y := s.ProcessSample(0); y != 0 {
			t.Fatalf("sample %d: got %v from silence at rest", i, y)
		}
	}
}

func TestStateRoundTrip(t *testing.T) {
	c := Coefficients{B0: 0.25, B1: 0.5, B2: 0.25, A1: -0.2, A2: 0.04}
	s := NewSection(c)
	s.ProcessSample(1)
	s.ProcessSample(-0.5)
	saved := s.State()
	want := s.ProcessSample(0.3)

	s.SetState(saved)
	if got := s.ProcessSample(0.3); got != want {
		t.Fatalf("after SetState: got %v, want %v", got, want)
	}
}

func BenchmarkProcessSample(b *testing.B) {
	s := NewSection(Coefficients{B0: 0.25, B1: 0.5, B2: 0.25, A1: -0.2, A2: 0.04})
	x := 0.1

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = s.ProcessSample(x)
	}
}

func BenchmarkProcessBlock(b *testing.B) {
	s := NewSection(Coefficients{B0: 0.25, B1: 0.5, B2: 0.25, A1: -0.2, A2: 0.04})
	buf := make([]float64, 256)
	for i := range buf {
		buf[i] = math.Sin(float64(i) * 0.1)
	}

	b.SetBytes(int64(len(buf) * 8))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.ProcessBlock(buf)
	}
}

package thd_test

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-fx/dsp/effects"
	"github.com/cwbudde/algo-fx/measure/thd"
)

// The shared interpolation and decimation filter drives the shaper
// asymmetrically, so the distorted tone is dominated by even harmonics.
func TestOversampledDistortionHarmonicProfile(t *testing.T) {
	const (
		sampleRate = 44100.0
		fftSize    = 8192
		warmup     = 2048
	)

	tone := 186 * sampleRate / fftSize

	for _, ratio := range []int{1, 4} {
		d, err := effects.NewOversampledDistortion(sampleRate, 1, effects.WithOversampling(ratio))
		if err != nil {
			t.Fatal(err)
		}

		buf := make([]float64, warmup+fftSize)
		for i := range buf {
			buf[i] = 0.5 * math.Sin(2*math.Pi*tone*float64(i)/sampleRate)
		}

		d.ProcessInPlace(0, buf)

		res := thd.AnalyzeSignal(buf[warmup:], thd.Config{SampleRate: sampleRate, FFTSize: fftSize})

		if math.Abs(res.FundamentalFreq-tone) > 1e-9 {
			t.Fatalf("ratio %d: fundamental=%f, want %f", ratio, res.FundamentalFreq, tone)
		}

		if res.THD < 0.3 || res.THD > 0.6 {
			t.Fatalf("ratio %d: THD=%f, want heavy distortion", ratio, res.THD)
		}

		if res.EvenHD < 100*res.OddHD {
			t.Fatalf("ratio %d: even=%g odd=%g", ratio, res.EvenHD, res.OddHD)
		}

		if res.Inharmonic_dB > -40 {
			t.Fatalf("ratio %d: inharmonic residue %f dB", ratio, res.Inharmonic_dB)
		}
	}
}

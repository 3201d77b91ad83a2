package testutil

// Interleave packs equal-length channel slices into one interleaved
// float32 buffer.
func Interleave(channels ...[]float64) []float32 {
	if len(channels) == 0 {
		return nil
	}
	n := len(channels[0])
	out := make([]float32, n*len(channels))
	for ch, data := range channels {
		for i := 0; i < n; i++ {
			out[i*len(channels)+ch] = float32(data[i])
		}
	}
	return out
}

// Deinterleave splits an interleaved float32 buffer into per-channel
// float64 slices.
func Deinterleave(buf []float32, channels int) [][]float64 {
	frames := len(buf) / channels
	out := make([][]float64, channels)
	for ch := range out {
		out[ch] = make([]float64, frames)
		for i := 0; i < frames; i++ {
			out[ch][i] = float64(buf[i*channels+ch])
		}
	}
	return out
}

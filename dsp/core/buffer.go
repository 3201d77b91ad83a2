package core

// ToFloat64 widens src into dst and returns the number of converted samples.
func ToFloat64(dst []float64, src []float32) int {
	n := min(len(dst), len(src))
	for i := 0; i < n; i++ {
		dst[i] = float64(src[i])
	}
	return n
}

// ToFloat32 narrows src into dst and returns the number of converted samples.
func ToFloat32(dst []float32, src []float64) int {
	n := min(len(dst), len(src))
	for i := 0; i < n; i++ {
		dst[i] = float32(src[i])
	}
	return n
}

// Zero sets all values in buf to 0.
func Zero(buf []float64) {
	for i := range buf {
		buf[i] = 0
	}
}

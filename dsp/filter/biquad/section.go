package biquad

// Coefficients holds the transfer function coefficients for a single
// second-order section. The leading feedback coefficient is normalized to 1
// and not stored.
//
// The difference equation is
//
//	y[n] = B0*x[n] + B1*x[n-1] + B2*x[n-2] - A1*y[n-1] - A2*y[n-2]
type Coefficients struct {
	B0, B1, B2 float64 // feedforward (numerator)
	A1, A2     float64 // feedback (denominator)
}

// History is the Direct Form I state: the two previous inputs and outputs.
type History struct {
	X1, X2 float64
	Y1, Y2 float64
}

// Section is a single biquad filter with immutable coefficients and mutable
// history. The zero value is a muted filter at rest.
type Section struct {
	coeffs Coefficients
	hist   History
}

// NewSection returns a Section initialized with the given coefficients
// and zero history.
func NewSection(c Coefficients) *Section {
	return &Section{coeffs: c}
}

// Coefficients returns the section coefficients.
func (s *Section) Coefficients() Coefficients {
	return s.coeffs
}

// ProcessSample filters one input sample and returns the output.
func (s *Section) ProcessSample(x float64) float64 {
	c := &s.coeffs
	h := &s.hist

	y := c.B0*x + c.B1*h.X1 + c.B2*h.X2 - c.A1*h.Y1 - c.A2*h.Y2

	h.X2 = h.X1
	h.X1 = x
	h.Y2 = h.Y1
	h.Y1 = y

	return y
}

// ProcessBlock filters a block of samples in-place. Zero-alloc.
func (s *Section) ProcessBlock(buf []float64) {
	c := s.coeffs
	x1, x2, y1, y2 := s.hist.X1, s.hist.X2, s.hist.Y1, s.hist.Y2

	for i, x := range buf {
		y := c.B0*x + c.B1*x1 + c.B2*x2 - c.A1*y1 - c.A2*y2
		x2, x1 = x1, x
		y2, y1 = y1, y
		buf[i] = y
	}

	s.hist = History{X1: x1, X2: x2, Y1: y1, Y2: y2}
}

// Reset clears the history to zero.
func (s *Section) Reset() {
	s.hist = History{}
}

// State returns the current history.
func (s *Section) State() History {
	return s.hist
}

// SetState restores a previously saved history.
func (s *Section) SetState(h History) {
	s.hist = h
}

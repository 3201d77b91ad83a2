// Package ir measures the decay of impulse responses.
//
// Decay times follow ISO 3382 and come from the Schroeder backward
// integral of the squared response, fitted between two levels and
// extrapolated to -60 dB:
//
//   - EDT: 0 to -10 dB
//   - T20: -5 to -25 dB
//   - T30: -5 to -35 dB
//   - RT60: T30, or T20 when the response does not reach -35 dB
//
// [Analyzer.EnvelopeCrossing] reports the time at which the peak-hold
// envelope of the response falls below a level relative to its peak. It
// is a direct reading, not an extrapolation, and is sensitive to how
// coherent the first arrival is.
//
// # Usage
//
//	analyzer := ir.NewAnalyzer(44100)
//	m, err := analyzer.Analyze(impulseResponse)
//	fmt.Printf("RT60 = %.2f s, -60 dB after %.2f s\n", m.RT60, m.Crossing60)
package ir

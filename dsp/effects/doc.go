// Package effects provides block-based audio effects for real-time hosts.
//
// OversampledDistortion band-limits its input, runs a scaled tanh shaper
// at an integer multiple of the host rate and filters the result back
// down. The Schroeder reverb lives in the reverb subpackage.
//
// Effects implement stream.Processor: coefficients and buffers are sized
// in Initialize and ProcessBlock does not allocate.
package effects

// Package biquad provides biquad (second-order IIR) filter runtime primitives.
//
// A [Section] implements Direct Form I processing for a single second-order
// section defined by [Coefficients]. The section keeps the previous two inputs
// and outputs as explicit history, updated exactly once per processed sample.
//
// This package provides the processing runtime only. Coefficient design
// (Butterworth low-pass via the bilinear transform) lives in dsp/filter/design.
package biquad

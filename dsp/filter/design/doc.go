// Package design provides digital IIR filter coefficient designers.
//
// The functions in this package produce biquad coefficients consumable by
// dsp/filter/biquad for runtime processing. [ButterworthLowpass] is the
// second-order Butterworth design used by the effects; [Lowpass] is the
// RBJ cookbook form with an arbitrary quality factor.
package design

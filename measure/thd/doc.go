// Package thd measures harmonic distortion of a steady test tone.
//
// Besides THD and THD+N it reports the inharmonic residue: power that lies
// neither on the fundamental nor on one of its harmonics. Driving a
// nonlinearity with a bin-centred sine makes this residue a direct measure
// of aliasing.
package thd

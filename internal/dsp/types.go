// Package dsp implements the GOES LRIT/HRIT demodulation pipeline: gain
// normalisation, Costas carrier recovery, RRC matched filtering, Mueller &
// Müller clock recovery, and soft-bit quantisation.
//
// Software-defined radios deliver quadrature samples: a real (I, in-phase)
// and imaginary (Q, quadrature) component per sample. The pipeline carries
// that stream as complex64 end to end and narrows it to signed soft bits
// only at the very last stage.
package dsp

// Sample is a single complex baseband I/Q sample.
type Sample = complex64

// SampleBlock is an ordered, fixed-capacity sequence of Samples owned by
// exactly one stage at a time. Its backing array is recycled by the Queue
// it travels through; stages must not retain a SampleBlock past the call
// that hands it onward.
type SampleBlock []Sample

// SoftBit is a signed 8-bit likelihood value: -127 means "this bit is 0
// with near certainty", +127 means "this bit is 1 with near certainty".
type SoftBit = int8

// SoftBitBlock is an ordered sequence of SoftBits, subject to the same
// single-owner hand-off discipline as SampleBlock.
type SoftBitBlock []SoftBit

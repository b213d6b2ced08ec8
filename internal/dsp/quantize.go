package dsp

import "math"

// DefaultQuantizeScale (K) is the scaling constant mapping a unit-
// magnitude, phase-locked symbol to near +-127 without saturating in
// steady state. A value around 64 is typical.
const DefaultQuantizeScale = 64

// Quantize is stateless: it maps the real part of each complex symbol to
// a signed 8-bit soft bit via saturating scaling.
type Quantize struct {
	scale float32

	publisher SoftBitPublisher
}

// NewQuantize constructs a Quantize stage with the given scaling
// constant K.
func NewQuantize(scale float32) *Quantize {
	return &Quantize{scale: scale}
}

// SetPublisher installs an optional soft-bit publisher mirroring every
// emitted block.
func (q *Quantize) SetPublisher(p SoftBitPublisher) {
	q.publisher = p
}

// quantizeOne saturates real(z)*K to a signed 8-bit value.
func quantizeOne(z Sample, scale float32) SoftBit {
	v := float64(real(z)) * float64(scale)
	v = math.Round(v)
	if v > 127 {
		v = 127
	}
	if v < -127 {
		v = -127
	}
	return SoftBit(v)
}

// Process maps one block of complex symbols to soft bits.
func (q *Quantize) Process(in SampleBlock, out SoftBitBlock) {
	for i, z := range in {
		out[i] = quantizeOne(z, q.scale)
	}
	if q.publisher != nil {
		q.publisher.Publish(out)
	}
}

// Run drives the Quantize stage until qin reports EOF, then closes qout.
func (q *Quantize) Run(qin *Queue[SampleBlock], qout *Queue[SoftBitBlock]) {
	for {
		in := qin.PopForRead()
		if in == nil {
			qout.Close()
			return
		}
		out := qout.PopForWrite()
		if cap(*out) < len(*in) {
			*out = make(SoftBitBlock, len(*in))
		} else {
			*out = (*out)[:len(*in)]
		}
		q.Process(*in, *out)
		qin.PushRead(in)
		qout.PushWrite(out)
	}
}

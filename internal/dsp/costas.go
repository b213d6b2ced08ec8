package dsp

// Costas implements a second-order Costas loop for BPSK carrier recovery:
// it multiplies each sample by a complex rotator whose phase and
// frequency are tracked by a decision-directed phase detector, nulling
// residual carrier left over from an imperfectly-tuned front end. Its
// phase, frequency, alpha/beta loop gains, and maxDeviation bound are all
// mutated only by this stage's own worker.
type Costas struct {
	phase float32
	freq  float32
	alpha float32
	beta  float32
	maxDeviation float32

	publisher SamplePublisher
}

// DefaultDampingFactor is the damping factor used to derive the Costas
// loop's proportional/integral gains from its configured bandwidth.
const DefaultDampingFactor = 0.707

// NewCostas constructs a Costas loop with the given loop bandwidth
// (radians/sample) and per-sample frequency deviation bound.
func NewCostas(bandwidth, maxDeviation float32) *Costas {
	c := &Costas{maxDeviation: maxDeviation}
	c.SetLoopBandwidth(bandwidth)
	return c
}

// SetLoopBandwidth recomputes alpha/beta from a new loop bandwidth using
// standard second-order PLL design relations.
func (c *Costas) SetLoopBandwidth(bandwidth float32) {
	c.alpha, c.beta = loopGains(bandwidth, DefaultDampingFactor)
}

// SetMaxDeviation sets the per-sample radian bound on frequency.
func (c *Costas) SetMaxDeviation(maxDeviation float32) {
	c.maxDeviation = maxDeviation
}

// Frequency returns the current tracked frequency in radians/sample.
func (c *Costas) Frequency() float32 {
	return c.freq
}

// SetPublisher installs an optional sample publisher mirroring every
// rotated output sample.
func (c *Costas) SetPublisher(p SamplePublisher) {
	c.publisher = p
}

// rotate returns e^{-j*phase}.
func rotate(phase float32) Sample {
	sin, cos := sincos32(phase)
	return complex(cos, -sin)
}

// Process runs the Costas loop over one block of input samples, writing
// the derotated output into out.
func (c *Costas) Process(in SampleBlock, out SampleBlock) {
	for i, s := range in {
		rot := rotate(c.phase)
		y := s * rot
		out[i] = y

		err := real(y) * imag(y) // BPSK decision-directed phase detector

		c.freq = clampF32(c.freq+c.beta*err, -c.maxDeviation, c.maxDeviation)
		c.phase = wrapPhase(c.phase + c.freq + c.alpha*err)
	}
	if c.publisher != nil {
		c.publisher.Publish(out)
	}
}

// Run drives the Costas stage until qin reports EOF, then closes qout.
func (c *Costas) Run(qin *Queue[SampleBlock], qout *Queue[SampleBlock]) {
	for {
		in := qin.PopForRead()
		if in == nil {
			qout.Close()
			return
		}
		out := qout.PopForWrite()
		*out = (*out)[:len(*in)]
		c.Process(*in, *out)
		qin.PushRead(in)
		qout.PushWrite(out)
	}
}

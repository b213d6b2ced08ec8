package dsp

// ClockRecovery performs Mueller & Müller symbol-timing recovery with
// cubic interpolation on the matched-filtered, decimated complex stream,
// emitting exactly one sample per recovered symbol. Its omega/omegaMin/
// omegaMax/omegaGain, mu/muGain, and three-deep sliding symbol history
// are all struct fields mutated only by this stage's Run.
type ClockRecovery struct {
	omega, omegaMin, omegaMax, omegaGain float32
	mu, muGain                           float32

	// p holds the three most recently produced symbols, oldest first;
	// c holds their BPSK hard decisions (real part +-1).
	p [3]Sample
	c [3]Sample

	// buf carries unconsumed input samples across Process calls so
	// timing recovery survives block boundaries; cursor/bufBase locate
	// the logical sample position within the growing stream relative to
	// buf's first element.
	buf     SampleBlock
	cursor  int
	bufBase int

	publisher SamplePublisher
}

// omegaTolerance bounds omega to the initial estimate +-0.5%.
const omegaTolerance = 0.005

// NewClockRecovery constructs a ClockRecovery stage with initial omega =
// sampleRate / (symbolRate * df), clamped thereafter to
// omega_init * (1 +/- 0.005).
func NewClockRecovery(sampleRate, symbolRate float32, df int) *ClockRecovery {
	omega := sampleRate / (symbolRate * float32(df))
	cr := &ClockRecovery{
		omega:    omega,
		omegaMin: omega * (1 - omegaTolerance),
		omegaMax: omega * (1 + omegaTolerance),
		mu:       0,
		cursor:   1,
		bufBase:  0,
	}
	cr.SetLoopBandwidth(0.01)
	return cr
}

// SetLoopBandwidth recomputes omegaGain/muGain from a new loop bandwidth,
// using the same second-order loop relations as Costas.
func (cr *ClockRecovery) SetLoopBandwidth(bandwidth float32) {
	cr.omegaGain, cr.muGain = loopGains(bandwidth, DefaultDampingFactor)
}

// Omega returns the current tracked samples-per-symbol estimate.
func (cr *ClockRecovery) Omega() float32 {
	return cr.omega
}

// SetPublisher installs an optional sample publisher mirroring every
// recovered symbol.
func (cr *ClockRecovery) SetPublisher(p SamplePublisher) {
	cr.publisher = p
}

func sign32(v float32) float32 {
	if v < 0 {
		return -1
	}
	return 1
}

// cubicInterpolate evaluates the 4-point Lagrange cubic through samples
// at integer offsets -1, 0, 1, 2 at fractional position mu in [0, 1)
// between x0 and xp1.
func cubicInterpolate(xm1, x0, xp1, xp2 Sample, mu float32) Sample {
	m := mu
	c0 := -m * (m - 1) * (m - 2) / 6
	c1 := (m + 1) * (m - 1) * (m - 2) / 2
	c2 := -(m + 1) * m * (m - 2) / 2
	c3 := (m + 1) * m * (m - 1) / 6
	return xm1*complex(c0, 0) + x0*complex(c1, 0) + xp1*complex(c2, 0) + xp2*complex(c3, 0)
}

// Process runs clock recovery over one block of input samples, writing
// recovered symbols into out, and returns the number written. History
// (both the interpolation window and the omega/mu/p/c loop state) carries
// across calls, so block size does not change the recovered symbol
// stream.
func (cr *ClockRecovery) Process(in SampleBlock, out SampleBlock) int {
	cr.buf = append(cr.buf, in...)

	n := 0
	for {
		step := int(cr.omega + cr.mu) // floor, since omega+mu > 0
		newCursor := cr.cursor + step
		newMu := (cr.omega + cr.mu) - float32(step)

		rel := newCursor - cr.bufBase
		if rel-1 < 0 || rel+2 >= len(cr.buf) {
			break // not enough samples buffered yet; carry forward
		}

		cr.cursor = newCursor
		cr.mu = newMu

		y := cubicInterpolate(cr.buf[rel-1], cr.buf[rel], cr.buf[rel+1], cr.buf[rel+2], cr.mu)

		cr.p[0], cr.p[1], cr.p[2] = cr.p[1], cr.p[2], y
		cr.c[0], cr.c[1], cr.c[2] = cr.c[1], cr.c[2], complex(sign32(real(y)), 0)

		x := (cr.c[2] - cr.c[0]) * complexConj(cr.p[1])
		yy := (cr.p[2] - cr.p[0]) * complexConj(cr.c[1])
		err := clampF32(real(yy-x), -1, 1)

		cr.omega = clampF32(cr.omega+cr.omegaGain*err, cr.omegaMin, cr.omegaMax)
		cr.mu = cr.mu + cr.muGain*err

		out[n] = y
		n++
	}

	// Carry the trailing samples still needed (from cursor-1 onward)
	// forward to the next block.
	keepFrom := cr.cursor - 1 - cr.bufBase
	if keepFrom > 0 {
		cr.buf = append(cr.buf[:0], cr.buf[keepFrom:]...)
		cr.bufBase += keepFrom
	}

	if cr.publisher != nil {
		cr.publisher.Publish(out[:n])
	}
	return n
}

func complexConj(s Sample) Sample {
	return complex(real(s), -imag(s))
}

// Run drives the ClockRecovery stage until qin reports EOF, then closes
// qout.
func (cr *ClockRecovery) Run(qin *Queue[SampleBlock], qout *Queue[SampleBlock]) {
	for {
		in := qin.PopForRead()
		if in == nil {
			qout.Close()
			return
		}
		out := qout.PopForWrite()
		if cap(*out) < len(*in) {
			*out = make(SampleBlock, len(*in))
		} else {
			*out = (*out)[:len(*in)]
		}
		n := cr.Process(*in, *out)
		*out = (*out)[:n]
		qin.PushRead(in)
		qout.PushWrite(out)
	}
}

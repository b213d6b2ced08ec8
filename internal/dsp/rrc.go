package dsp

import "math"

// NTAPS is the fixed root-raised-cosine filter length.
const NTAPS = 31

// rrcRolloff is the conventional GOES matched-filter roll-off factor.
const rrcRolloff = 0.5

// RRC is a fixed-length, symmetric root-raised-cosine FIR matched filter
// that also performs integer decimation: only every df-th filter output
// is emitted. History straddles block boundaries, so callers must run a
// single RRC value across the whole stream rather than constructing one
// per block.
type RRC struct {
	df   int
	taps [NTAPS]float32

	// history holds the NTAPS-1 most recent input samples from the
	// previous block (or zeros, before the first block), prepended to
	// the current block so the filter has a full window at its start.
	history [NTAPS - 1]Sample

	// phase is the index, within the next block, of the first sample
	// whose filter output is emitted, so the decimation cadence carries
	// across block boundaries.
	phase int

	publisher SamplePublisher
}

// NewRRC constructs an RRC matched filter for the given decimation
// factor, sample rate and symbol rate, with taps computed at
// construction for a 0.5 roll-off.
func NewRRC(df int, sampleRate, symbolRate float32) *RRC {
	r := &RRC{df: df}
	r.taps = rrcTaps(sampleRate, symbolRate)
	return r
}

// SetPublisher installs an optional sample publisher mirroring every
// decimated output sample.
func (r *RRC) SetPublisher(p SamplePublisher) {
	r.publisher = p
}

// rrcTaps computes a symmetric NTAPS-length root-raised-cosine impulse
// response, normalised to unity DC gain.
func rrcTaps(sampleRate, symbolRate float32) [NTAPS]float32 {
	var taps [NTAPS]float32
	sps := float64(sampleRate) / float64(symbolRate) // samples per symbol
	beta := rrcRolloff
	mid := (NTAPS - 1) / 2

	var sum float64
	for i := 0; i < NTAPS; i++ {
		t := float64(i-mid) / sps
		var v float64
		switch {
		case t == 0:
			v = 1 - beta + 4*beta/math.Pi
		case math.Abs(math.Abs(4*beta*t)-1) < 1e-8:
			v = (beta / math.Sqrt2) * (
				(1+2/math.Pi)*math.Sin(math.Pi/(4*beta)) +
					(1-2/math.Pi)*math.Cos(math.Pi/(4*beta)))
		default:
			num := math.Sin(math.Pi*t*(1-beta)) + 4*beta*t*math.Cos(math.Pi*t*(1+beta))
			den := math.Pi * t * (1 - (4*beta*t)*(4*beta*t))
			v = num / den
		}
		taps[i] = float32(v)
		sum += v
	}

	if sum != 0 {
		for i := range taps {
			taps[i] = float32(float64(taps[i]) / sum)
		}
	}
	return taps
}

// Process filters and decimates one block of input samples, writing
// decimated output into out, and returns the number of samples written.
// out must be at least ceil(len(in)/df) long.
func (r *RRC) Process(in SampleBlock, out SampleBlock) int {
	// Build a working window: the NTAPS-1 carried-over samples followed
	// by the current block, so every output index 0..len(in)-1 has a
	// full NTAPS-wide window ending at it.
	window := make(SampleBlock, len(r.history)+len(in))
	copy(window, r.history[:])
	copy(window[len(r.history):], in)

	n := 0
	i := r.phase
	for ; i < len(in); i += r.df {
		var acc complex64
		base := i // window index of the oldest sample in this tap window
		for k := 0; k < NTAPS; k++ {
			acc += window[base+k] * complex(r.taps[NTAPS-1-k], 0)
		}
		out[n] = acc
		n++
	}
	r.phase = i - len(in)

	// Carry the last NTAPS-1 samples of the window forward.
	copy(r.history[:], window[len(window)-len(r.history):])

	if r.publisher != nil {
		r.publisher.Publish(out[:n])
	}
	return n
}

// Run drives the RRC stage until qin reports EOF, then closes qout.
func (r *RRC) Run(qin *Queue[SampleBlock], qout *Queue[SampleBlock]) {
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
		n := r.Process(*in, *out)
		*out = (*out)[:n]
		qin.PushRead(in)
		qout.PushWrite(out)
	}
}

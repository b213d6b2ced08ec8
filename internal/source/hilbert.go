package source

import "math"

// hilbertTaps is the length of the Hilbert-transform FIR used to
// synthesize an analytic signal from a single real channel. Odd length,
// same symmetric-FIR shape as internal/dsp's RRC taps, reused in spirit
// rather than code: a type-III (odd-symmetric, odd-length) Hilbert
// transformer instead of a type-I raised-cosine lowpass.
const hilbertTaps = 31

// hilbertFIR synthesizes a complex analytic signal from a real input
// stream: real part is a delayed copy of the input (to align with the
// FIR's group delay), imaginary part is the Hilbert transform of the
// input. Carries hilbertTaps-1 samples of history across calls so
// correctness does not depend on block size, mirroring RRC's own
// block-straddling history technique.
type hilbertFIR struct {
	taps    [hilbertTaps]float32
	history [hilbertTaps - 1]float32
}

func newHilbertFIR() *hilbertFIR {
	h := &hilbertFIR{}
	mid := hilbertTaps / 2
	for n := 0; n < hilbertTaps; n++ {
		k := n - mid
		if k == 0 || k%2 == 0 {
			h.taps[n] = 0
			continue
		}
		w := 0.54 - 0.46*math.Cos(2*math.Pi*float64(n)/float64(hilbertTaps-1)) // Hamming
		h.taps[n] = float32(w * 2 / (math.Pi * float64(k)))
	}
	return h
}

// analytic fills out (len(out) == len(in)) with the analytic signal for
// in, reading and updating h.history.
func (h *hilbertFIR) analytic(in []float32, out []complex64) {
	n := len(in)
	window := make([]float32, len(h.history)+n)
	copy(window, h.history[:])
	copy(window[len(h.history):], in)

	delay := hilbertTaps / 2
	for i := 0; i < n; i++ {
		var acc float32
		for k := 0; k < hilbertTaps; k++ {
			acc += h.taps[hilbertTaps-1-k] * window[i+k]
		}
		out[i] = complex(window[i+delay], acc)
	}

	copy(h.history[:], window[n:n+len(h.history)])
}

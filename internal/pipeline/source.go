package pipeline

import "github.com/jjstecchino/goesrecv/internal/dsp"

// Source is the external capability that produces SampleBlocks into a
// supplied queue until exhausted or stopped. File readers, Airspy/RTL-SDR
// drivers, and similar front-ends implement this.
type Source interface {
	// Run produces sample blocks into qout until the source is exhausted
	// or Stop is called, then closes qout itself. A non-nil return value
	// is a SourceError: the caller logs it and treats qout's closure as
	// the authoritative termination signal either way.
	Run(qout *dsp.Queue[dsp.SampleBlock]) error

	// Stop asks a running Run to wind down at its next safe point and
	// close qout. It must not itself close qout — only Run, the single
	// writer, may do that — which is what keeps PopForWrite-after-close
	// (see dsp.Queue) unreachable during an orderly Demodulator.Stop.
	Stop()
}

// SourceError wraps an upstream capability failure. The pipeline
// translates it into the source queue's closure and drains normally;
// SourceError itself is only ever logged, never fatal to the running
// pipeline.
type SourceError struct {
	Cause error
}

func (e *SourceError) Error() string {
	return "source error: " + e.Cause.Error()
}

func (e *SourceError) Unwrap() error {
	return e.Cause
}

// Package source provides pipeline.Source implementations: a raw-capture
// file reader for golden-file replay and a soundcard-based IF source for
// downconverter-fed lab setups, the classic low-cost GOES/weather-
// satellite hobbyist front end before direct-sampling SDRs were common.
package source

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/charmbracelet/log"

	"github.com/jjstecchino/goesrecv/internal/dsp"
	"github.com/jjstecchino/goesrecv/internal/pipeline"
)

// FileSource reads a raw interleaved-float32 I/Q capture (I, Q, I, Q, ...,
// little-endian) from an io.Reader in fixed-size blocks.
type FileSource struct {
	logger    *log.Logger
	r         io.Reader
	blockSize int

	stop chan struct{}
}

// NewFileSource constructs a FileSource reading from r in blocks of
// blockSize samples.
func NewFileSource(logger *log.Logger, r io.Reader, blockSize int) *FileSource {
	if logger == nil {
		logger = log.Default()
	}
	return &FileSource{logger: logger, r: r, blockSize: blockSize, stop: make(chan struct{})}
}

// Run implements pipeline.Source. It reads until r is exhausted or Stop
// is called, then closes qout — the sole writer closing its own output,
// per the Source contract's shutdown design.
func (f *FileSource) Run(qout *dsp.Queue[dsp.SampleBlock]) error {
	defer qout.Close()

	raw := make([]byte, f.blockSize*8) // 2 x float32 per sample

	for {
		select {
		case <-f.stop:
			return nil
		default:
		}

		n, err := io.ReadFull(f.r, raw)
		switch {
		case err == io.EOF:
			return nil
		case err == io.ErrUnexpectedEOF:
			n -= n % 8 // drop a trailing partial sample
		case err != nil:
			return &pipeline.SourceError{Cause: err}
		}
		if n == 0 {
			return nil
		}

		nsamples := n / 8
		buf := qout.PopForWrite()
		*buf = (*buf)[:nsamples]
		for i := 0; i < nsamples; i++ {
			re := math.Float32frombits(binary.LittleEndian.Uint32(raw[i*8:]))
			im := math.Float32frombits(binary.LittleEndian.Uint32(raw[i*8+4:]))
			(*buf)[i] = complex(re, im)
		}
		qout.PushWrite(buf)

		if n < len(raw) {
			return nil
		}
	}
}

// Stop implements pipeline.Source.
func (f *FileSource) Stop() {
	close(f.stop)
}

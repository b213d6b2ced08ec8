package source

import (
	"github.com/charmbracelet/log"
	"github.com/gordonklaus/portaudio"

	"github.com/jjstecchino/goesrecv/internal/dsp"
	"github.com/jjstecchino/goesrecv/internal/pipeline"
)

// SoundcardSource reads a downconverted audio-IF stream from a sound
// card's line-in via github.com/gordonklaus/portaudio — the classic
// low-cost way early GOES/weather-satellite hobbyists fed a
// downconverter into a PC before direct-sampling SDRs were common.
//
// A stereo card's L/R channels are read directly as I/Q. A mono card
// cannot deliver true I/Q, so SoundcardSource instead synthesizes an
// analytic signal via a Hilbert-transform FIR — see hilbert.go — rather
// than silently aliasing; this is a lab-convenience addition beyond what
// the original demodulator (always fed genuine I/Q from an SDR) does.
type SoundcardSource struct {
	logger *log.Logger

	stream    *portaudio.Stream
	mono      bool
	hilbert   *hilbertFIR
	blockSize int

	// in is the buffer portaudio fills on each Read: mono captures bind
	// it to a single-channel slice, stereo captures to an interleaved
	// L/R slice. Run must read through this exact slice, not a separate
	// one, since OpenDefaultStream binds the stream to it by reference.
	in []float32

	stop chan struct{}
}

// OpenSoundcardSource opens the default input device at sampleRate. If
// channels is 1 the source runs in mono/Hilbert-synthesis mode;
// if 2 it treats the stream as interleaved I/Q.
func OpenSoundcardSource(logger *log.Logger, channels int, sampleRate float64, blockSize int) (*SoundcardSource, error) {
	if logger == nil {
		logger = log.Default()
	}

	s := &SoundcardSource{logger: logger, mono: channels == 1, blockSize: blockSize, stop: make(chan struct{})}

	if s.mono {
		s.in = make([]float32, blockSize)
		stream, err := portaudio.OpenDefaultStream(1, 0, sampleRate, blockSize, &s.in)
		if err != nil {
			return nil, &pipeline.SourceError{Cause: err}
		}
		s.stream = stream
		s.hilbert = newHilbertFIR()
	} else {
		s.in = make([]float32, blockSize*2)
		stream, err := portaudio.OpenDefaultStream(2, 0, sampleRate, blockSize, &s.in)
		if err != nil {
			return nil, &pipeline.SourceError{Cause: err}
		}
		s.stream = stream
	}

	if err := s.stream.Start(); err != nil {
		return nil, &pipeline.SourceError{Cause: err}
	}
	return s, nil
}

// Run implements pipeline.Source.
func (s *SoundcardSource) Run(qout *dsp.Queue[dsp.SampleBlock]) error {
	defer qout.Close()
	defer s.stream.Stop()

	for {
		select {
		case <-s.stop:
			return nil
		default:
		}

		buf := qout.PopForWrite()
		*buf = (*buf)[:s.blockSize]

		if err := s.stream.Read(); err != nil {
			return &pipeline.SourceError{Cause: err}
		}

		if s.mono {
			s.hilbert.analytic(s.in, *buf)
		} else {
			for i := 0; i < s.blockSize; i++ {
				(*buf)[i] = complex(s.in[2*i], s.in[2*i+1])
			}
		}

		qout.PushWrite(buf)
	}
}

// Stop implements pipeline.Source.
func (s *SoundcardSource) Stop() {
	close(s.stop)
}

// Package pipeline wires the five DSP stages of internal/dsp into a
// running Demodulator façade.
package pipeline

import (
	"context"
	"math"
	"time"

	"github.com/charmbracelet/log"

	"github.com/jjstecchino/goesrecv/internal/config"
	"github.com/jjstecchino/goesrecv/internal/dsp"
)

// Publishers bundles the optional, non-blocking telemetry sinks each
// stage may be given. A nil field means that stage publishes nothing.
type Publishers struct {
	AGC    dsp.SamplePublisher
	Costas dsp.SamplePublisher
	RRC    dsp.SamplePublisher
	Clock  dsp.SamplePublisher
	Quant  dsp.SoftBitPublisher
	Stats  StatsPublisher
}

// Demodulator wires AGC, Costas, RRC, ClockRecovery and Quantize into a
// running pipeline. Construct one with New, wire it with Initialize,
// then Start/Stop it.
type Demodulator struct {
	logger *log.Logger

	cfg        config.Config
	symbolRate float32

	source Source

	agc    *dsp.AGC
	costas *dsp.Costas
	rrc    *dsp.RRC
	clock  *dsp.ClockRecovery
	quant  *dsp.Quantize

	q0, q1, q2, q3, q4 *dsp.Queue[dsp.SampleBlock]
	q5                 *dsp.Queue[dsp.SoftBitBlock]

	stats StatsPublisher

	doneSource chan error
	doneAGC    chan struct{}
	doneCostas chan struct{}
	doneRRC    chan struct{}
	doneClock  chan struct{}
	doneQuant  chan struct{}

	statsCancel context.CancelFunc
	statsDone   chan struct{}
}

// New constructs an un-initialized Demodulator. Pass nil for logger to
// use a default stderr logger.
func New(logger *log.Logger) *Demodulator {
	if logger == nil {
		logger = log.Default()
	}
	return &Demodulator{logger: logger}
}

// Initialize validates cfg, then constructs the five DSP stages, the six
// queues, and installs source and any publishers. Configuration errors
// found by cfg.Validate (unknown signal type, a non-positive or
// inconsistent parameter, a decimation that leaves fewer than one sample
// per symbol) are returned as *config.ConfigError and are always fatal: a
// Demodulator that fails Initialize must not be Started. It does not
// check that the sample rate divides evenly by the decimation factor, and
// the RRC taps are not checked beyond those rules.
func (d *Demodulator) Initialize(cfg config.Config, source Source, pubs Publishers) error {
	if err := cfg.Validate(); err != nil {
		d.logger.Error("invalid configuration", "err", err)
		return err
	}
	symbolRate, err := cfg.SymbolRate()
	if err != nil {
		d.logger.Error("invalid configuration", "err", err)
		return err
	}

	d.cfg = cfg
	d.symbolRate = symbolRate
	d.source = source
	d.stats = pubs.Stats

	blockSize := cfg.Block.Size
	capacity := cfg.Queue.Capacity

	d.q0 = dsp.NewSampleQueue(capacity, blockSize)
	d.q1 = dsp.NewSampleQueue(capacity, blockSize)
	d.q2 = dsp.NewSampleQueue(capacity, blockSize)
	d.q3 = dsp.NewSampleQueue(capacity, blockSize)
	d.q4 = dsp.NewSampleQueue(capacity, blockSize)
	d.q5 = dsp.NewSoftBitQueue(capacity, blockSize)

	d.agc = dsp.NewAGC(cfg.AGC.Min, cfg.AGC.Max)
	d.agc.SetPublisher(pubs.AGC)

	d.costas = dsp.NewCostas(cfg.Costas.Bandwidth, cfg.Costas.MaxDeviation)
	d.costas.SetPublisher(pubs.Costas)

	d.rrc = dsp.NewRRC(cfg.Decimation, cfg.SampleRate, symbolRate)
	d.rrc.SetPublisher(pubs.RRC)

	d.clock = dsp.NewClockRecovery(cfg.SampleRate, symbolRate, cfg.Decimation)
	d.clock.SetLoopBandwidth(cfg.Clock.Bandwidth)
	d.clock.SetPublisher(pubs.Clock)

	d.quant = dsp.NewQuantize(dsp.DefaultQuantizeScale)
	d.quant.SetPublisher(pubs.Quant)

	return nil
}

// Start spawns one goroutine per stage, plus the source and the stats
// publisher, and returns immediately. Each stage worker runs until its
// input reports EOF, then closes its output, cascading shutdown in
// topological order once Stop asks the source to wind down.
func (d *Demodulator) Start() {
	d.doneSource = make(chan error, 1)
	d.doneAGC = make(chan struct{})
	d.doneCostas = make(chan struct{})
	d.doneRRC = make(chan struct{})
	d.doneClock = make(chan struct{})
	d.doneQuant = make(chan struct{})
	d.statsDone = make(chan struct{})

	go func() {
		err := d.source.Run(d.q0)
		d.doneSource <- err
	}()
	go func() {
		d.agc.Run(d.q0, d.q1)
		close(d.doneAGC)
	}()
	go func() {
		d.costas.Run(d.q1, d.q2)
		close(d.doneCostas)
	}()
	go func() {
		d.rrc.Run(d.q2, d.q3)
		close(d.doneRRC)
	}()
	go func() {
		d.clock.Run(d.q3, d.q4)
		close(d.doneClock)
	}()
	go func() {
		d.quant.Run(d.q4, d.q5)
		close(d.doneQuant)
	}()

	var ctx context.Context
	ctx, d.statsCancel = context.WithCancel(context.Background())
	go d.runStats(ctx)
}

// Stop asks the source to wind down, then joins every worker in pipeline
// order (source, AGC, Costas, RRC, ClockRecovery, Quantize, stats) before
// returning. Any block already in flight completes normally; there is no
// forcible interruption.
func (d *Demodulator) Stop() {
	d.source.Stop()

	if err := <-d.doneSource; err != nil {
		d.logger.Warn("source terminated with error", "err", &SourceError{Cause: err})
	}
	<-d.doneAGC
	<-d.doneCostas
	<-d.doneRRC
	<-d.doneClock
	<-d.doneQuant

	d.statsCancel()
	<-d.statsDone
}

// GetSoftBitsQueue exposes the terminal queue to the caller.
func (d *Demodulator) GetSoftBitsQueue() *dsp.Queue[dsp.SoftBitBlock] {
	return d.q5
}

// statsInterval is the nominal StatsPublisher cadence. runStats adds a
// fixed 50ms to it when the symbol rate is odd (LRIT) and nothing when it
// is even (HRIT); instances of the same signal type tick with the same
// period.
const statsInterval = time.Second

func (d *Demodulator) runStats(ctx context.Context) {
	defer close(d.statsDone)
	if d.stats == nil {
		<-ctx.Done()
		return
	}

	jitter := time.Duration(50*(int64(d.symbolRate)%2)) * time.Millisecond
	ticker := time.NewTicker(statsInterval + jitter)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.stats.Publish(StatsRecord{
				Gain:              d.agc.Gain(),
				CostasFrequencyHz: d.costas.Frequency() * d.cfg.SampleRate / (2 * math.Pi),
				Omega:             d.clock.Omega(),
			})
		}
	}
}

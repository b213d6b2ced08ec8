// Package rigtrim implements an optional StatsPublisher subscriber that
// nudges an external downconverter/rig's local oscillator to compensate
// for slow thermal drift, so the Costas loop's maxDeviation budget isn't
// spent entirely on hardware drift. It drives the rig via the pure-Go
// github.com/xylo04/goHamlib binding.
package rigtrim

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/jjstecchino/goesrecv/internal/pipeline"
)

// Rig is the subset of goHamlib's rig handle Trimmer depends on, broken
// out so tests can substitute a mock instead of requiring a real rig or
// rigctld — mirroring the gpioOutputLine seam in internal/telemetry.
type Rig struct {
	SetFreq func(hz float64) error
	GetFreq func() (float64, error)
}

// Trimmer watches StatsRecord.CostasFrequencyHz and, once the error has
// exceeded threshold continuously for sustain, retunes the rig by that
// offset, clamped to +-maxStep, and resets the Costas loop's expectation implicitly (the
// next StatsRecord will report a smaller error once the LO has moved).
type Trimmer struct {
	logger *log.Logger
	rig    Rig

	threshold float32 // Hz
	sustain   time.Duration
	step      float64 // Hz, max single retune step

	badSince time.Time
}

// NewTrimmer constructs a Trimmer. logger may be nil.
func NewTrimmer(logger *log.Logger, rig Rig, threshold float32, sustain time.Duration, maxStep float64) *Trimmer {
	if logger == nil {
		logger = log.Default()
	}
	return &Trimmer{logger: logger, rig: rig, threshold: threshold, sustain: sustain, step: maxStep}
}

// Publish implements pipeline.StatsPublisher.
func (tr *Trimmer) Publish(r pipeline.StatsRecord) {
	err := r.CostasFrequencyHz
	if absF64(float64(err)) < float64(tr.threshold) {
		tr.badSince = time.Time{}
		return
	}

	now := time.Now()
	if tr.badSince.IsZero() {
		tr.badSince = now
		return
	}
	if now.Sub(tr.badSince) < tr.sustain {
		return
	}

	offset := clampF64(float64(err), -tr.step, tr.step)

	current, getErr := tr.rig.GetFreq()
	if getErr != nil {
		tr.logger.Warn("rig trim: could not read current frequency", "err", getErr)
		return
	}

	if setErr := tr.rig.SetFreq(current - offset); setErr != nil {
		tr.logger.Warn("rig trim: could not set frequency", "err", setErr)
		return
	}

	tr.logger.Info("rig LO trimmed", "offsetHz", offset, "newFreqHz", current-offset)
	tr.badSince = time.Time{}
}

func absF64(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func clampF64(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

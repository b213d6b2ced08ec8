package telemetry

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/warthog618/go-gpiocdev"

	"github.com/jjstecchino/goesrecv/internal/pipeline"
)

// gpioOutputLine is the subset of *gpiocdev.Line LockIndicator depends
// on, broken out so tests can substitute a mock instead of requiring GPIO
// hardware or the gpio-sim kernel module.
type gpioOutputLine interface {
	SetValue(value int) error
	Close() error
}

// LockIndicator is a StatsPublisher subscriber that drives a GPIO line
// high once Costas frequency error and ClockRecovery omega have both
// settled within tolerance for a configurable dwell time, and low again
// the moment either drifts out — a headless-box lock light for an
// unattended ground station.
type LockIndicator struct {
	logger *log.Logger

	line gpioOutputLine

	freqTolerance float32 // Hz, acceptable |CostasFrequencyHz|
	omegaCenter   float32
	omegaSlack    float32 // acceptable |omega - omegaCenter|
	dwell         time.Duration

	mu        sync.Mutex
	sinceGood time.Time // zero value means "not currently within tolerance"
	locked    bool
}

// NewLockIndicator opens chip/line via go-gpiocdev and configures it as an
// output, initially low. freqTolerance bounds the accepted Costas
// frequency error in Hz; omegaCenter/omegaSlack bound the accepted
// ClockRecovery omega; dwell is how long both must hold before the line
// is asserted.
func NewLockIndicator(logger *log.Logger, chip string, offset int, freqTolerance, omegaCenter, omegaSlack float32, dwell time.Duration) (*LockIndicator, error) {
	if logger == nil {
		logger = log.Default()
	}

	line, err := gpiocdev.RequestLine(chip, offset, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, &PublisherError{Sink: "lock-indicator", Cause: err}
	}

	return newLockIndicator(logger, line, freqTolerance, omegaCenter, omegaSlack, dwell), nil
}

func newLockIndicator(logger *log.Logger, line gpioOutputLine, freqTolerance, omegaCenter, omegaSlack float32, dwell time.Duration) *LockIndicator {
	if logger == nil {
		logger = log.Default()
	}
	return &LockIndicator{
		logger:        logger,
		line:          line,
		freqTolerance: freqTolerance,
		omegaCenter:   omegaCenter,
		omegaSlack:    omegaSlack,
		dwell:         dwell,
	}
}

// Publish implements pipeline.StatsPublisher.
func (l *LockIndicator) Publish(r pipeline.StatsRecord) {
	within := absF32(r.CostasFrequencyHz) <= l.freqTolerance &&
		absF32(r.Omega-l.omegaCenter) <= l.omegaSlack

	l.mu.Lock()
	defer l.mu.Unlock()

	if !within {
		l.sinceGood = time.Time{}
		l.setLocked(false)
		return
	}

	if l.sinceGood.IsZero() {
		l.sinceGood = nowFunc()
		return
	}

	if nowFunc().Sub(l.sinceGood) >= l.dwell {
		l.setLocked(true)
	}
}

// setLocked drives the GPIO line and updates l.locked, logging only on
// transition so a flapping lock doesn't flood the log.
func (l *LockIndicator) setLocked(locked bool) {
	if locked == l.locked {
		return
	}
	l.locked = locked

	val := 0
	if locked {
		val = 1
	}
	if err := l.line.SetValue(val); err != nil {
		l.logger.Warn("lock indicator set value failed", "err", &PublisherError{Sink: "lock-indicator", Cause: err})
		return
	}
	l.logger.Info("lock state changed", "locked", locked)
}

// Locked reports the indicator's current state.
func (l *LockIndicator) Locked() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.locked
}

// Close releases the underlying GPIO line.
func (l *LockIndicator) Close() error {
	return l.line.Close()
}

func absF32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

// nowFunc is a var so dwell-timing tests can override it; production code
// never substitutes it.
var nowFunc = time.Now

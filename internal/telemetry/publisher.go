// Package telemetry implements the SamplePublisher/SoftBitPublisher/
// StatsPublisher side channels: optional, non-blocking sinks that give
// out-of-band inspection points without ever slowing the DSP path.
//
// SampleBroadcaster and SoftBitBroadcaster are dumb fan-out routers built
// on stdlib channels; StatsBroadcaster additionally advertises itself over
// mDNS via brutella/dnssd so a dashboard doesn't need static
// configuration.
package telemetry

import "github.com/charmbracelet/log"

// PublisherError wraps a telemetry sink failure. This class is always
// recoverable: logged at Warn and suppressed, never propagated to a DSP
// stage.
type PublisherError struct {
	Sink  string
	Cause error
}

func (e *PublisherError) Error() string {
	return "publisher " + e.Sink + ": " + e.Cause.Error()
}

func (e *PublisherError) Unwrap() error {
	return e.Cause
}

func logSuppressed(logger *log.Logger, sink string, err error) {
	if logger == nil {
		logger = log.Default()
	}
	logger.Warn("publisher error suppressed", "err", &PublisherError{Sink: sink, Cause: err})
}

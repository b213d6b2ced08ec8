package pipeline

// StatsRecord is the periodic snapshot published while the pipeline
// runs: current AGC gain, Costas frequency in Hz (derived from
// freq * sampleRate / (2*pi)), and ClockRecovery omega in
// samples/symbol.
type StatsRecord struct {
	Gain              float32
	CostasFrequencyHz float32
	Omega             float32
}

// StatsPublisher is the external sink StatsPublisher.Publish is called
// against roughly once a second while the pipeline runs. Implementations
// must not block; a slow or failing publisher is a recoverable
// PublisherError, logged and suppressed by the implementation itself —
// the pipeline never waits on it.
type StatsPublisher interface {
	Publish(StatsRecord)
}

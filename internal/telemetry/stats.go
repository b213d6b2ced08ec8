package telemetry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/brutella/dnssd"
	"github.com/charmbracelet/log"
	"github.com/lestrrat-go/strftime"

	"github.com/jjstecchino/goesrecv/internal/pipeline"
)

// StatsLogPattern is the strftime pattern used to name a rotated stats
// log file, one per calendar day.
const StatsLogPattern = "goesrecv-stats-%Y%m%d.log"

// StatsBroadcaster implements pipeline.StatsPublisher. It fans each
// record out to a broadcaster sink (dashboards, tests, the cmd/goesrecv
// live HUD) and, when Advertise is called, announces its existence on
// the LAN via mDNS so a dashboard doesn't need static configuration.
type StatsBroadcaster struct {
	mu     sync.Mutex
	logger *log.Logger
	last   pipeline.StatsRecord
	subs   []chan pipeline.StatsRecord

	responder dnssd.Responder
	handle    dnssd.ServiceHandle
	cancel    context.CancelFunc
}

// NewStatsBroadcaster constructs a StatsBroadcaster. logger may be nil.
func NewStatsBroadcaster(logger *log.Logger) *StatsBroadcaster {
	if logger == nil {
		logger = log.Default()
	}
	return &StatsBroadcaster{logger: logger}
}

// Subscribe registers a subscriber channel for stats records.
func (s *StatsBroadcaster) Subscribe(depth int) chan pipeline.StatsRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan pipeline.StatsRecord, depth)
	s.subs = append(s.subs, ch)
	return ch
}

// Publish implements pipeline.StatsPublisher.
func (s *StatsBroadcaster) Publish(r pipeline.StatsRecord) {
	s.mu.Lock()
	s.last = r
	subs := s.subs
	s.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- r:
		default:
		}
	}
}

// Last returns the most recently published record, for a synchronous
// status readout.
func (s *StatsBroadcaster) Last() pipeline.StatsRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// LogFileName formats StatsLogPattern against now, giving one file name
// per calendar day. Nothing in this module opens or writes a stats log
// file under that name.
func LogFileName(now time.Time) (string, error) {
	f, err := strftime.New(StatsLogPattern)
	if err != nil {
		return "", fmt.Errorf("stats log pattern: %w", err)
	}
	return f.FormatString(now), nil
}

// Advertise announces this StatsBroadcaster on the LAN as
// "_goesrecv-stats._tcp" on the given port, so a ground-station dashboard
// can discover a running instance without static configuration. It
// returns a teardown func. A failure to advertise is logged at Warn and
// returned as a *PublisherError together with a no-op teardown; the
// pipeline itself never sees it.
func (s *StatsBroadcaster) Advertise(ctx context.Context, instanceName string, port int) (teardown func(), err error) {
	cfg := dnssd.Config{
		Name: instanceName,
		Type: "_goesrecv-stats._tcp",
		Port: port,
	}
	service, err := dnssd.NewService(cfg)
	if err != nil {
		logSuppressed(s.logger, "stats-mdns", err)
		return func() {}, &PublisherError{Sink: "stats-mdns", Cause: err}
	}

	responder, err := dnssd.NewResponder()
	if err != nil {
		logSuppressed(s.logger, "stats-mdns", err)
		return func() {}, &PublisherError{Sink: "stats-mdns", Cause: err}
	}

	handle, err := responder.Add(service)
	if err != nil {
		logSuppressed(s.logger, "stats-mdns", err)
		return func() {}, &PublisherError{Sink: "stats-mdns", Cause: err}
	}

	respondCtx, cancel := context.WithCancel(ctx)
	go func() {
		if err := responder.Respond(respondCtx); err != nil && respondCtx.Err() == nil {
			logSuppressed(s.logger, "stats-mdns", err)
		}
	}()

	s.responder = responder
	s.handle = handle
	s.cancel = cancel

	return func() {
		responder.Remove(handle)
		cancel()
	}, nil
}

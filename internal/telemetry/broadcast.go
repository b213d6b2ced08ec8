package telemetry

import (
	"sync"

	"github.com/jjstecchino/goesrecv/internal/dsp"
)

// SampleBroadcaster fans a stage's SamplePublisher.Publish calls out to
// any number of registered subscriber channels. Publish never blocks: a
// subscriber that isn't keeping up simply misses blocks.
type SampleBroadcaster struct {
	mu   sync.RWMutex
	subs map[chan dsp.SampleBlock]struct{}
}

// NewSampleBroadcaster constructs an empty broadcaster.
func NewSampleBroadcaster() *SampleBroadcaster {
	return &SampleBroadcaster{subs: make(map[chan dsp.SampleBlock]struct{})}
}

// Subscribe registers a new subscriber channel with the given buffer
// depth and returns it, along with an Unsubscribe func to remove it.
func (b *SampleBroadcaster) Subscribe(depth int) (ch chan dsp.SampleBlock, unsubscribe func()) {
	ch = make(chan dsp.SampleBlock, depth)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch, func() {
		b.mu.Lock()
		delete(b.subs, ch)
		b.mu.Unlock()
	}
}

// Publish implements dsp.SamplePublisher. It copies block into each
// subscriber's channel on a best-effort basis and returns immediately.
func (b *SampleBroadcaster) Publish(block dsp.SampleBlock) {
	cp := make(dsp.SampleBlock, len(block))
	copy(cp, block)

	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- cp:
		default:
		}
	}
}

// SoftBitBroadcaster is the SoftBitBlock analogue of SampleBroadcaster.
type SoftBitBroadcaster struct {
	mu   sync.RWMutex
	subs map[chan dsp.SoftBitBlock]struct{}
}

// NewSoftBitBroadcaster constructs an empty broadcaster.
func NewSoftBitBroadcaster() *SoftBitBroadcaster {
	return &SoftBitBroadcaster{subs: make(map[chan dsp.SoftBitBlock]struct{})}
}

// Subscribe registers a new subscriber channel.
func (b *SoftBitBroadcaster) Subscribe(depth int) (ch chan dsp.SoftBitBlock, unsubscribe func()) {
	ch = make(chan dsp.SoftBitBlock, depth)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch, func() {
		b.mu.Lock()
		delete(b.subs, ch)
		b.mu.Unlock()
	}
}

// Publish implements dsp.SoftBitPublisher.
func (b *SoftBitBroadcaster) Publish(block dsp.SoftBitBlock) {
	cp := make(dsp.SoftBitBlock, len(block))
	copy(cp, block)

	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- cp:
		default:
		}
	}
}

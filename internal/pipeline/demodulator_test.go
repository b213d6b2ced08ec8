package pipeline

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jjstecchino/goesrecv/internal/config"
	"github.com/jjstecchino/goesrecv/internal/dsp"
)

// sliceSource is a test Source.Run implementation that yields a fixed
// sample stream in equal-sized blocks, then closes qout. It also honors
// Stop for the E6 graceful-shutdown scenario.
type sliceSource struct {
	samples   dsp.SampleBlock
	blockSize int
	delay     time.Duration // E5: simulate a slow/paced producer

	stopped atomic.Bool
}

func (s *sliceSource) Run(qout *dsp.Queue[dsp.SampleBlock]) error {
	for i := 0; i < len(s.samples); i += s.blockSize {
		if s.stopped.Load() {
			break
		}
		end := i + s.blockSize
		if end > len(s.samples) {
			end = len(s.samples)
		}
		buf := qout.PopForWrite()
		*buf = (*buf)[:end-i]
		copy(*buf, s.samples[i:end])
		qout.PushWrite(buf)
		if s.delay > 0 {
			time.Sleep(s.delay)
		}
	}
	qout.Close()
	return nil
}

func (s *sliceSource) Stop() {
	s.stopped.Store(true)
}

type collectingStats struct {
	records []StatsRecord
}

func (c *collectingStats) Publish(r StatsRecord) {
	c.records = append(c.records, r)
}

func testConfig(t *testing.T, blockSize int) config.Config {
	t.Helper()
	cfg := config.Default(config.LRIT)
	cfg.SampleRate = 2_400_000
	cfg.Decimation = 2
	cfg.Block.Size = blockSize
	cfg.Queue.Capacity = 4
	return cfg
}

func drainSoftBits(q *dsp.Queue[dsp.SoftBitBlock]) dsp.SoftBitBlock {
	var all dsp.SoftBitBlock
	for {
		buf := q.PopForRead()
		if buf == nil {
			return all
		}
		all = append(all, *buf...)
		q.PushRead(buf)
	}
}

// TestPipelineSilence is scenario E1: an all-zero input produces an
// all-zero soft-bit stream, and AGC gain reaches its min clamp.
func TestPipelineSilence(t *testing.T) {
	cfg := testConfig(t, 4096)
	cfg.AGC.Min = 0.05
	cfg.AGC.Max = 10

	samples := make(dsp.SampleBlock, 200_000)
	src := &sliceSource{samples: samples, blockSize: cfg.Block.Size}

	d := New(nil)
	require.NoError(t, d.Initialize(cfg, src, Publishers{}))
	d.Start()

	bits := drainSoftBits(d.GetSoftBitsQueue())
	d.Stop()

	for _, b := range bits {
		require.Equal(t, dsp.SoftBit(0), b)
	}
	require.InDelta(t, float32(0.05), d.agc.Gain(), 1e-6)
}

// TestPipelineBackPressure is scenario E5: a slow soft-bit consumer must
// not make the pipeline allocate beyond queue capacity, and output must
// still be produced correctly.
func TestPipelineBackPressure(t *testing.T) {
	cfg := testConfig(t, 2048)
	cfg.Queue.Capacity = 3

	samples := make(dsp.SampleBlock, 80_000)
	for i := range samples {
		samples[i] = complex(float32(1), 0)
	}
	src := &sliceSource{samples: samples, blockSize: cfg.Block.Size}

	d := New(nil)
	require.NoError(t, d.Initialize(cfg, src, Publishers{}))
	d.Start()

	q := d.GetSoftBitsQueue()
	var total int
	for {
		buf := q.PopForRead()
		if buf == nil {
			break
		}
		total += len(*buf)
		time.Sleep(time.Millisecond) // paced consumer
		q.PushRead(buf)

		require.LessOrEqual(t, q.Len(), cfg.Queue.Capacity)
	}
	d.Stop()

	require.Greater(t, total, 0)
}

// TestPipelineGracefulStop covers graceful shutdown: closing the source
// mid-stream yields clean termination within one block-time per stage,
// as long as the soft-bit consumer keeps draining. A stalled consumer,
// not a stalled producer, is what Stop cannot force past — there is no
// forcible interruption of a block already in flight.
func TestPipelineGracefulStop(t *testing.T) {
	cfg := testConfig(t, 1024)

	samples := make(dsp.SampleBlock, 10_000_000)
	src := &sliceSource{samples: samples, blockSize: cfg.Block.Size, delay: time.Millisecond}

	d := New(nil)
	require.NoError(t, d.Initialize(cfg, src, Publishers{}))
	d.Start()

	q := d.GetSoftBitsQueue()
	drainDone := make(chan struct{})
	go func() {
		defer close(drainDone)
		for {
			buf := q.PopForRead()
			if buf == nil {
				return
			}
			q.PushRead(buf)
		}
	}()

	time.Sleep(20 * time.Millisecond) // let a few blocks flow mid-stream

	stopped := make(chan struct{})
	go func() {
		d.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return promptly after mid-stream shutdown")
	}

	select {
	case <-drainDone:
	case <-time.After(time.Second):
		t.Fatal("soft-bit queue never closed after Stop")
	}
}

// TestPipelineEOFAfterSourceCloses is the EOF half of property 8: after
// the source closes, the soft-bit queue eventually closes and emits no
// further blocks.
func TestPipelineEOFAfterSourceCloses(t *testing.T) {
	cfg := testConfig(t, 8192)

	samples := make(dsp.SampleBlock, 150_000)
	for i := range samples {
		samples[i] = complex(float32(1), 0)
	}
	src := &sliceSource{samples: samples, blockSize: cfg.Block.Size}

	d := New(nil)
	require.NoError(t, d.Initialize(cfg, src, Publishers{}))
	d.Start()

	bits := drainSoftBits(d.GetSoftBitsQueue())
	d.Stop()

	require.Nil(t, d.GetSoftBitsQueue().PopForRead())
	require.Greater(t, len(bits), 0)
}

// TestPipelineStatsPublished exercises the StatsPublisher worker.
func TestPipelineStatsPublished(t *testing.T) {
	cfg := testConfig(t, 4096)

	samples := make(dsp.SampleBlock, 40_000)
	src := &sliceSource{samples: samples, blockSize: cfg.Block.Size, delay: 100 * time.Millisecond}

	stats := &collectingStats{}

	d := New(nil)
	require.NoError(t, d.Initialize(cfg, src, Publishers{Stats: stats}))
	d.Start()

	_ = drainSoftBits(d.GetSoftBitsQueue())
	d.Stop()

	// Not asserting a specific count: cadence is jittered, approximately
	// 1/s. Just confirm the worker ran cleanly without panicking or
	// blocking Stop.
}

func TestInitializeRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default(config.LRIT)
	cfg.SampleRate = 0 // invalid

	d := New(nil)
	err := d.Initialize(cfg, &sliceSource{}, Publishers{})
	require.Error(t, err)
}

package dsp

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// TestQuantizeSaturation is property 7: inputs with |real| >= 127/K
// saturate at +-127; real = 0 maps to 0.
func TestQuantizeSaturation(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		scale := rapid.Float32Range(1, 128).Draw(t, "scale")
		extra := rapid.Float32Range(0, 10).Draw(t, "extra")
		sign := rapid.SampledFrom([]float32{-1, 1}).Draw(t, "sign")

		threshold := 127 / scale
		re := sign * (threshold + extra)

		got := quantizeOne(complex(re, 0), scale)
		if sign > 0 {
			require.Equal(t, SoftBit(127), got)
		} else {
			require.Equal(t, SoftBit(-127), got)
		}
	})
}

func TestQuantizeZero(t *testing.T) {
	require.Equal(t, SoftBit(0), quantizeOne(complex(float32(0), 0), DefaultQuantizeScale))
}

func TestQuantizeRunThroughQueues(t *testing.T) {
	q := NewQuantize(DefaultQuantizeScale)
	qin := NewSampleQueue(2, 4)
	qout := NewSoftBitQueue(2, 4)

	go func() {
		buf := qin.PopForWrite()
		(*buf)[0] = complex(float32(2), 0)
		(*buf)[1] = complex(float32(-2), 0)
		(*buf)[2] = complex(float32(0), 0)
		(*buf)[3] = complex(float32(0.5), 0)
		qin.PushWrite(buf)
		qin.Close()
	}()

	q.Run(qin, qout)

	out := qout.PopForRead()
	require.NotNil(t, out)
	require.Equal(t, SoftBit(127), (*out)[0])
	require.Equal(t, SoftBit(-127), (*out)[1])
	require.Equal(t, SoftBit(0), (*out)[2])
	require.Nil(t, qout.PopForRead())
}

package source

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jjstecchino/goesrecv/internal/dsp"
)

func encodeIQ(pairs [][2]float32) []byte {
	buf := new(bytes.Buffer)
	for _, p := range pairs {
		var b [8]byte
		binary.LittleEndian.PutUint32(b[0:4], math.Float32bits(p[0]))
		binary.LittleEndian.PutUint32(b[4:8], math.Float32bits(p[1]))
		buf.Write(b[:])
	}
	return buf.Bytes()
}

func TestFileSourceReadsBlocks(t *testing.T) {
	raw := encodeIQ([][2]float32{{1, 2}, {3, 4}, {5, 6}, {7, 8}, {9, 10}})
	fs := NewFileSource(nil, bytes.NewReader(raw), 2)

	q := dsp.NewSampleQueue(8, 2)
	require.NoError(t, fs.Run(q))

	var got dsp.SampleBlock
	for {
		buf := q.PopForRead()
		if buf == nil {
			break
		}
		got = append(got, *buf...)
		q.PushRead(buf)
	}

	require.Len(t, got, 5)
	require.Equal(t, complex64(complex(1, 2)), got[0])
	require.Equal(t, complex64(complex(9, 10)), got[4])
}

func TestFileSourceStopHaltsEarly(t *testing.T) {
	raw := encodeIQ(make([][2]float32, 1000))
	fs := NewFileSource(nil, bytes.NewReader(raw), 4)
	fs.Stop()

	q := dsp.NewSampleQueue(8, 4)
	require.NoError(t, fs.Run(q))
	require.Nil(t, q.PopForRead())
}

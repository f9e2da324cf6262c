package audio

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func f32leBytes(samples []float32) []byte {
	buf := make([]byte, len(samples)*4)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(s))
	}
	return buf
}

func TestDurationSeconds(t *testing.T) {
	pcm := f32leBytes(make([]float32, 16000*2))
	assert.Equal(t, 2.0, DurationSeconds(pcm, 16000))
}

func TestDurationSeconds_ZeroSampleRate(t *testing.T) {
	assert.Equal(t, 0.0, DurationSeconds([]byte{1, 2, 3, 4}, 0))
}

func TestToFloat32_RoundTrips(t *testing.T) {
	samples := []float32{0.5, -0.25, 1.0, -1.0}
	pcm := f32leBytes(samples)

	out := ToFloat32(pcm)
	require := assert.New(t)
	require.Len(out, len(samples))
	for i, s := range samples {
		require.InDelta(s, out[i], 1e-6)
	}
}

func TestToInt16_ClampsOutOfRange(t *testing.T) {
	samples := []float32{2.0, -2.0, 0.0}
	pcm := f32leBytes(samples)

	out := ToInt16(pcm)
	require := assert.New(t)
	require.Len(out, 3)
	require.Equal(int16(32767), out[0])
	require.Equal(int16(-32768), out[1])
	require.Equal(int16(0), out[2])
}

func TestNewDecoder_DefaultsBinPath(t *testing.T) {
	d := NewDecoder("")
	assert.Equal(t, "ffmpeg", d.binPath)
}

func TestDecodeError_Error(t *testing.T) {
	err := &DecodeError{Stderr: "boom"}
	assert.Contains(t, err.Error(), "boom")
}

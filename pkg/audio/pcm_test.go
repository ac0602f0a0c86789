package audio_test

import (
	"encoding/base64"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Raikerian/go-voicechat/pkg/audio"
)

// quantStep covers truncation plus the 32767/32768 scale asymmetry.
const quantStep = 2.0 / 32768

func TestEncodeFrame(t *testing.T) {
	tests := map[string]struct {
		input    []float32
		expected []int16
	}{
		"silence": {
			input:    []float32{0, 0, 0},
			expected: []int16{0, 0, 0},
		},
		"full_scale": {
			input:    []float32{1, -1},
			expected: []int16{32767, -32768},
		},
		"clamped_out_of_range": {
			input:    []float32{1.5, -3},
			expected: []int16{32767, -32768},
		},
		"half_scale": {
			input:    []float32{0.5, -0.5},
			expected: []int16{16383, -16384},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			blob := audio.EncodeFrame(tt.input, audio.InputSampleRate)

			assert.Equal(t, "audio/pcm;rate=16000", blob.MIMEType)

			raw, err := base64.StdEncoding.DecodeString(blob.Data)
			require.NoError(t, err, "should produce valid base64")
			assert.Len(t, raw, len(tt.input)*2)
			assert.Equal(t, tt.expected, audio.LEToPCMInt16(raw))
		})
	}
}

func TestEncodeFrame_LittleEndian(t *testing.T) {
	blob := audio.EncodeFrame([]float32{1}, audio.InputSampleRate)
	raw, err := base64.StdEncoding.DecodeString(blob.Data)
	require.NoError(t, err)

	assert.Equal(t, []byte{0xFF, 0x7F}, raw)
}

func TestDecodePayload(t *testing.T) {
	valid := audio.EncodePCM16([]int16{0, 16384, -32768, 32767})

	tests := map[string]struct {
		input       string
		channels    int
		expectError bool
	}{
		"empty": {
			input:       "",
			channels:    1,
			expectError: true,
		},
		"invalid_base64": {
			input:       "not-valid-base64!@#$",
			channels:    1,
			expectError: true,
		},
		"odd_length": {
			input:       base64.StdEncoding.EncodeToString([]byte{0x01, 0x02, 0x03}),
			channels:    1,
			expectError: true,
		},
		"mono": {
			input:    valid,
			channels: 1,
		},
		"stereo": {
			input:    valid,
			channels: 2,
		},
		"channels_do_not_divide": {
			input:       valid,
			channels:    3,
			expectError: true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			buf, err := audio.DecodePayload(tt.input, tt.channels, audio.OutputSampleRate)

			if tt.expectError {
				require.Error(t, err)
				assert.ErrorIs(t, err, audio.ErrDecodeFailure)
				assert.Nil(t, buf)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.channels, buf.Channels)
			assert.Equal(t, audio.OutputSampleRate, buf.SampleRate)
			assert.Equal(t, 4/tt.channels, buf.Length())
		})
	}
}

func TestDecodePayload_Deinterleaves(t *testing.T) {
	payload := audio.EncodePCM16([]int16{16384, -16384, 8192, -8192})

	buf, err := audio.DecodePayload(payload, 2, audio.OutputSampleRate)
	require.NoError(t, err)

	assert.Equal(t, []float32{0.5, 0.25}, buf.Data[0])
	assert.Equal(t, []float32{-0.5, -0.25}, buf.Data[1])
}

func TestDecodePayload_Duration(t *testing.T) {
	payload := audio.EncodePCM16(make([]int16, audio.OutputSampleRate/2))

	buf, err := audio.DecodePayload(payload, 1, audio.OutputSampleRate)
	require.NoError(t, err)

	assert.InDelta(t, 0.5, buf.Duration(), 1e-9)
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	frame := make([]float32, audio.InputFrameSize)
	for i := range frame {
		frame[i] = rng.Float32()*2 - 1
	}

	blob := audio.EncodeFrame(frame, audio.InputSampleRate)
	buf, err := audio.DecodePayload(blob.Data, 1, audio.SampleRateFromMIME(blob.MIMEType, 0))
	require.NoError(t, err)

	require.Equal(t, audio.InputSampleRate, buf.SampleRate)
	require.Equal(t, len(frame), buf.Length())
	for i, want := range frame {
		got := buf.Data[0][i]
		if math.Abs(float64(got-want)) > quantStep {
			t.Fatalf("sample %d: got %f want %f (beyond 16-bit quantization)", i, got, want)
		}
	}
}

func TestSampleRateFromMIME(t *testing.T) {
	tests := map[string]struct {
		input    string
		expected int
	}{
		"with_rate":       {input: "audio/pcm;rate=24000", expected: 24000},
		"spaced_params":   {input: "audio/pcm; rate=16000", expected: 16000},
		"no_rate":         {input: "audio/pcm", expected: 24000},
		"empty":           {input: "", expected: 24000},
		"garbage_rate":    {input: "audio/pcm;rate=fast", expected: 24000},
		"negative_rate":   {input: "audio/pcm;rate=-5", expected: 24000},
		"unparsable_mime": {input: ";;;", expected: 24000},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.expected, audio.SampleRateFromMIME(tt.input, audio.OutputSampleRate))
		})
	}
}

func TestResample(t *testing.T) {
	t.Run("16k_to_24k_length", func(t *testing.T) {
		out, err := audio.Resample(make([]int16, 1600), 16000, 24000)
		require.NoError(t, err)
		assert.Len(t, out, 2400)
	})

	t.Run("interpolates", func(t *testing.T) {
		out, err := audio.Resample([]int16{0, 100}, 1, 2)
		require.NoError(t, err)
		assert.Equal(t, []int16{0, 50, 100, 100}, out)
	})

	t.Run("same_rate_copies", func(t *testing.T) {
		src := []int16{1, 2, 3}
		out, err := audio.Resample(src, 8000, 8000)
		require.NoError(t, err)
		assert.Equal(t, src, out)
		out[0] = 9
		assert.Equal(t, int16(1), src[0])
	})

	t.Run("rejects_empty", func(t *testing.T) {
		_, err := audio.Resample(nil, 16000, 24000)
		assert.Error(t, err)
	})

	t.Run("rejects_bad_rate", func(t *testing.T) {
		_, err := audio.Resample([]int16{1}, 0, 24000)
		assert.Error(t, err)
	})
}

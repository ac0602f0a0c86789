package device

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFramer(t *testing.T) {
	tests := map[string]struct {
		size       int
		periods    []int
		wantFrames int
		wantLeft   int
	}{
		"exact periods": {
			size:       4,
			periods:    []int{4, 4},
			wantFrames: 2,
		},
		"short periods accumulate": {
			size:       4096,
			periods:    []int{1000, 1000, 1000, 1000, 200},
			wantFrames: 1,
			wantLeft:   104,
		},
		"long period splits": {
			size:       100,
			periods:    []int{350},
			wantFrames: 3,
			wantLeft:   50,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			var frames [][]float32
			f := newFramer(tt.size, func(frame []float32) { frames = append(frames, frame) })

			next := float32(0)
			for _, n := range tt.periods {
				period := make([]float32, n)
				for i := range period {
					period[i] = next
					next++
				}
				f.push(period)
			}

			require.Len(t, frames, tt.wantFrames)
			assert.Len(t, f.pending, tt.wantLeft)
			for i, frame := range frames {
				require.Len(t, frame, tt.size)
				assert.Equal(t, float32(i*tt.size), frame[0], "frame %d is out of order", i)
			}
		})
	}
}

func TestFramer_FramesAreIndependent(t *testing.T) {
	var frames [][]float32
	f := newFramer(2, func(frame []float32) { frames = append(frames, frame) })

	f.push([]float32{1, 2, 3, 4})

	require.Len(t, frames, 2)
	assert.Equal(t, []float32{1, 2}, frames[0])
	assert.Equal(t, []float32{3, 4}, frames[1])
}

func TestFloat32sFromLE(t *testing.T) {
	want := []float32{0, 0.5, -1, 0.25}
	raw := make([]byte, len(want)*4)
	for i, v := range want {
		binary.LittleEndian.PutUint32(raw[i*4:], math.Float32bits(v))
	}

	assert.Equal(t, want, float32sFromLE(raw, len(want)))
	assert.Equal(t, want[:2], float32sFromLE(raw, 2))
	assert.Len(t, float32sFromLE(raw[:6], 4), 1, "truncated buffers are not over-read")
}

package device

import (
	"encoding/binary"
	"math"
)

// framer re-blocks arbitrary capture periods into fixed-size frames.
type framer struct {
	size    int
	pending []float32
	emit    func([]float32)
}

func newFramer(size int, emit func([]float32)) *framer {
	return &framer{
		size:    size,
		pending: make([]float32, 0, size*2),
		emit:    emit,
	}
}

// push appends samples and emits every complete frame. Each emitted frame is
// a fresh slice the receiver may keep.
func (f *framer) push(samples []float32) {
	f.pending = append(f.pending, samples...)
	for len(f.pending) >= f.size {
		frame := make([]float32, f.size)
		copy(frame, f.pending[:f.size])
		f.pending = append(f.pending[:0], f.pending[f.size:]...)
		f.emit(frame)
	}
}

// float32sFromLE decodes n little-endian f32 samples from b.
func float32sFromLE(b []byte, n int) []float32 {
	if limit := len(b) / 4; n > limit {
		n = limit
	}
	out := make([]float32, n)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out
}

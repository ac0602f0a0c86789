package audio

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
	"sync"
)

// ErrContextClosed is returned when scheduling on a torn-down output clock.
var ErrContextClosed = errors.New("audio: output context closed")

// Tap receives the mono signal of every source connected to it, once per
// rendered block, in rendering order.
type Tap interface {
	Process(samples []float32)
}

// scheduledSource is one buffer placed on the render timeline.
type scheduledSource struct {
	buf   *Buffer
	start int64 // first frame on the global timeline
	taps  []Tap
}

func (s *scheduledSource) end() int64 { return s.start + int64(s.buf.Length()) }

// OutputContext is the output audio clock: a render timeline pulled by the
// speaker through Read. Its time is the number of frames rendered so far
// divided by the sample rate, so it only moves while something is pulling.
//
// Buffers are placed at an absolute start time and mixed into the rendered
// stream at that exact frame. Mixing sums into int32 and saturates on output.
// Safe for concurrent use.
type OutputContext struct {
	mu sync.Mutex

	sampleRate int
	channels   int

	frame   int64 // frames rendered so far
	sources []*scheduledSource
	closed  bool
}

// NewOutputContext creates an open output clock at time zero.
func NewOutputContext(sampleRate, channels int) *OutputContext {
	if channels <= 0 {
		channels = 1
	}
	return &OutputContext{sampleRate: sampleRate, channels: channels}
}

// SampleRate reports the render rate in Hz.
func (c *OutputContext) SampleRate() int { return c.sampleRate }

// Channels reports the rendered channel count.
func (c *OutputContext) Channels() int { return c.channels }

// CurrentTime returns the clock position in seconds.
func (c *OutputContext) CurrentTime() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return float64(c.frame) / float64(c.sampleRate)
}

// Span is the stretch of the clock a placed buffer occupies, in seconds.
type Span struct {
	Start float64
	End   float64
}

// Play schedules buf to start at the given clock time, connected to taps.
// A start time already in the past plays from the current position. The
// returned span is where the buffer actually landed, measured after any
// resampling to the render rate.
func (c *OutputContext) Play(buf *Buffer, at float64, taps ...Tap) (Span, error) {
	if buf != nil && buf.Length() > 0 && buf.SampleRate != c.sampleRate {
		buf = resampleBuffer(buf, c.sampleRate)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return Span{}, ErrContextClosed
	}

	start := max(int64(math.Round(at*float64(c.sampleRate))), c.frame)
	if buf == nil || buf.Length() == 0 {
		return c.spanLocked(start, start), nil
	}
	src := &scheduledSource{buf: buf, start: start, taps: taps}
	c.sources = append(c.sources, src)

	return c.spanLocked(src.start, src.end()), nil
}

func (c *OutputContext) spanLocked(from, to int64) Span {
	rate := float64(c.sampleRate)
	return Span{Start: float64(from) / rate, End: float64(to) / rate}
}

// Pending returns the number of sources that have not finished playing.
func (c *OutputContext) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.sources)
}

// Read renders the next block as interleaved s16le. It never blocks: with
// nothing scheduled it renders silence. After Close it returns io.EOF.
func (c *OutputContext) Read(p []byte) (int, error) {
	frameBytes := c.channels * BytesPerSample
	frames := len(p) / frameBytes

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return 0, io.EOF
	}

	from, to := c.frame, c.frame+int64(frames)
	acc := make([]int32, frames*c.channels)
	var tapped map[Tap][]float32

	live := c.sources[:0]
	for _, src := range c.sources {
		if src.start < to && src.end() > from {
			tapped = c.mixSource(src, from, to, acc, tapped)
		}
		if src.end() > to {
			live = append(live, src)
		}
	}
	for i := len(live); i < len(c.sources); i++ {
		c.sources[i] = nil
	}
	c.sources = live
	c.frame = to
	c.mu.Unlock()

	for i, v := range acc {
		binary.LittleEndian.PutUint16(p[i*2:], uint16(saturateInt16(v)))
	}
	for tap, samples := range tapped {
		tap.Process(samples)
	}

	return frames * frameBytes, nil
}

// mixSource adds the part of src that falls inside [from, to) into acc and
// accumulates its mono signal for every connected tap.
func (c *OutputContext) mixSource(src *scheduledSource, from, to int64, acc []int32, tapped map[Tap][]float32) map[Tap][]float32 {
	first := max(src.start, from)
	last := min(src.end(), to)

	for _, tap := range src.taps {
		if tapped == nil {
			tapped = make(map[Tap][]float32)
		}
		if _, ok := tapped[tap]; !ok {
			tapped[tap] = make([]float32, to-from)
		}
	}

	for f := first; f < last; f++ {
		i := int(f - src.start)
		out := int(f - from)
		for ch := 0; ch < c.channels; ch++ {
			s := src.buf.Data[min(ch, src.buf.Channels-1)][i]
			acc[out*c.channels+ch] += int32(FloatToInt16(s))
		}
		mono := src.buf.Data[0][i]
		for _, tap := range src.taps {
			tapped[tap][out] += mono
		}
	}
	return tapped
}

// Close tears the clock down and drops everything still scheduled.
// Idempotent.
func (c *OutputContext) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	c.sources = nil
	return nil
}

// Closed reports whether Close has been called.
func (c *OutputContext) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.closed
}

// resampleBuffer converts every channel of buf to rate by linear interpolation.
func resampleBuffer(buf *Buffer, rate int) *Buffer {
	n := int(int64(buf.Length()) * int64(rate) / int64(buf.SampleRate))
	out := NewBuffer(buf.Channels, n, rate)
	step := float64(buf.SampleRate) / float64(rate)
	last := buf.Length() - 1
	for ch, data := range buf.Data {
		for i := range out.Data[ch] {
			pos := float64(i) * step
			j := int(pos)
			if j >= last {
				out.Data[ch][i] = data[last]
				continue
			}
			frac := float32(pos - float64(j))
			out.Data[ch][i] = data[j]*(1-frac) + data[j+1]*frac
		}
	}
	return out
}

package audio_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Raikerian/go-voicechat/pkg/audio"
)

type playCall struct {
	at       float64
	duration float64
	taps     int
}

// fakeTimeline is a manually advanced output clock.
type fakeTimeline struct {
	now    float64
	closed bool
	calls  []playCall
}

func (f *fakeTimeline) CurrentTime() float64 { return f.now }

func (f *fakeTimeline) Play(buf *audio.Buffer, at float64, taps ...audio.Tap) (audio.Span, error) {
	if f.closed {
		return audio.Span{}, audio.ErrContextClosed
	}
	start := max(at, f.now)
	f.calls = append(f.calls, playCall{at: start, duration: buf.Duration(), taps: len(taps)})
	return audio.Span{Start: start, End: start + buf.Duration()}, nil
}

func bufferOf(seconds float64) *audio.Buffer {
	return audio.NewBuffer(1, int(seconds*audio.OutputSampleRate), audio.OutputSampleRate)
}

func TestScheduler_NoOverlapForArbitraryArrivals(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 50; run++ {
		timeline := &fakeTimeline{}
		s := audio.NewScheduler(timeline, nil)

		for i := 0; i < 40; i++ {
			timeline.now += rng.Float64() * 0.3
			_, err := s.Schedule(bufferOf(0.01 + rng.Float64()*0.2))
			require.NoError(t, err)
		}

		for i := 1; i < len(timeline.calls); i++ {
			prev, cur := timeline.calls[i-1], timeline.calls[i]
			assert.GreaterOrEqual(t, cur.at, prev.at+prev.duration,
				"buffer %d starts before buffer %d ends", i, i-1)
		}
	}
}

func TestScheduler_KeepingPaceHasNoDrift(t *testing.T) {
	timeline := &fakeTimeline{}
	s := audio.NewScheduler(timeline, nil)

	const duration = 0.1
	var total float64
	for i := 0; i < 20; i++ {
		start, err := s.Schedule(bufferOf(duration))
		require.NoError(t, err)
		assert.InDelta(t, total, start, 1e-9, "buffer %d is not back-to-back", i)

		total += duration
		// Next arrival comes before this buffer finishes.
		timeline.now += duration * 0.6
	}

	assert.InDelta(t, total, s.Cursor(), 1e-9)

	// Once playback drains, the clock catches up with the cursor exactly.
	timeline.now = total
	assert.InDelta(t, timeline.now, s.Cursor(), 1e-9)
}

func TestScheduler_LateArrivalPlaysImmediately(t *testing.T) {
	timeline := &fakeTimeline{}
	s := audio.NewScheduler(timeline, nil)

	_, err := s.Schedule(bufferOf(0.1))
	require.NoError(t, err)

	timeline.now = 0.5
	start, err := s.Schedule(bufferOf(0.1))
	require.NoError(t, err)

	assert.InDelta(t, 0.5, start, 1e-9, "late buffer must not wait for the stale cursor")
	assert.InDelta(t, 0.6, s.Cursor(), 1e-9)
}

func TestScheduler_CursorNeverBehindClock(t *testing.T) {
	timeline := &fakeTimeline{now: 3}
	s := audio.NewScheduler(timeline, nil)

	_, err := s.Schedule(bufferOf(0.2))
	require.NoError(t, err)

	assert.GreaterOrEqual(t, s.Cursor(), timeline.now)
}

func TestScheduler_ClosedTimelineIsSkipped(t *testing.T) {
	timeline := &fakeTimeline{}
	s := audio.NewScheduler(timeline, nil)

	_, err := s.Schedule(bufferOf(0.25))
	require.NoError(t, err)
	before := s.Cursor()

	timeline.closed = true
	_, err = s.Schedule(bufferOf(0.25))

	assert.ErrorIs(t, err, audio.ErrContextClosed)
	assert.Equal(t, before, s.Cursor(), "cursor must not move for a skipped buffer")
	assert.Len(t, timeline.calls, 1)
}

func TestScheduler_ConnectsTap(t *testing.T) {
	timeline := &fakeTimeline{}
	s := audio.NewScheduler(timeline, audio.NewAnalyser())

	_, err := s.Schedule(bufferOf(0.05))
	require.NoError(t, err)

	require.Len(t, timeline.calls, 1)
	assert.Equal(t, 1, timeline.calls[0].taps)
}

func TestScheduler_Reset(t *testing.T) {
	timeline := &fakeTimeline{}
	s := audio.NewScheduler(timeline, nil)

	_, err := s.Schedule(bufferOf(1))
	require.NoError(t, err)
	require.NotZero(t, s.Cursor())

	s.Reset()
	assert.Zero(t, s.Cursor())
}

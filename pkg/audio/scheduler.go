package audio

import "sync"

// Timeline is the part of an output clock the Scheduler needs.
type Timeline interface {
	CurrentTime() float64
	Play(buf *Buffer, at float64, taps ...Tap) (Span, error)
}

// Scheduler sequences independently arriving buffers back-to-back on one
// output clock. The cursor is the earliest time the next buffer may start;
// it never moves backwards, so no two scheduled buffers overlap.
//
// When arrivals keep pace the output is gapless. When they fall behind the
// next buffer plays immediately and the gap is audible; no silence is
// inserted to hide it.
type Scheduler struct {
	mu       sync.Mutex
	timeline Timeline
	tap      Tap
	cursor   float64
}

// NewScheduler binds a scheduler to timeline. Every scheduled buffer is also
// connected to tap (usually the spectral analyser); tap may be nil.
func NewScheduler(timeline Timeline, tap Tap) *Scheduler {
	return &Scheduler{timeline: timeline, tap: tap}
}

// Schedule places buf at max(now, cursor) and moves the cursor to the end of
// the span the timeline reports. The timeline may push the start later if its
// clock moved since it was read; the cursor follows the placed span, so the
// next buffer still starts after this one ends. It returns the start time
// actually applied. If the timeline has been torn down the error is
// ErrContextClosed and the cursor is left untouched.
func (s *Scheduler) Schedule(buf *Buffer) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	at := max(s.timeline.CurrentTime(), s.cursor)

	var taps []Tap
	if s.tap != nil {
		taps = append(taps, s.tap)
	}
	span, err := s.timeline.Play(buf, at, taps...)
	if err != nil {
		return 0, err
	}

	s.cursor = max(s.cursor, span.End)
	return span.Start, nil
}

// Cursor returns the earliest start time for the next buffer.
func (s *Scheduler) Cursor() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cursor
}

// Reset moves the cursor back to zero for a fresh output clock.
func (s *Scheduler) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cursor = 0
}

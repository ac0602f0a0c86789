// Package voice runs the conversation: it owns the session lifecycle, maps
// stream events onto the turn-taking status and feeds received speech to the
// playback scheduler.
package voice

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Raikerian/go-voicechat/internal/live"
	"github.com/Raikerian/go-voicechat/pkg/audio"
)

type decodeFunc func(b64 string, channels, sampleRate int) (*audio.Buffer, error)

// Controller drives at most one Session at a time. Its mutex serialises the
// status, session ownership and all scheduling.
type Controller struct {
	logger     *zap.Logger
	dialer     live.Dialer
	backend    AudioBackend
	sessionCfg live.SessionConfig
	frameSize  int
	decode     decodeFunc

	mu          sync.Mutex
	state       State
	session     *Session
	busy        bool               // a Start or teardown is in progress
	cancelStart context.CancelFunc // set while a Start is opening resources
}

// NewController creates an idle controller.
func NewController(logger *zap.Logger, dialer live.Dialer, backend AudioBackend, sessionCfg live.SessionConfig, frameSize int) *Controller {
	if frameSize <= 0 {
		frameSize = audio.InputFrameSize
	}
	return &Controller{
		logger:     logger,
		dialer:     dialer,
		backend:    backend,
		sessionCfg: sessionCfg,
		frameSize:  frameSize,
		decode:     audio.DecodePayload,
		state:      StateIdle,
	}
}

// Status returns the current status.
func (c *Controller) Status() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// Active reports whether a session is open or being opened or torn down.
func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.session != nil || c.busy
}

// ByteFrequencyData fills dst from the session's analyser. It returns 0 when
// no session is open.
func (c *Controller) ByteFrequencyData(dst []uint8) int {
	c.mu.Lock()
	sess := c.session
	c.mu.Unlock()

	if sess == nil || sess.analyser == nil {
		return 0
	}
	return sess.analyser.ByteFrequencyData(dst)
}

// Toggle starts a session when inactive and stops it otherwise.
func (c *Controller) Toggle(ctx context.Context) error {
	if c.Active() {
		return c.Stop()
	}
	return c.Start(ctx)
}

// Start opens the devices and the stream. On failure everything opened so far
// is released and the status becomes Error. A Stop while Start is still
// opening cancels it; Start then releases what it opened, settles on Idle and
// returns context.Canceled.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.session != nil || c.busy {
		c.mu.Unlock()
		return ErrSessionActive
	}
	c.busy = true
	if c.state == StateError {
		c.setStateLocked(StateIdle)
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	c.cancelStart = cancel
	c.mu.Unlock()

	sess := &Session{
		ID:        uuid.NewString(),
		StartTime: time.Now(),
	}
	sess.logger = c.logger.With(zap.String("session_id", sess.ID))
	sess.logger.Info("Starting session")

	if err := c.open(ctx, sess); err != nil {
		return c.failStart(ctx, sess, err)
	}

	// The handler is not running yet, so nothing can end the session
	// while the microphone starts.
	if err := sess.mic.Start(); err != nil {
		err = fmt.Errorf("%w: %w", ErrPermissionDenied, err)
		return c.failStart(ctx, sess, err)
	}

	c.mu.Lock()
	c.cancelStart = nil
	if ctx.Err() != nil {
		c.mu.Unlock()
		return c.failStart(ctx, sess, ctx.Err())
	}
	c.busy = false
	c.session = sess
	c.setStateLocked(StateListening)
	c.mu.Unlock()

	go c.handle(sess)

	sess.logger.Info("Session open", zap.String("model", c.sessionCfg.Model))
	return nil
}

// open acquires the session's resources in order: input clock, microphone,
// output context and speaker, then the stream.
func (c *Controller) open(ctx context.Context, sess *Session) error {
	input, err := c.backend.OpenInput(audio.InputSampleRate)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPermissionDenied, err)
	}
	sess.input = input

	mic, err := input.OpenMicrophone(c.frameSize, func(frame []float32) {
		c.onFrame(sess, frame)
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPermissionDenied, err)
	}
	sess.mic = mic

	sess.output = audio.NewOutputContext(audio.OutputSampleRate, audio.OutputChannels)
	sess.analyser = audio.NewAnalyser()
	sess.scheduler = audio.NewScheduler(sess.output, sess.analyser)

	speaker, err := c.backend.OpenOutput(sess.output)
	if err != nil {
		return fmt.Errorf("failed to open speaker: %w", err)
	}
	sess.speaker = speaker

	stream, err := c.dialer.Dial(ctx, c.sessionCfg)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionFailure, err)
	}
	sess.stream = stream

	return nil
}

func (c *Controller) failStart(ctx context.Context, sess *Session, err error) error {
	final := StateError
	if ctx.Err() != nil {
		final = StateIdle
		err = context.Canceled
		sess.logger.Info("Session start cancelled")
	} else {
		sess.logger.Error("Failed to start session", zap.Error(err))
	}

	if terr := sess.teardown(); terr != nil {
		sess.logger.Warn("Errors while releasing session", zap.Error(terr))
	}

	c.mu.Lock()
	c.busy = false
	c.cancelStart = nil
	c.setStateLocked(final)
	c.mu.Unlock()

	return err
}

// Stop tears down the current session and returns to Idle. A Start still
// opening is cancelled without waiting for it. Stopping with no session is a
// no-op.
func (c *Controller) Stop() error {
	c.mu.Lock()
	sess := c.session
	if sess == nil && c.cancelStart != nil {
		c.cancelStart()
		c.cancelStart = nil
	}
	c.mu.Unlock()

	if sess == nil {
		return nil
	}
	return c.end(sess, StateIdle)
}

// end detaches sess, releases it outside the lock and then settles on final.
// Late callbacks and events of a detached session are ignored.
func (c *Controller) end(sess *Session, final State) error {
	c.mu.Lock()
	if c.session != sess {
		c.mu.Unlock()
		return nil
	}
	c.session = nil
	c.busy = true
	c.mu.Unlock()

	err := sess.teardown()
	if err != nil {
		sess.logger.Warn("Errors while releasing session", zap.Error(err))
	}

	c.mu.Lock()
	c.busy = false
	c.setStateLocked(final)
	c.mu.Unlock()

	return err
}

// onFrame encodes one captured frame and enqueues it on the stream.
func (c *Controller) onFrame(sess *Session, frame []float32) {
	if !c.current(sess) {
		return
	}

	blob := audio.EncodeFrame(frame, audio.InputSampleRate)
	err := sess.stream.SendRealtimeInput(context.Background(), blob)
	switch {
	case err == nil:
	case errors.Is(err, live.ErrSendQueueFull):
		sess.logger.Warn("Dropping captured frame, send queue full")
	case errors.Is(err, live.ErrStreamClosed):
	default:
		sess.logger.Warn("Failed to send captured frame", zap.Error(err))
	}
}

// handle drains the session's events in arrival order.
func (c *Controller) handle(sess *Session) {
	for ev := range sess.stream.Events() {
		if !c.dispatch(sess, ev) {
			return
		}
	}
	// The stream gave up without a Closed event.
	c.end(sess, StateIdle)
}

// dispatch applies one event. It returns false once the session is over.
func (c *Controller) dispatch(sess *Session, ev live.Event) bool {
	c.mu.Lock()
	if c.session != sess {
		c.mu.Unlock()
		return false
	}

	switch e := ev.(type) {
	case live.InputTranscription:
		if e.Final {
			c.setStateLocked(StateThinking)
		} else {
			c.setStateLocked(StateListening)
		}
		c.mu.Unlock()
		sess.logger.Debug("Input transcription", zap.String("text", e.Text), zap.Bool("final", e.Final))

	case live.OutputTranscription:
		c.mu.Unlock()
		sess.logger.Debug("Output transcription", zap.String("text", e.Text))

	case live.TurnComplete:
		c.setStateLocked(StateListening)
		c.mu.Unlock()
		sess.logger.Debug("Turn complete")

	case live.Audio:
		c.setStateLocked(StateSpeaking)
		c.mu.Unlock()
		c.play(sess, e)

	case live.Error:
		c.mu.Unlock()
		sess.logger.Error("Stream error", zap.Error(fmt.Errorf("%w: %w", ErrStreamFault, e.Err)))
		c.end(sess, StateError)
		return false

	case live.Closed:
		c.mu.Unlock()
		sess.logger.Info("Stream closed", zap.Int("code", e.Code), zap.String("reason", e.Reason))
		c.end(sess, StateIdle)
		return false

	default:
		c.mu.Unlock()
		sess.logger.Debug("Ignoring event", zap.String("event", live.Describe(ev)))
	}
	return true
}

// play decodes one payload and schedules it. The session is rechecked after
// decoding, so a payload that finishes decoding after Stop is discarded.
func (c *Controller) play(sess *Session, a live.Audio) {
	rate := audio.SampleRateFromMIME(a.MIMEType, audio.OutputSampleRate)
	buf, err := c.decode(a.Data, audio.OutputChannels, rate)
	if err != nil {
		sess.logger.Warn("Skipping undecodable audio", zap.Error(err))
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != sess || sess.output.Closed() {
		return
	}

	start, err := sess.scheduler.Schedule(buf)
	if err != nil {
		if !errors.Is(err, audio.ErrContextClosed) {
			sess.logger.Warn("Failed to schedule audio", zap.Error(err))
		}
		return
	}
	sess.logger.Debug("Scheduled audio",
		zap.Float64("start", start),
		zap.Float64("duration", buf.Duration()))
}

func (c *Controller) current(sess *Session) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.session == sess
}

func (c *Controller) setStateLocked(to State) {
	if !CanTransition(c.state, to) {
		c.logger.Warn("Ignoring illegal status transition",
			zap.Stringer("from", c.state), zap.Stringer("to", to))
		return
	}
	if c.state != to {
		c.logger.Debug("Status changed", zap.Stringer("from", c.state), zap.Stringer("to", to))
	}
	c.state = to
}

// Package openai implements live.Dialer on the OpenAI Realtime API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"sync"

	openairt "github.com/WqyJh/go-openai-realtime"
	"github.com/coder/websocket"
	oai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/Raikerian/go-voicechat/internal/live"
	"github.com/Raikerian/go-voicechat/pkg/audio"
)

var _ live.Dialer = (*Dialer)(nil)

// InputSampleRate is the pcm16 rate the Realtime API expects for input and
// produces for output.
const InputSampleRate = 24000

const (
	eventBuffer   = 64
	outboundQueue = 64
)

// Dialer connects to the Realtime API with one API key.
type Dialer struct {
	logger *zap.Logger
	client *openairt.Client
}

// New creates a Dialer.
func New(logger *zap.Logger, apiKey string) *Dialer {
	return &Dialer{
		logger: logger,
		client: openairt.NewClient(apiKey),
	}
}

// Dial connects and configures the session with a session.update.
func (d *Dialer) Dial(ctx context.Context, cfg live.SessionConfig) (live.Stream, error) {
	d.logger.Info("Connecting to OpenAI Realtime API", zap.String("model", cfg.Model))

	conn, err := d.client.Connect(ctx, openairt.WithModel(cfg.Model))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to OpenAI Realtime: %w", err)
	}

	if err := conn.SendMessage(ctx, sessionUpdate(cfg)); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to configure session: %w", err)
	}

	sessCtx, cancel := context.WithCancel(context.Background())
	s := &stream{
		logger:   d.logger,
		conn:     conn,
		events:   make(chan live.Event, eventBuffer),
		outbound: make(chan openairt.ClientEvent, outboundQueue),
		usage:    newUsageMeter(cfg.Model),
		ctx:      sessCtx,
		cancel:   cancel,
	}

	go s.readLoop()
	go s.writeLoop()

	return s, nil
}

func sessionUpdate(cfg live.SessionConfig) *openairt.SessionUpdateEvent {
	modalities := make([]openairt.Modality, 0, len(cfg.ResponseModalities))
	for _, m := range cfg.ResponseModalities {
		switch m {
		case "text":
			modalities = append(modalities, openairt.ModalityText)
		case "audio":
			modalities = append(modalities, openairt.ModalityAudio)
		}
	}

	session := openairt.ClientSession{
		Modalities:        modalities,
		Instructions:      cfg.SystemInstruction,
		Voice:             openairt.Voice(cfg.Voice),
		InputAudioFormat:  openairt.AudioFormatPcm16,
		OutputAudioFormat: openairt.AudioFormatPcm16,
	}
	if cfg.InputTranscription {
		session.InputAudioTranscription = &openairt.InputAudioTranscription{
			Model: oai.Whisper1,
		}
	}
	return &openairt.SessionUpdateEvent{Session: session}
}

type stream struct {
	logger   *zap.Logger
	conn     *openairt.Conn
	events   chan live.Event
	outbound chan openairt.ClientEvent
	usage    *usageMeter

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	closed   bool
	writeErr error
}

// SendRealtimeInput converts the chunk to the 24 kHz pcm16 the API expects
// and enqueues an input_audio_buffer.append.
func (s *stream) SendRealtimeInput(_ context.Context, b audio.Blob) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return live.ErrStreamClosed
	}

	payload, err := toRealtimeInput(b)
	if err != nil {
		return err
	}

	select {
	case s.outbound <- &openairt.InputAudioBufferAppendEvent{Audio: payload}:
		return nil
	case <-s.ctx.Done():
		return live.ErrStreamClosed
	default:
		return live.ErrSendQueueFull
	}
}

// toRealtimeInput resamples a capture blob to InputSampleRate.
func toRealtimeInput(b audio.Blob) (string, error) {
	rate := audio.SampleRateFromMIME(b.MIMEType, audio.InputSampleRate)
	if rate == InputSampleRate {
		return b.Data, nil
	}

	samples, err := audio.DecodePCM16(b.Data)
	if err != nil {
		return "", err
	}
	resampled, err := audio.Resample(samples, rate, InputSampleRate)
	if err != nil {
		return "", fmt.Errorf("failed to resample input: %w", err)
	}
	return audio.EncodePCM16(resampled), nil
}

func (s *stream) Events() <-chan live.Event { return s.events }

func (s *stream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	err := s.conn.Close()
	s.cancel()
	return err
}

func (s *stream) readLoop() {
	defer close(s.events)

	for {
		event, err := s.conn.ReadMessage(s.ctx)
		if err != nil {
			s.finish(err)
			return
		}

		s.logger.Debug("Received server event",
			zap.String("event_type", string(event.ServerEventType())))

		for _, ev := range s.translate(event) {
			if !s.emit(ev) {
				return
			}
		}
	}
}

func (s *stream) finish(err error) {
	s.mu.Lock()
	writeErr, closed := s.writeErr, s.closed
	s.mu.Unlock()

	switch {
	case closed:
		s.tryEmit(live.Closed{Code: int(websocket.StatusNormalClosure), Reason: "closed locally"})
	case writeErr != nil:
		s.emit(live.Error{Err: fmt.Errorf("openai realtime write: %w", writeErr)})
	case websocket.CloseStatus(err) != -1:
		var ce websocket.CloseError
		reason := ""
		if errors.As(err, &ce) {
			reason = ce.Reason
		}
		s.emit(live.Closed{Code: int(websocket.CloseStatus(err)), Reason: reason})
	default:
		s.emit(live.Error{Err: fmt.Errorf("openai realtime read: %w", err)})
	}
}

func (s *stream) emit(ev live.Event) bool {
	select {
	case s.events <- ev:
		return true
	case <-s.ctx.Done():
		return false
	}
}

func (s *stream) tryEmit(ev live.Event) {
	select {
	case s.events <- ev:
	default:
	}
}

func (s *stream) writeLoop() {
	for {
		select {
		case <-s.ctx.Done():
			return
		case msg := <-s.outbound:
			if err := s.conn.SendMessage(s.ctx, msg); err != nil {
				if s.ctx.Err() != nil {
					return
				}
				s.mu.Lock()
				s.writeErr = err
				s.mu.Unlock()
				s.conn.Close()
				return
			}
		}
	}
}

// translate maps one Realtime server event onto the live event union. The
// end of user speech is reported as the final input transcription so the
// status reaches Thinking before the reply starts; the Whisper transcript
// itself usually arrives later and is only logged.
func (s *stream) translate(event openairt.ServerEvent) []live.Event {
	switch e := event.(type) {
	case openairt.InputAudioBufferSpeechStartedEvent:
		return []live.Event{live.InputTranscription{}}

	case openairt.InputAudioBufferSpeechStoppedEvent:
		return []live.Event{live.InputTranscription{Final: true}}

	case openairt.ConversationItemInputAudioTranscriptionCompletedEvent:
		s.logger.Debug("Received user transcript", zap.String("transcript", e.Transcript))

	case openairt.ConversationItemInputAudioTranscriptionFailedEvent:
		s.logger.Warn("User audio transcription failed", zap.String("error", e.Error.Message))

	case openairt.ResponseAudioDeltaEvent:
		if e.Delta == "" {
			return nil
		}
		return []live.Event{live.Audio{MIMEType: audio.MIMEType(InputSampleRate), Data: e.Delta}}

	case openairt.ResponseAudioTranscriptDeltaEvent:
		if e.Delta == "" {
			return nil
		}
		return []live.Event{live.OutputTranscription{Text: e.Delta}}

	case openairt.ResponseDoneEvent:
		if u := e.Response.Usage; u != nil && s.usage != nil {
			total, cost := s.usage.add(u.InputTokens, u.OutputTokens,
				u.InputTokenDetails.AudioTokens, u.OutputTokenDetails.AudioTokens)
			s.logger.Info("Response completed",
				zap.Int("input_tokens", u.InputTokens),
				zap.Int("output_tokens", u.OutputTokens),
				zap.Int("session_audio_input_tokens", total.AudioInputTokens),
				zap.Int("session_audio_output_tokens", total.AudioOutputTokens),
				zap.Float64("session_cost_usd", cost))
		}
		return []live.Event{live.TurnComplete{}}

	case openairt.ErrorEvent:
		return []live.Event{live.Error{Err: fmt.Errorf("OpenAI error: %s", e.Error.Message)}}
	}
	return nil
}

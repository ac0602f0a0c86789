// Package gemini implements live.Dialer for Google's Gemini Live API.
//
// It opens a WebSocket to the BidiGenerateContent endpoint, sends the setup
// message and waits for setupComplete before handing the stream out. Audio
// travels as base64 PCM in both directions and is passed through untouched.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/Raikerian/go-voicechat/internal/live"
	"github.com/Raikerian/go-voicechat/pkg/audio"
)

var (
	_ live.Dialer = (*Dialer)(nil)
	_ live.Stream = (*stream)(nil)
)

const (
	defaultBaseURL = "wss://generativelanguage.googleapis.com/ws"
	endpointPath   = "/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"

	keepaliveInterval = 20 * time.Second
	keepaliveTimeout  = 5 * time.Second

	readLimit     = 8 << 20 // model turns can carry several seconds of audio
	eventBuffer   = 64
	outboundQueue = 64
)

// Option configures a Dialer.
type Option func(*Dialer)

// WithBaseURL overrides the WebSocket base URL, e.g. for a local test server.
func WithBaseURL(u string) Option {
	return func(d *Dialer) { d.baseURL = u }
}

// WithLogger sets the logger used by streams.
func WithLogger(logger *zap.Logger) Option {
	return func(d *Dialer) { d.logger = logger }
}

// Dialer connects to Gemini Live with one API key.
type Dialer struct {
	apiKey  string
	baseURL string
	logger  *zap.Logger
}

// New creates a Dialer.
func New(apiKey string, opts ...Option) *Dialer {
	d := &Dialer{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		logger:  zap.NewNop(),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// ── Protocol message types (outgoing) ─────────────────────────────────────────

type setupMessage struct {
	Setup setupConfig `json:"setup"`
}

type setupConfig struct {
	Model                    string           `json:"model"`
	GenerationConfig         generationConfig `json:"generationConfig"`
	SystemInstruction        *content         `json:"systemInstruction,omitempty"`
	InputAudioTranscription  *struct{}        `json:"inputAudioTranscription,omitempty"`
	OutputAudioTranscription *struct{}        `json:"outputAudioTranscription,omitempty"`
}

type generationConfig struct {
	ResponseModalities []string      `json:"responseModalities"`
	SpeechConfig       *speechConfig `json:"speechConfig,omitempty"`
}

type speechConfig struct {
	VoiceConfig voiceConfig `json:"voiceConfig"`
}

type voiceConfig struct {
	PrebuiltVoiceConfig prebuiltVoiceConfig `json:"prebuiltVoiceConfig"`
}

type prebuiltVoiceConfig struct {
	VoiceName string `json:"voiceName"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string `json:"text,omitempty"`
	InlineData *blob  `json:"inlineData,omitempty"`
}

type blob struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"` // base64
}

type realtimeInputMessage struct {
	RealtimeInput realtimeInput `json:"realtimeInput"`
}

type realtimeInput struct {
	Audio blob `json:"audio"`
}

// ── Protocol message types (incoming) ─────────────────────────────────────────

type serverMessage struct {
	SetupComplete *json.RawMessage `json:"setupComplete,omitempty"`
	ServerContent *serverContent   `json:"serverContent,omitempty"`
	GoAway        *goAway          `json:"goAway,omitempty"`
	Error         *serverError     `json:"error,omitempty"`
}

type serverContent struct {
	ModelTurn           *content       `json:"modelTurn,omitempty"`
	TurnComplete        bool           `json:"turnComplete,omitempty"`
	Interrupted         bool           `json:"interrupted,omitempty"`
	InputTranscription  *transcription `json:"inputTranscription,omitempty"`
	OutputTranscription *transcription `json:"outputTranscription,omitempty"`
}

type transcription struct {
	Text     string `json:"text"`
	Finished bool   `json:"finished,omitempty"`
}

type goAway struct {
	TimeLeft string `json:"timeLeft"`
}

type serverError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status,omitempty"`
}

// Dial opens the socket, sends setup and blocks until the service
// acknowledges it or ctx ends.
func (d *Dialer) Dial(ctx context.Context, cfg live.SessionConfig) (live.Stream, error) {
	wsURL := fmt.Sprintf("%s%s?key=%s", d.baseURL, endpointPath, url.QueryEscape(d.apiKey))

	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("gemini: dial: %w", err)
	}
	conn.SetReadLimit(readLimit)

	sessCtx, cancel := context.WithCancel(context.Background())
	s := &stream{
		logger:   d.logger,
		conn:     conn,
		events:   make(chan live.Event, eventBuffer),
		outbound: make(chan []byte, outboundQueue),
		ctx:      sessCtx,
		cancel:   cancel,
	}

	if err := s.handshake(ctx, cfg); err != nil {
		cancel()
		conn.Close(websocket.StatusInternalError, "setup failed")
		return nil, fmt.Errorf("gemini: setup: %w", err)
	}

	go s.readLoop()
	go s.writeLoop()
	go s.keepaliveLoop()

	return s, nil
}

// ── stream ────────────────────────────────────────────────────────────────────

type stream struct {
	logger   *zap.Logger
	conn     *websocket.Conn
	events   chan live.Event
	outbound chan []byte

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	closed   bool
	writeErr error
}

func newSetup(cfg live.SessionConfig) setupMessage {
	msg := setupMessage{
		Setup: setupConfig{
			Model: "models/" + cfg.Model,
			GenerationConfig: generationConfig{
				ResponseModalities: cfg.ResponseModalities,
			},
		},
	}
	if cfg.SystemInstruction != "" {
		msg.Setup.SystemInstruction = &content{Parts: []part{{Text: cfg.SystemInstruction}}}
	}
	if cfg.Voice != "" {
		msg.Setup.GenerationConfig.SpeechConfig = &speechConfig{
			VoiceConfig: voiceConfig{PrebuiltVoiceConfig: prebuiltVoiceConfig{VoiceName: cfg.Voice}},
		}
	}
	if cfg.InputTranscription {
		msg.Setup.InputAudioTranscription = &struct{}{}
	}
	if cfg.OutputTranscription {
		msg.Setup.OutputAudioTranscription = &struct{}{}
	}
	return msg
}

// handshake sends setup and reads frames until setupComplete arrives.
func (s *stream) handshake(ctx context.Context, cfg live.SessionConfig) error {
	data, err := json.Marshal(newSetup(cfg))
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if err := s.conn.Write(ctx, websocket.MessageText, data); err != nil {
		return err
	}

	for {
		_, frame, err := s.conn.Read(ctx)
		if err != nil {
			return err
		}
		var msg serverMessage
		if err := json.Unmarshal(frame, &msg); err != nil {
			continue
		}
		if msg.Error != nil {
			return errors.New(msg.Error.describe())
		}
		if msg.SetupComplete != nil {
			return nil
		}
	}
}

// SendRealtimeInput enqueues one audio chunk for the writer goroutine.
func (s *stream) SendRealtimeInput(_ context.Context, b audio.Blob) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return live.ErrStreamClosed
	}

	data, err := json.Marshal(realtimeInputMessage{
		RealtimeInput: realtimeInput{Audio: blob{MIMEType: b.MIMEType, Data: b.Data}},
	})
	if err != nil {
		return fmt.Errorf("gemini: marshal: %w", err)
	}

	select {
	case s.outbound <- data:
		return nil
	case <-s.ctx.Done():
		return live.ErrStreamClosed
	default:
		return live.ErrSendQueueFull
	}
}

// Events returns the ordered inbound event channel.
func (s *stream) Events() <-chan live.Event { return s.events }

// Close terminates the session. Idempotent.
func (s *stream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	err := s.conn.Close(websocket.StatusNormalClosure, "session closed")
	s.cancel()
	return err
}

// readLoop owns the events channel and closes it on exit.
func (s *stream) readLoop() {
	defer close(s.events)

	for {
		_, data, err := s.conn.Read(s.ctx)
		if err != nil {
			s.finish(err)
			return
		}

		var msg serverMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.logger.Debug("Skipping malformed frame", zap.Error(err))
			continue
		}
		for _, ev := range translate(&msg) {
			if !s.emit(ev) {
				return
			}
		}
		if msg.GoAway != nil {
			s.logger.Warn("Service will close the session soon",
				zap.String("time_left", msg.GoAway.TimeLeft))
		}
	}
}

// finish emits the terminal events for a read failure.
func (s *stream) finish(err error) {
	s.mu.Lock()
	writeErr, closed := s.writeErr, s.closed
	s.mu.Unlock()

	if closed {
		s.tryEmit(live.Closed{Code: int(websocket.StatusNormalClosure), Reason: "closed locally"})
		return
	}
	if writeErr != nil {
		s.emit(live.Error{Err: fmt.Errorf("gemini: write: %w", writeErr)})
		return
	}
	if status := websocket.CloseStatus(err); status != -1 {
		var ce websocket.CloseError
		reason := ""
		if errors.As(err, &ce) {
			reason = ce.Reason
		}
		s.emit(live.Closed{Code: int(status), Reason: reason})
		return
	}
	s.emit(live.Error{Err: fmt.Errorf("gemini: read: %w", err)})
}

// emit blocks until the consumer takes ev or the stream is closed locally.
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

// writeLoop drains the outbound queue in order.
func (s *stream) writeLoop() {
	for {
		select {
		case <-s.ctx.Done():
			return
		case data := <-s.outbound:
			if err := s.conn.Write(s.ctx, websocket.MessageText, data); err != nil {
				if s.ctx.Err() != nil {
					return
				}
				s.mu.Lock()
				s.writeErr = err
				s.mu.Unlock()
				s.conn.Close(websocket.StatusInternalError, "write failed")
				return
			}
		}
	}
}

// keepaliveLoop pings the service so idle sessions are not dropped.
func (s *stream) keepaliveLoop() {
	ticker := time.NewTicker(keepaliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(s.ctx, keepaliveTimeout)
			if err := s.conn.Ping(pingCtx); err != nil {
				s.logger.Debug("Keepalive ping failed", zap.Error(err))
			}
			cancel()
		}
	}
}

// translate maps one server frame onto zero or more events, preserving the
// order in which the frame carries them.
func translate(msg *serverMessage) []live.Event {
	var events []live.Event

	if msg.Error != nil {
		events = append(events, live.Error{Err: errors.New(msg.Error.describe())})
	}

	sc := msg.ServerContent
	if sc == nil {
		return events
	}

	if sc.InputTranscription != nil && (sc.InputTranscription.Text != "" || sc.InputTranscription.Finished) {
		events = append(events, live.InputTranscription{
			Text:  sc.InputTranscription.Text,
			Final: sc.InputTranscription.Finished,
		})
	}
	if sc.ModelTurn != nil {
		for _, p := range sc.ModelTurn.Parts {
			if p.InlineData != nil && p.InlineData.Data != "" {
				events = append(events, live.Audio{MIMEType: p.InlineData.MIMEType, Data: p.InlineData.Data})
			}
		}
	}
	if sc.OutputTranscription != nil && sc.OutputTranscription.Text != "" {
		events = append(events, live.OutputTranscription{Text: sc.OutputTranscription.Text})
	}
	if sc.TurnComplete {
		events = append(events, live.TurnComplete{})
	}
	return events
}

func (e *serverError) describe() string {
	if e.Message == "" {
		return fmt.Sprintf("gemini: error %d", e.Code)
	}
	return "gemini: " + e.Message
}

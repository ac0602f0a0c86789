package live

import (
	"context"
	"errors"

	"github.com/Raikerian/go-voicechat/pkg/audio"
)

// ErrStreamClosed is returned when sending on a stream that has been closed.
var ErrStreamClosed = errors.New("live: stream closed")

// ErrSendQueueFull is returned when the outbound queue cannot take another
// frame without blocking the capture callback.
var ErrSendQueueFull = errors.New("live: send queue full")

// Dialer opens streaming sessions against one service.
type Dialer interface {
	// Dial performs the open handshake. The returned Stream is ready to
	// accept realtime input.
	Dial(ctx context.Context, cfg SessionConfig) (Stream, error)
}

// Stream is one open bidirectional session.
type Stream interface {
	// SendRealtimeInput enqueues one captured chunk. It does not wait for the
	// service; chunks are delivered in call order.
	SendRealtimeInput(ctx context.Context, blob audio.Blob) error

	// Events delivers inbound events in arrival order. The channel is closed
	// after a Closed event.
	Events() <-chan Event

	// Close ends the session. Idempotent.
	Close() error
}

// SessionConfig is the open configuration sent with the handshake.
type SessionConfig struct {
	Model               string
	ResponseModalities  []string
	InputTranscription  bool
	OutputTranscription bool
	Voice               string
	SystemInstruction   string
}

// SystemInstruction is the fixed persona sent with every session.
const SystemInstruction = `You are a warm, upbeat voice companion for a bilingual household.
Detect whether the caller is speaking English or Spanish and always answer in the same language;
if they mix both, mirror their mix naturally. Keep replies short and conversational, one to three
sentences, because everything you say is spoken aloud. Use a friendly, relaxed tone, avoid lists
and markdown, and ask a brief follow-up question when it helps the conversation keep going.`

// GeminiSession is the build-time configuration for the Gemini Live binding.
var GeminiSession = SessionConfig{
	Model:               "gemini-2.5-flash-native-audio-preview-09-2025",
	ResponseModalities:  []string{"AUDIO"},
	InputTranscription:  true,
	OutputTranscription: true,
	Voice:               "Puck",
	SystemInstruction:   SystemInstruction,
}

// OpenAISession is the build-time configuration for the OpenAI Realtime
// binding.
var OpenAISession = SessionConfig{
	Model:               "gpt-4o-realtime-preview",
	ResponseModalities:  []string{"audio", "text"},
	InputTranscription:  true,
	OutputTranscription: true,
	Voice:               "shimmer",
	SystemInstruction:   SystemInstruction,
}

package openai

import (
	"testing"

	openairt "github.com/WqyJh/go-openai-realtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Raikerian/go-voicechat/internal/live"
	"github.com/Raikerian/go-voicechat/pkg/audio"
)

func TestTranslate(t *testing.T) {
	tests := map[string]struct {
		event openairt.ServerEvent
		want  []live.Event
	}{
		"speech started is a partial transcription": {
			event: openairt.InputAudioBufferSpeechStartedEvent{},
			want:  []live.Event{live.InputTranscription{}},
		},
		"speech stopped is the final transcription": {
			event: openairt.InputAudioBufferSpeechStoppedEvent{},
			want:  []live.Event{live.InputTranscription{Final: true}},
		},
		"audio delta keeps the payload": {
			event: openairt.ResponseAudioDeltaEvent{Delta: "AAD/fw=="},
			want:  []live.Event{live.Audio{MIMEType: "audio/pcm;rate=24000", Data: "AAD/fw=="}},
		},
		"empty audio delta is dropped": {
			event: openairt.ResponseAudioDeltaEvent{},
			want:  nil,
		},
		"transcript delta": {
			event: openairt.ResponseAudioTranscriptDeltaEvent{Delta: "hola"},
			want:  []live.Event{live.OutputTranscription{Text: "hola"}},
		},
		"response done completes the turn": {
			event: openairt.ResponseDoneEvent{},
			want:  []live.Event{live.TurnComplete{}},
		},
		"user transcript is only logged": {
			event: openairt.ConversationItemInputAudioTranscriptionCompletedEvent{Transcript: "hi"},
			want:  nil,
		},
	}

	s := &stream{logger: zaptest.NewLogger(t)}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.translate(tt.event))
		})
	}
}

func TestTranslate_Error(t *testing.T) {
	s := &stream{logger: zaptest.NewLogger(t)}
	ev := openairt.ErrorEvent{}
	ev.Error.Message = "rate limited"

	got := s.translate(ev)

	require.Len(t, got, 1)
	require.IsType(t, live.Error{}, got[0])
	assert.Contains(t, got[0].(live.Error).Err.Error(), "rate limited")
}

func TestToRealtimeInput(t *testing.T) {
	t.Run("capture rate is upsampled", func(t *testing.T) {
		blob := audio.EncodeFrame(make([]float32, 160), audio.InputSampleRate)

		payload, err := toRealtimeInput(blob)
		require.NoError(t, err)

		samples, err := audio.DecodePCM16(payload)
		require.NoError(t, err)
		assert.Len(t, samples, 240)
	})

	t.Run("native rate passes through", func(t *testing.T) {
		blob := audio.EncodeFrame([]float32{0.5, -0.5}, InputSampleRate)

		payload, err := toRealtimeInput(blob)
		require.NoError(t, err)
		assert.Equal(t, blob.Data, payload)
	})

	t.Run("bad payload", func(t *testing.T) {
		_, err := toRealtimeInput(audio.Blob{MIMEType: audio.MIMEType(audio.InputSampleRate), Data: "!!"})
		assert.ErrorIs(t, err, audio.ErrDecodeFailure)
	})
}

func TestSessionUpdate(t *testing.T) {
	ev := sessionUpdate(live.OpenAISession)

	assert.Equal(t, []openairt.Modality{openairt.ModalityAudio, openairt.ModalityText}, ev.Session.Modalities)
	assert.Equal(t, openairt.Voice("shimmer"), ev.Session.Voice)
	assert.Equal(t, live.SystemInstruction, ev.Session.Instructions)
	assert.Equal(t, openairt.AudioFormatPcm16, ev.Session.OutputAudioFormat)
	require.NotNil(t, ev.Session.InputAudioTranscription)
}

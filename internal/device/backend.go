// Package device provides the native microphone and speaker behind
// voice.AudioBackend: malgo for capture and oto for playback.
package device

import (
	"io"

	"go.uber.org/zap"

	"github.com/Raikerian/go-voicechat/internal/voice"
	"github.com/Raikerian/go-voicechat/pkg/audio"
)

var _ voice.AudioBackend = (*Backend)(nil)

// Backend opens the default system devices.
type Backend struct {
	logger *zap.Logger
}

// NewBackend creates a Backend.
func NewBackend(logger *zap.Logger) *Backend {
	return &Backend{logger: logger.Named("device")}
}

// OpenInput opens a capture context at sampleRate.
func (b *Backend) OpenInput(sampleRate int) (voice.InputClock, error) {
	clock, err := openInputClock(b.logger, sampleRate)
	if err != nil {
		return nil, err
	}
	b.logger.Debug("Opened input clock", zap.Int("sample_rate", sampleRate))
	return clock, nil
}

// OpenOutput starts a player pulling out.
func (b *Backend) OpenOutput(out *audio.OutputContext) (io.Closer, error) {
	s, err := openSpeaker(out)
	if err != nil {
		return nil, err
	}
	b.logger.Debug("Opened speaker", zap.Int("sample_rate", out.SampleRate()))
	return s, nil
}

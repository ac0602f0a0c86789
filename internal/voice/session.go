package voice

import (
	"fmt"
	"io"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Raikerian/go-voicechat/internal/live"
	"github.com/Raikerian/go-voicechat/pkg/audio"
)

// Session owns every resource of one conversation. All of them are released
// together by teardown.
type Session struct {
	ID        string
	StartTime time.Time

	logger *zap.Logger

	input     InputClock
	mic       Microphone
	output    *audio.OutputContext
	speaker   io.Closer
	analyser  *audio.Analyser
	scheduler *audio.Scheduler
	stream    live.Stream
}

// teardown releases whatever the session managed to open. Every step runs
// even when an earlier one fails.
func (s *Session) teardown() error {
	var err error

	if s.stream != nil {
		err = multierr.Append(err, wrapStep("close stream", s.stream.Close()))
	}
	if s.mic != nil {
		err = multierr.Append(err, wrapStep("stop microphone", s.mic.Stop()))
	}
	if s.analyser != nil {
		s.analyser.Reset()
	}
	if s.output != nil {
		err = multierr.Append(err, wrapStep("close output", s.output.Close()))
	}
	if s.speaker != nil {
		err = multierr.Append(err, wrapStep("close speaker", s.speaker.Close()))
	}
	if s.input != nil {
		err = multierr.Append(err, wrapStep("close input clock", s.input.Close()))
	}
	if s.scheduler != nil {
		s.scheduler.Reset()
	}

	s.logger.Info("Session torn down",
		zap.Duration("duration", time.Since(s.StartTime)),
		zap.Error(err))

	return err
}

func wrapStep(step string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", step, err)
}

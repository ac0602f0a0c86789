package device

import (
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/Raikerian/go-voicechat/pkg/audio"
)

// oto allows a single context per process, so the speaker context is shared
// by every session while each session gets its own player.
var (
	otoOnce sync.Once
	otoCtx  *oto.Context
	otoErr  error
)

const playbackBuffer = 100 * time.Millisecond

func speakerContext() (*oto.Context, error) {
	otoOnce.Do(func() {
		ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   audio.OutputSampleRate,
			ChannelCount: audio.OutputChannels,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   playbackBuffer,
		})
		if err != nil {
			otoErr = fmt.Errorf("failed to init speaker: %w", err)
			return
		}
		<-ready
		otoCtx = ctx
	})
	return otoCtx, otoErr
}

// speaker pulls one OutputContext until closed.
type speaker struct {
	player *oto.Player
	once   sync.Once
}

func openSpeaker(out *audio.OutputContext) (*speaker, error) {
	if out.SampleRate() != audio.OutputSampleRate || out.Channels() != audio.OutputChannels {
		return nil, fmt.Errorf("speaker runs at %d Hz x%d, got %d Hz x%d",
			audio.OutputSampleRate, audio.OutputChannels, out.SampleRate(), out.Channels())
	}

	ctx, err := speakerContext()
	if err != nil {
		return nil, err
	}

	player := ctx.NewPlayer(out)
	player.Play()
	return &speaker{player: player}, nil
}

func (s *speaker) Close() error {
	var err error
	s.once.Do(func() {
		s.player.Pause()
		err = s.player.Close()
	})
	return err
}

package voice

import (
	"io"

	"github.com/Raikerian/go-voicechat/pkg/audio"
)

// AudioBackend opens the native audio devices for one session.
type AudioBackend interface {
	// OpenInput opens the capture clock at sampleRate.
	OpenInput(sampleRate int) (InputClock, error)

	// OpenOutput attaches a speaker that pulls out until it is closed.
	OpenOutput(out *audio.OutputContext) (io.Closer, error)
}

// InputClock is an open capture context.
type InputClock interface {
	// OpenMicrophone prepares capture. onFrame receives fixed-size mono
	// frames once the microphone is started.
	OpenMicrophone(frameSize int, onFrame func(frame []float32)) (Microphone, error)
	Close() error
}

// Microphone is an opened capture device.
type Microphone interface {
	Start() error
	Stop() error
}

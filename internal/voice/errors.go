package voice

import (
	"errors"

	"github.com/Raikerian/go-voicechat/pkg/audio"
)

var (
	// ErrPermissionDenied means the microphone could not be opened or started.
	ErrPermissionDenied = errors.New("microphone unavailable")

	// ErrConnectionFailure means the stream open handshake did not complete.
	ErrConnectionFailure = errors.New("failed to connect to service")

	// ErrStreamFault is a mid-session error reported by the stream.
	ErrStreamFault = errors.New("stream fault")

	// ErrDecodeFailure marks an inbound payload that could not be decoded.
	ErrDecodeFailure = audio.ErrDecodeFailure

	// ErrSessionActive is returned by Start while a session is open or
	// another Start or Stop is still in progress.
	ErrSessionActive = errors.New("session already active")
)

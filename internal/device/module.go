package device

import (
	"go.uber.org/fx"

	"github.com/Raikerian/go-voicechat/internal/voice"
)

// Module provides the native audio backend.
var Module = fx.Module("device",
	fx.Provide(
		fx.Annotate(NewBackend, fx.As(new(voice.AudioBackend))),
	),
)

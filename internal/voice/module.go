package voice

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Raikerian/go-voicechat/internal/config"
	"github.com/Raikerian/go-voicechat/internal/live"
)

// Module provides the session controller.
var Module = fx.Module("voice",
	fx.Provide(NewControllerFromParams),
)

// ControllerParams holds dependencies for NewControllerFromParams.
type ControllerParams struct {
	fx.In
	Logger        *zap.Logger
	Cfg           *config.Config
	Dialer        live.Dialer
	Backend       AudioBackend
	SessionConfig live.SessionConfig
}

// NewControllerFromParams builds the Controller from injected dependencies.
func NewControllerFromParams(p ControllerParams) *Controller {
	return NewController(
		p.Logger.Named("voice"),
		p.Dialer,
		p.Backend,
		p.SessionConfig,
		p.Cfg.Audio.CaptureFrameSize,
	)
}

// Package provider selects the live binding named in the configuration.
package provider

import (
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Raikerian/go-voicechat/internal/config"
	"github.com/Raikerian/go-voicechat/internal/live"
	"github.com/Raikerian/go-voicechat/internal/live/gemini"
	"github.com/Raikerian/go-voicechat/internal/live/openai"
)

// Module provides the live.Dialer and live.SessionConfig of the configured
// provider.
var Module = fx.Module("live",
	fx.Provide(New),
)

// Params holds dependencies for New.
type Params struct {
	fx.In
	Logger *zap.Logger
	Cfg    *config.Config
}

// Result carries the selected binding.
type Result struct {
	fx.Out
	Dialer  live.Dialer
	Session live.SessionConfig
}

// New builds the binding for cfg.Provider.
func New(p Params) (Result, error) {
	logger := p.Logger.Named("live").With(zap.String("provider", p.Cfg.Provider))

	switch p.Cfg.Provider {
	case config.ProviderGemini:
		return Result{
			Dialer:  gemini.New(p.Cfg.APIKey, gemini.WithLogger(logger)),
			Session: live.GeminiSession,
		}, nil
	case config.ProviderOpenAI:
		return Result{
			Dialer:  openai.New(logger, p.Cfg.APIKey),
			Session: live.OpenAISession,
		}, nil
	default:
		return Result{}, fmt.Errorf("unknown provider %q", p.Cfg.Provider)
	}
}

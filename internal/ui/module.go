package ui

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Raikerian/go-voicechat/internal/config"
	"github.com/Raikerian/go-voicechat/internal/visualizer"
	"github.com/Raikerian/go-voicechat/internal/voice"
)

// Module provides the terminal console.
var Module = fx.Module("ui",
	fx.Provide(NewConsoleFromParams),
)

// ConsoleParams holds dependencies for NewConsoleFromParams.
type ConsoleParams struct {
	fx.In
	Logger     *zap.Logger
	Cfg        *config.Config
	Controller *voice.Controller
	Shutdowner fx.Shutdowner
}

// NewConsoleFromParams builds the Console with the configured visualizer.
func NewConsoleFromParams(p ConsoleParams) (*Console, error) {
	renderer, err := visualizer.New(p.Cfg.Visualizer.Style)
	if err != nil {
		return nil, err
	}
	return NewConsole(p.Logger.Named("ui"), p.Controller, renderer, p.Shutdowner, p.Cfg.Visualizer.FPS), nil
}

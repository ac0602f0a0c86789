// Package main provides the entry point for the voice chat client.
package main

import (
	"fmt"
	"os"

	"github.com/Raikerian/go-voicechat/internal/app"
	"github.com/Raikerian/go-voicechat/internal/config"
	"github.com/Raikerian/go-voicechat/internal/device"
	"github.com/Raikerian/go-voicechat/internal/infrastructure"
	"github.com/Raikerian/go-voicechat/internal/live/provider"
	"github.com/Raikerian/go-voicechat/internal/ui"
	"github.com/Raikerian/go-voicechat/internal/voice"

	"go.uber.org/fx"
)

func main() {
	// Set a default config path. A missing file falls back to defaults.
	configPath := "config.yaml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	// Create the application with all modules
	application := app.New(
		// Core modules
		config.Module,
		infrastructure.LoggerModule,

		// External service and device modules
		provider.Module,
		device.Module,

		// Application modules
		voice.Module,
		ui.Module,

		// Supply the config path
		fx.Supply(configPath),

		// Configure Fx to use our Zap logger for its own internal logging
		fx.WithLogger(infrastructure.NewFxLoggerAdapter),
	)

	if err := application.Err(); err != nil {
		// The logger may not exist yet, and a missing API key lands here.
		fmt.Fprintf(os.Stderr, "voicechat: %v\n", err)
		os.Exit(1)
	}

	// Run blocks until the console quits or a signal arrives, then stops
	// every module.
	application.Run()
}

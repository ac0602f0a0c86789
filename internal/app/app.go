// Package app provides the main application structure and lifecycle management.
package app

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Raikerian/go-voicechat/internal/ui"
	"github.com/Raikerian/go-voicechat/internal/voice"
)

// Application represents the main application with its lifecycle.
type Application struct {
	app *fx.App
}

// New creates a new Application with the provided modules and options.
func New(modules ...fx.Option) *Application {
	// Combine all provided modules with lifecycle management
	options := append(modules, fx.Invoke(registerLifecycleHooks))

	app := fx.New(options...)

	return &Application{
		app: app,
	}
}

// Run starts the application and blocks until it's stopped.
func (a *Application) Run() {
	a.app.Run()
}

// Err reports an error from building the dependency graph.
func (a *Application) Err() error {
	return a.app.Err()
}

// Stop gracefully stops the application.
func (a *Application) Stop(ctx context.Context) error {
	return a.app.Stop(ctx)
}

// LifecycleParams holds dependencies for registerLifecycleHooks.
type LifecycleParams struct {
	fx.In
	LC         fx.Lifecycle
	Logger     *zap.Logger
	Console    *ui.Console
	Controller *voice.Controller
}

// registerLifecycleHooks sets up the application lifecycle hooks.
func registerLifecycleHooks(p LifecycleParams) {
	p.LC.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			p.Logger.Info("Starting application")

			if err := p.Console.Start(ctx); err != nil {
				p.Logger.Error("Failed to start console", zap.Error(err))

				return err
			}

			p.Logger.Info("Application started successfully")

			return nil
		},
		OnStop: func(ctx context.Context) error {
			p.Logger.Info("Stopping application: closing session and releasing terminal")

			// Release devices and the stream before handing the terminal back.
			if err := p.Controller.Stop(); err != nil {
				p.Logger.Warn("Errors while closing session", zap.Error(err))
			}

			if err := p.Console.Stop(ctx); err != nil {
				p.Logger.Error("Failed to stop console", zap.Error(err))

				return err
			}

			p.Logger.Info("Application stopped successfully")

			return nil
		},
	})
}

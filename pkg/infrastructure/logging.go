// Package infrastructure provides reusable infrastructure components for Go applications.
package infrastructure

import (
	"fmt"

	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// FxLoggerAdapter routes Fx's lifecycle events into a zap.Logger with
// structured fields, so they end up in the same log file as everything else.
type FxLoggerAdapter struct {
	logger *zap.Logger
}

// NewFxLoggerAdapter creates a new Fx logger adapter that implements fxevent.Logger.
func NewFxLoggerAdapter(logger *zap.Logger) fxevent.Logger {
	return &FxLoggerAdapter{logger: logger}
}

// LogEvent implements fxevent.Logger.
func (p *FxLoggerAdapter) LogEvent(event fxevent.Event) {
	switch e := event.(type) {
	case *fxevent.OnStartExecuting:
		p.logger.Debug("OnStart hook executing",
			zap.String("caller", e.CallerName), zap.String("callee", e.FunctionName))
	case *fxevent.OnStartExecuted:
		p.logHook("OnStart", e.CallerName, e.FunctionName, e.Runtime.String(), e.Err)
	case *fxevent.OnStopExecuting:
		p.logger.Debug("OnStop hook executing",
			zap.String("caller", e.CallerName), zap.String("callee", e.FunctionName))
	case *fxevent.OnStopExecuted:
		p.logHook("OnStop", e.CallerName, e.FunctionName, e.Runtime.String(), e.Err)
	case *fxevent.Supplied:
		p.logWithError("Supplied", e.Err, zap.String("type", e.TypeName), zap.String("module", e.ModuleName))
	case *fxevent.Provided:
		p.logWithError("Provided", e.Err,
			zap.Strings("types", e.OutputTypeNames), zap.String("module", e.ModuleName))
	case *fxevent.Invoking:
		p.logger.Debug("Invoking", zap.String("function", e.FunctionName))
	case *fxevent.Invoked:
		p.logWithError("Invoked", e.Err, zap.String("function", e.FunctionName))
	case *fxevent.Stopping:
		p.logger.Info("Received signal", zap.String("signal", e.Signal.String()))
	case *fxevent.Stopped:
		p.logWithError("Stopped", e.Err)
	case *fxevent.RollingBack:
		p.logger.Error("Start failed, rolling back", zap.Error(e.StartErr))
	case *fxevent.RolledBack:
		p.logWithError("Rolled back", e.Err)
	case *fxevent.Started:
		p.logWithError("Started", e.Err)
	case *fxevent.LoggerInitialized:
		p.logWithError("Logger initialized", e.Err, zap.String("constructor", e.ConstructorName))
	default:
		p.logger.Debug("Unhandled Fx event", zap.String("event", fmt.Sprintf("%T", event)))
	}
}

func (p *FxLoggerAdapter) logHook(hook, caller, callee, runtime string, err error) {
	fields := []zap.Field{zap.String("caller", caller), zap.String("callee", callee)}
	if err != nil {
		p.logger.Error(hook+" hook failed", append(fields, zap.Error(err))...)
		return
	}
	p.logger.Debug(hook+" hook executed", append(fields, zap.String("runtime", runtime))...)
}

// logWithError logs at Error when err is set and at Debug otherwise.
func (p *FxLoggerAdapter) logWithError(msg string, err error, fields ...zap.Field) {
	if err != nil {
		p.logger.Error(msg+" failed", append(fields, zap.Error(err))...)
		return
	}
	p.logger.Debug(msg, fields...)
}

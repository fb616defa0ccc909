package broker

import "github.com/deviceflow/resbroker/internal/logger"

// Logger is the narrow logging surface the core calls into. The sink must
// be safe to call from arbitrary workers. The library emits Info on
// request acceptance, Warning on cancellation, and Error on immediate
// failures in the worker, timeouts, handler exceptions, and hardware
// faults.
type Logger interface {
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Error(msg string, kv ...any)
}

// NoopLogger discards everything. It is the default when no logger is
// supplied.
type NoopLogger struct{}

// Info implements Logger.
func (NoopLogger) Info(string, ...any) {}

// Warn implements Logger.
func (NoopLogger) Warn(string, ...any) {}

// Error implements Logger.
func (NoopLogger) Error(string, ...any) {}

// slogLogger adapts the module's internal/logger package to the Logger
// interface, so a Host constructed without an explicit Logger still emits
// through the ambient structured logger.
type slogLogger struct {
	infoFn  func(msg string, args ...any)
	warnFn  func(msg string, args ...any)
	errorFn func(msg string, args ...any)
}

// Info implements Logger.
func (l slogLogger) Info(msg string, kv ...any) { l.infoFn(msg, kv...) }

// Warn implements Logger.
func (l slogLogger) Warn(msg string, kv ...any) { l.warnFn(msg, kv...) }

// Error implements Logger.
func (l slogLogger) Error(msg string, kv ...any) { l.errorFn(msg, kv...) }

// NewSlogLogger builds a Logger backed by the module's ambient structured
// logger.
func NewSlogLogger() Logger {
	return slogLogger{
		infoFn:  logger.Info,
		warnFn:  logger.Warn,
		errorFn: logger.Error,
	}
}

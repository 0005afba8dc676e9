// Package logger constructs the structured, sugared zap logger shared by
// every component of the store. Every package that logs takes a
// *zap.SugaredLogger rather than constructing its own, so a single call to
// New here controls the whole process's log output.
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a production-configured, JSON-encoded logger tagged with
// service. Falls back to a minimal stderr logger if the production config
// can't be built (it practically never fails, but callers get a usable
// logger either way rather than a panic).
func New(service string) *zap.SugaredLogger {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	base, err := cfg.Build()
	if err != nil {
		base = zap.New(zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(os.Stderr),
			zapcore.InfoLevel,
		))
	}

	return base.With(zap.String("service", service)).Sugar()
}

// Noop returns a logger that discards everything, for use in tests that
// don't want log output cluttering `go test -v`.
func Noop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

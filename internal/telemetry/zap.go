package telemetry

import (
	"context"

	"go.uber.org/zap"
)

// ZapLogger adapts a *zap.Logger (the teacher's indirect dependency,
// promoted here to direct since this module does its own logging) to
// the Logger interface.
type ZapLogger struct {
	base *zap.Logger
}

// NewZapLogger wraps an existing *zap.Logger, or a production default if nil.
func NewZapLogger(base *zap.Logger) *ZapLogger {
	if base == nil {
		base, _ = zap.NewProduction()
	}
	return &ZapLogger{base: base}
}

func (l *ZapLogger) Debug(_ context.Context, msg string, keyvals ...any) {
	l.base.Sugar().Debugw(msg, keyvals...)
}

func (l *ZapLogger) Info(_ context.Context, msg string, keyvals ...any) {
	l.base.Sugar().Infow(msg, keyvals...)
}

func (l *ZapLogger) Warn(_ context.Context, msg string, keyvals ...any) {
	l.base.Sugar().Warnw(msg, keyvals...)
}

func (l *ZapLogger) Error(_ context.Context, msg string, keyvals ...any) {
	l.base.Sugar().Errorw(msg, keyvals...)
}

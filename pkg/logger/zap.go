package logger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// zapLevel mirrors levelVar for the zap backend so SetLevel drives both.
var zapLevel = zap.NewAtomicLevelAt(zapcore.InfoLevel)

// zapLogger implements Logger on top of a zap core.
type zapLogger struct {
	z *zap.Logger
}

func newZapLogger(out io.Writer) *zapLogger {
	encCfg := zapcore.EncoderConfig{
		MessageKey:     "msg",
		LevelKey:       "level",
		TimeKey:        "time",
		NameKey:        "logger",
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.RFC3339TimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeName:     zapcore.FullNameEncoder,
	}
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(out), zapLevel)
	return &zapLogger{z: zap.New(core)}
}

func (l *zapLogger) Named(name string) Logger {
	return &zapLogger{z: l.z.Named(name)}
}

func (l *zapLogger) Info(_ context.Context, msg string, fields ...Field) {
	l.log(zapcore.InfoLevel, msg, fields)
}

func (l *zapLogger) Error(_ context.Context, msg string, fields ...Field) {
	l.log(zapcore.ErrorLevel, msg, fields)
}

func (l *zapLogger) Debug(_ context.Context, msg string, fields ...Field) {
	l.log(zapcore.DebugLevel, msg, fields)
}

func (l *zapLogger) Warn(_ context.Context, msg string, fields ...Field) {
	l.log(zapcore.WarnLevel, msg, fields)
}

func (l *zapLogger) Fatal(_ context.Context, msg string, fields ...Field) {
	l.log(zapcore.FatalLevel, msg, fields)
}

func (l *zapLogger) log(level zapcore.Level, msg string, fields []Field) {
	ce := l.z.Check(level, msg)
	if ce == nil {
		return
	}
	zf := make([]zap.Field, 0, len(fields)+1)
	for _, f := range fields {
		if err, ok := f.Value.(error); ok {
			zf = append(zf, zap.NamedError(f.Key, err))
			continue
		}
		zf = append(zf, zap.Any(f.Key, f.Value))
	}
	zf = append(zf, zap.String("source", getCaller()))
	ce.Write(zf...)
}

func toZapLevel(level slog.Level) zapcore.Level {
	switch {
	case level <= slog.LevelDebug:
		return zapcore.DebugLevel
	case level <= slog.LevelInfo:
		return zapcore.InfoLevel
	case level <= slog.LevelWarn:
		return zapcore.WarnLevel
	default:
		return zapcore.ErrorLevel
	}
}

// isIgnorableSyncError reports errors zap returns when syncing a terminal.
func isIgnorableSyncError(err error) bool {
	return errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTTY) || errors.Is(err, syscall.EBADF)
}

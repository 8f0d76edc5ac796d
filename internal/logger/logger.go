package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger carries the pipeline's own diagnostics (enqueue failures, dropped
// deliveries, serialization problems). It must never be backed by a logger
// that routes through the Slack core itself, or a delivery failure would
// re-enter the pipeline.
type Logger interface {
	Debugw(msg string, keysAndValues ...interface{})
	Infow(msg string, keysAndValues ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Errorw(msg string, keysAndValues ...interface{})
	Errorf(template string, args ...interface{})
	Sync() error
}

type SugaredLogger struct {
	*zap.SugaredLogger
}

func New(level string) (Logger, error) {
	cfg := zap.NewProductionConfig()

	cfg.Encoding = "json"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
	cfg.EncoderConfig.MessageKey = "message"
	cfg.EncoderConfig.LevelKey = "level"
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.CallerKey = "caller"

	switch level {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zapcore.ErrorLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	zapLogger, err := cfg.Build()
	if err != nil {
		return nil, err
	}

	return &SugaredLogger{SugaredLogger: zapLogger.Sugar()}, nil
}

// NewNop returns a logger that discards everything. It is the library
// default so embedding applications opt in to pipeline diagnostics.
func NewNop() Logger {
	return &SugaredLogger{SugaredLogger: zap.NewNop().Sugar()}
}

// FromZap adapts an existing zap logger, skipping one caller frame so log
// lines point at the pipeline call site. A nil logger degrades to NewNop.
func FromZap(l *zap.Logger) Logger {
	if l == nil {
		return NewNop()
	}
	return &SugaredLogger{SugaredLogger: l.WithOptions(zap.AddCallerSkip(1)).Sugar()}
}

package crossbase

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger is the Logger used in production. Fields are alternating
// key/value pairs, as with zap's sugared "w" methods.
type ZapLogger struct {
	sugar *zap.SugaredLogger
}

func NewZapLogger(logger *zap.Logger) *ZapLogger {
	return NewZapLoggerFromSugar(logger.Sugar())
}

func NewZapLoggerFromSugar(sugar *zap.SugaredLogger) *ZapLogger {
	return &ZapLogger{sugar: sugar}
}

// NewProductionZapLogger logs JSON at info level with ISO 8601 timestamps.
func NewProductionZapLogger() (*ZapLogger, error) {
	return newZapLoggerWithLevel(zap.NewAtomicLevelAt(zapcore.InfoLevel))
}

// NewDevelopmentZapLogger logs human-readable console lines at debug level.
// The CLI installs it for --dev.
func NewDevelopmentZapLogger() (*ZapLogger, error) {
	logger, err := zap.NewDevelopment()
	if err != nil {
		return nil, err
	}
	return NewZapLogger(logger), nil
}

// newZapLoggerWithLevel builds the production logger behind Configure. level
// stays live, so SetLevel on it takes effect without rebuilding.
func newZapLoggerWithLevel(level zap.AtomicLevel) (*ZapLogger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = level
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return NewZapLogger(logger), nil
}

// Named returns a child logger whose entries carry name in the logger field.
func (l *ZapLogger) Named(name string) *ZapLogger {
	return &ZapLogger{sugar: l.sugar.Named(name)}
}

func (l *ZapLogger) Debug(msg string, fields ...interface{}) { l.sugar.Debugw(msg, fields...) }
func (l *ZapLogger) Info(msg string, fields ...interface{})  { l.sugar.Infow(msg, fields...) }
func (l *ZapLogger) Warn(msg string, fields ...interface{})  { l.sugar.Warnw(msg, fields...) }
func (l *ZapLogger) Error(msg string, fields ...interface{}) { l.sugar.Errorw(msg, fields...) }

// Sync flushes buffered entries. The CLI calls it before exiting.
func (l *ZapLogger) Sync() error { return l.sugar.Sync() }

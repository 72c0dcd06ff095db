package crossbase

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger provides structured logging for crossbase components
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
}

// NoOpLogger is a logger that does nothing
type NoOpLogger struct{}

func (l *NoOpLogger) Debug(msg string, fields ...interface{}) {}
func (l *NoOpLogger) Info(msg string, fields ...interface{})  {}
func (l *NoOpLogger) Warn(msg string, fields ...interface{})  {}
func (l *NoOpLogger) Error(msg string, fields ...interface{}) {}

// StdLogger writes key=value lines to stderr.
// This is a simple implementation for development
type StdLogger struct {
	prefix string
}

func NewStdLogger(prefix string) *StdLogger {
	return &StdLogger{prefix: prefix}
}

func (l *StdLogger) Debug(msg string, fields ...interface{}) {
	l.log("DEBUG", msg, fields...)
}

func (l *StdLogger) Info(msg string, fields ...interface{}) {
	l.log("INFO", msg, fields...)
}

func (l *StdLogger) Warn(msg string, fields ...interface{}) {
	l.log("WARN", msg, fields...)
}

func (l *StdLogger) Error(msg string, fields ...interface{}) {
	l.log("ERROR", msg, fields...)
}

func (l *StdLogger) log(level string, msg string, fields ...interface{}) {
	println(l.prefix + " [" + level + "] " + msg + formatFields(fields))
}

func formatFields(fields []interface{}) string {
	var b strings.Builder
	for i := 0; i+1 < len(fields); i += 2 {
		b.WriteString(" " + toString(fields[i]) + "=" + toString(fields[i+1]))
	}
	return b.String()
}

func toString(v interface{}) string {
	if v == nil {
		return "<nil>"
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// Process-wide logging facade.
//
// Library packages log through Log(), which forwards to whatever logger is
// installed at call time. Until Configure or SetLogger is called every call is
// a no-op, so behavior never depends on logging being set up.

var (
	globalMu      sync.Mutex
	globalLogger  atomic.Pointer[loggerBox]
	globalLevel   = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	globalEnabled atomic.Bool
)

type loggerBox struct{ Logger }

func init() {
	globalLogger.Store(&loggerBox{&NoOpLogger{}})
	globalEnabled.Store(true)
}

// Configure installs a production zap logger at the given level
// ("debug", "info", "warn", "error"). Calling it again only changes the level.
func Configure(level string) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}

	globalMu.Lock()
	defer globalMu.Unlock()

	globalLevel.SetLevel(lvl)
	if _, ok := globalLogger.Load().Logger.(*ZapLogger); ok {
		return nil
	}

	logger, err := newZapLoggerWithLevel(globalLevel)
	if err != nil {
		return err
	}
	globalLogger.Store(&loggerBox{logger})
	return nil
}

// SetLogger replaces the process-wide logger. A nil logger restores the no-op logger.
func SetLogger(logger Logger) {
	if logger == nil {
		logger = &NoOpLogger{}
	}
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger.Store(&loggerBox{logger})
}

// DisableLogging silences the process-wide logger without uninstalling it.
func DisableLogging() { globalEnabled.Store(false) }

// EnableLogging undoes DisableLogging.
func EnableLogging() { globalEnabled.Store(true) }

// Log returns a Logger bound to the process-wide facade.
func Log() Logger { return facadeLogger{} }

type facadeLogger struct{}

func (facadeLogger) current() Logger {
	if !globalEnabled.Load() {
		return &NoOpLogger{}
	}
	return globalLogger.Load().Logger
}

func (f facadeLogger) Debug(msg string, fields ...interface{}) { f.current().Debug(msg, fields...) }
func (f facadeLogger) Info(msg string, fields ...interface{})  { f.current().Info(msg, fields...) }
func (f facadeLogger) Warn(msg string, fields ...interface{})  { f.current().Warn(msg, fields...) }
func (f facadeLogger) Error(msg string, fields ...interface{}) { f.current().Error(msg, fields...) }

// ParseLevel maps a level name to a zap level. Matching is case-insensitive
// and "warning" is accepted as an alias of "warn".
func ParseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "", "info":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, WithContext(ErrInvalidConfig, map[string]interface{}{
			"field":  "log_level",
			"value":  level,
			"reason": "unknown log level",
		})
	}
}

package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log is the process-wide logger. Init must be called before use; the
// zero value is a nop logger so library code never panics on logging.
var Log = zap.NewNop()

// Init initializes the global logger. Level resolution order: the
// `level` argument, then RECALL_LOG_LEVEL, then info. RECALL_LOG_SINK
// of the form `file:/path/to/log` redirects output to a file.
func Init(level string) {
	lvl := strings.ToLower(strings.TrimSpace(level))
	if lvl == "" {
		lvl = strings.ToLower(strings.TrimSpace(os.Getenv("RECALL_LOG_LEVEL")))
	}
	var zl zapcore.Level
	switch lvl {
	case "debug":
		zl = zapcore.DebugLevel
	case "warn", "warning":
		zl = zapcore.WarnLevel
	case "error":
		zl = zapcore.ErrorLevel
	default:
		zl = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zl)
	cfg.OutputPaths = []string{"stdout"}
	if sink := os.Getenv("RECALL_LOG_SINK"); strings.HasPrefix(sink, "file:") {
		cfg.OutputPaths = []string{strings.TrimPrefix(sink, "file:")}
	}

	l, err := cfg.Build()
	if err != nil {
		// fall back to a plain stderr logger rather than dying
		l = zap.NewExample()
	}
	Log = l
}

// Sync flushes buffered log entries.
func Sync() { _ = Log.Sync() }

// Debug logs at debug level with zap fields.
func Debug(msg string, fields ...zap.Field) { Log.Debug(msg, fields...) }

// Info logs at info level with zap fields.
func Info(msg string, fields ...zap.Field) { Log.Info(msg, fields...) }

// Warn logs at warn level with zap fields.
func Warn(msg string, fields ...zap.Field) { Log.Warn(msg, fields...) }

// Error logs at error level with zap fields.
func Error(msg string, fields ...zap.Field) { Log.Error(msg, fields...) }

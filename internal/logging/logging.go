package logging

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	sugar *zap.SugaredLogger
	once  sync.Once
)

// Logger is the canonical structured logging interface used by the project.
// Keep it small and focused on key/value structured events.
type Logger interface {
	Infow(msg string, keysAndValues ...interface{})
	Debugw(msg string, keysAndValues ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Errorw(msg string, keysAndValues ...interface{})
	Fatalw(msg string, keysAndValues ...interface{})
	Sync() error
}

// noopLogger is a tiny, extremely cheap logger that does nothing. It is the
// default so logging calls are safe before Init is invoked.
type noopLogger struct{}

func (n noopLogger) Infow(msg string, keysAndValues ...interface{})  {}
func (n noopLogger) Debugw(msg string, keysAndValues ...interface{}) {}
func (n noopLogger) Warnw(msg string, keysAndValues ...interface{})  {}
func (n noopLogger) Errorw(msg string, keysAndValues ...interface{}) {}
func (n noopLogger) Fatalw(msg string, keysAndValues ...interface{}) {}
func (n noopLogger) Sync() error                                     { return nil }

var current Logger = noopLogger{}

// Init initializes the global sugared logger based on LOG_LEVEL and
// redirects the standard library logger into zap. Callers must invoke this
// in main() to enable structured logging. It's safe to call multiple times.
func Init() *zap.SugaredLogger {
	once.Do(func() {
		level := strings.ToLower(os.Getenv("LOG_LEVEL"))
		cfg := zap.Config{
			Encoding:         "json",
			EncoderConfig:    zap.NewProductionEncoderConfig(),
			OutputPaths:      []string{"stdout"},
			ErrorOutputPaths: []string{"stderr"},
		}
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.EncoderConfig.CallerKey = "caller"
		lvl := zap.InfoLevel
		switch level {
		case "debug":
			lvl = zap.DebugLevel
		case "warn":
			lvl = zap.WarnLevel
		case "error":
			lvl = zap.ErrorLevel
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)

		logger, _ := cfg.Build(zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel))
		_ = zap.RedirectStdLog(logger)
		sugar = logger.Sugar()
		current = sugar
	})
	return sugar
}

// Sugar returns the initialized sugared logger (may be nil if Init not called).
func Sugar() *zap.SugaredLogger { return sugar }

// SetLogger replaces the package-level logger. Pass nil to reset to the
// sugared logger initialized by Init() (if any). Useful for tests.
func SetLogger(l Logger) {
	if l == nil {
		if sugar != nil {
			current = sugar
		} else {
			current = noopLogger{}
		}
	} else {
		current = l
	}
}

// GetLogger returns the current Logger.
func GetLogger() Logger { return current }

func Infow(msg string, keysAndValues ...interface{}) {
	if current != nil {
		current.Infow(msg, keysAndValues...)
	}
}
func Debugw(msg string, keysAndValues ...interface{}) {
	if current != nil {
		current.Debugw(msg, keysAndValues...)
	}
}
func Warnw(msg string, keysAndValues ...interface{}) {
	if current != nil {
		current.Warnw(msg, keysAndValues...)
	}
}
func Errorw(msg string, keysAndValues ...interface{}) {
	if current != nil {
		current.Errorw(msg, keysAndValues...)
	}
}
func Fatalw(msg string, keysAndValues ...interface{}) {
	if current != nil {
		current.Fatalw(msg, keysAndValues...)
	}
}

// FatalExitf logs a fatal message and exits the process with code 1. Tests
// can replace the logger via SetLogger to avoid process exit during test runs.
func FatalExitf(msg string, keysAndValues ...interface{}) {
	if current != nil {
		current.Fatalw(msg, keysAndValues...)
	}
	os.Exit(1)
}

// Sync flushes any buffered logs.
func Sync() error {
	if current != nil {
		return current.Sync()
	}
	return nil
}

// Helper functions that return sugared logger key/value pairs for common
// entities. Canonical dot-separated keys keep downstream queries simple.

// ConnFields identifies a media connection/session.
func ConnFields(connID string) []interface{} {
	return []interface{}{"conn.id", connID}
}

// ContextFields reports the current inventory/space/element pointers. Empty
// strings stand in for unset pointers.
func ContextFields(inventoryID, spaceID, elementID string) []interface{} {
	return []interface{}{"ctx.inventory_id", inventoryID, "ctx.space_id", spaceID, "ctx.element_id", elementID}
}

// AccumFields returns structured fields for accumulator state. bytes is the
// buffered byte count and durationMs the audio duration it represents.
func AccumFields(connID string, bytes int, durationMs int) []interface{} {
	return []interface{}{"conn.id", connID, "bytes", bytes, "duration_ms", durationMs}
}

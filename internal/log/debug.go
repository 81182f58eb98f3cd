// Package log routes scm debug output to a file. Output written before the
// destination is known is buffered, then flushed or discarded once SetFile
// decides where it goes.
package log

import (
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

// DebugLogger is the io.Writer behind every event: a file when one is set,
// an in-memory buffer until then.
type DebugLogger struct {
	mu      sync.Mutex
	file    *os.File
	buffer  []byte
	discard bool
}

var (
	globalDebugLogger = &DebugLogger{}

	loggerMu sync.RWMutex
	logger   = newLogger(zerolog.DebugLevel)
)

func newLogger(level zerolog.Level) zerolog.Logger {
	return zerolog.New(globalDebugLogger).Level(level).With().Timestamp().Logger()
}

// Write implements io.Writer.
func (l *DebugLogger) Write(p []byte) (n int, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.discard {
		return len(p), nil
	}

	if l.file != nil {
		n, err = l.file.Write(p)
		_ = l.file.Sync()
		return n, err
	}

	// p may be reused by the caller
	b := make([]byte, len(p))
	copy(b, p)
	l.buffer = append(l.buffer, b...)
	return len(p), nil
}

// SetFile sends debug output to path, flushing anything buffered so far.
// An empty path discards buffered and future output.
func SetFile(path string) error {
	globalDebugLogger.mu.Lock()
	defer globalDebugLogger.mu.Unlock()

	if globalDebugLogger.file != nil {
		_ = globalDebugLogger.file.Close()
		globalDebugLogger.file = nil
	}

	if path == "" {
		globalDebugLogger.discard = true
		globalDebugLogger.buffer = nil
		return nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600) //nolint:gosec
	if err != nil {
		globalDebugLogger.discard = true
		globalDebugLogger.buffer = nil
		return err
	}

	globalDebugLogger.file = f
	globalDebugLogger.discard = false

	if len(globalDebugLogger.buffer) > 0 {
		_, _ = f.Write(globalDebugLogger.buffer)
		_ = f.Sync()
		globalDebugLogger.buffer = nil
	}

	return nil
}

// SetLevel changes the minimum level written. Unknown names are rejected.
func SetLevel(name string) error {
	level, err := zerolog.ParseLevel(name)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", name, err)
	}
	loggerMu.Lock()
	logger = newLogger(level)
	loggerMu.Unlock()
	return nil
}

// Logger returns the current logger, for callers that want sub-loggers.
func Logger() zerolog.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return logger
}

// Debug starts a debug-level event.
func Debug() *zerolog.Event {
	l := Logger()
	return l.Debug()
}

// Info starts an info-level event.
func Info() *zerolog.Event {
	l := Logger()
	return l.Info()
}

// Error starts an error-level event.
func Error() *zerolog.Event {
	l := Logger()
	return l.Error()
}

// Printf writes a formatted debug message.
func Printf(format string, args ...any) {
	l := Logger()
	l.Debug().Msgf(format, args...)
}

// Close closes the debug log file if open.
func Close() error {
	globalDebugLogger.mu.Lock()
	defer globalDebugLogger.mu.Unlock()

	if globalDebugLogger.file == nil {
		return nil
	}

	err := globalDebugLogger.file.Close()
	globalDebugLogger.file = nil
	return err
}

// Package logging builds the charmbracelet logger used by nanopatterns.
// It is configured from the environment and can write to a file.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

// LoggerCloser wraps a logger and closes its file output, if any.
type LoggerCloser struct {
	*log.Logger
	closer io.Closer
}

// Close closes the underlying writer if it's closeable.
func (lc *LoggerCloser) Close() error {
	if lc.closer != nil {
		return lc.closer.Close()
	}
	return nil
}

// Slog returns a slog.Logger backed by the charm logger.
func (lc *LoggerCloser) Slog() *slog.Logger {
	return slog.New(lc.Logger)
}

// Level maps NANOPATTERNS_LOG_LEVEL to a log level. Unknown values mean info.
func Level() log.Level {
	switch os.Getenv("NANOPATTERNS_LOG_LEVEL") {
	case "debug":
		return log.DebugLevel
	case "warn":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// NewLoggerWithWriter creates a logger writing to w.
func NewLoggerWithWriter(w io.Writer) *LoggerCloser {
	lg := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Level:           Level(),
	})

	prefix := os.Getenv("NANOPATTERNS_LOG_PREFIX")
	if prefix == "" {
		prefix = "nanopatterns "
	}

	var closer io.Closer
	if c, ok := w.(io.Closer); ok && w != os.Stderr {
		closer = c
	}

	return &LoggerCloser{
		Logger: lg.WithPrefix(prefix),
		closer: closer,
	}
}

// NewLogger creates a logger configured from the environment:
// NANOPATTERNS_LOG_LEVEL: debug, info, warn, error (default: info)
// NANOPATTERNS_LOG_PREFIX: prefix for log messages (default: "nanopatterns ")
// NANOPATTERNS_LOG_TO_FILE: when "1", logs to a timestamped file instead of stderr
func NewLogger() *LoggerCloser {
	output := io.Writer(os.Stderr)

	if os.Getenv("NANOPATTERNS_LOG_TO_FILE") == "1" {
		timestamp := time.Now().Format("20060102-150405")
		logFile := fmt.Sprintf("nanopatterns-%s-debug.log", timestamp)

		f, err := os.OpenFile(logFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
		if err == nil {
			output = f
		}
		// stderr if the file cannot be created
	}

	return NewLoggerWithWriter(output)
}

// IsDebug returns true if debug logging is enabled.
func IsDebug() bool {
	return os.Getenv("NANOPATTERNS_LOG_LEVEL") == "debug"
}

// Package logger is the process-wide leveled logger.
//
// Call sites use printf-style helpers (Debug, Info, Warn, Error). Output is
// produced by a zerolog.Logger so the same messages can be rendered either as
// human readable console lines or as JSON objects, selected by Configure.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var (
	mu           sync.RWMutex
	currentLevel = LevelInfo
	logger       = newConsoleLogger(os.Stdout)
	closer       io.Closer
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l Level) zerolog() zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func parseLevel(level string) (Level, bool) {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return LevelDebug, true
	case "INFO":
		return LevelInfo, true
	case "WARN":
		return LevelWarn, true
	case "ERROR":
		return LevelError, true
	}
	return LevelInfo, false
}

// SetLevel changes the minimum level. Unknown names are ignored.
func SetLevel(level string) {
	parsed, ok := parseLevel(level)
	if !ok {
		return
	}

	mu.Lock()
	defer mu.Unlock()
	currentLevel = parsed
}

// GetLevel returns the current minimum level.
func GetLevel() Level {
	mu.RLock()
	defer mu.RUnlock()
	return currentLevel
}

// Configure sets level, format and destination in one step.
//
// Parameters:
//   - level: DEBUG, INFO, WARN or ERROR (case-insensitive)
//   - format: "text" for console lines, "json" for one JSON object per line
//   - output: "stdout", "stderr" or a file path (opened in append mode)
//
// Returns an error if the output file cannot be opened or the format is unknown.
func Configure(level, format, output string) error {
	w, c, err := openOutput(output)
	if err != nil {
		return err
	}

	var next zerolog.Logger
	switch strings.ToLower(format) {
	case "", "text":
		next = newConsoleLogger(w)
	case "json":
		next = zerolog.New(w).With().Timestamp().Logger()
	default:
		if c != nil {
			_ = c.Close()
		}
		return fmt.Errorf("unknown log format: %q", format)
	}

	mu.Lock()
	defer mu.Unlock()

	if closer != nil {
		_ = closer.Close()
	}
	closer = c
	logger = next
	if parsed, ok := parseLevel(level); ok {
		currentLevel = parsed
	}

	return nil
}

// SetOutput redirects console-formatted output to w. Mostly useful in tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger = newConsoleLogger(w)
}

func openOutput(output string) (io.Writer, io.Closer, error) {
	switch output {
	case "", "stdout":
		return os.Stdout, nil, nil
	case "stderr":
		return os.Stderr, nil, nil
	}

	f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file %s: %w", output, err)
	}
	return f, f, nil
}

func newConsoleLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    true,
		TimeFormat: "2006-01-02 15:04:05",
	}).With().Timestamp().Logger()
}

func enabled(level Level) (zerolog.Logger, bool) {
	mu.RLock()
	defer mu.RUnlock()
	return logger, level >= currentLevel
}

func log(level Level, format string, v ...any) {
	l, ok := enabled(level)
	if !ok {
		return
	}
	l.WithLevel(level.zerolog()).Msg(fmt.Sprintf(format, v...))
}

// Event logs msg at level with structured key/value fields.
//
// Fields are given as alternating keys and values; a trailing key without a
// value is dropped.
func Event(level Level, msg string, fields ...any) {
	l, ok := enabled(level)
	if !ok {
		return
	}

	e := l.WithLevel(level.zerolog())
	for i := 0; i+1 < len(fields); i += 2 {
		key := fmt.Sprint(fields[i])
		switch val := fields[i+1].(type) {
		case string:
			e = e.Str(key, val)
		case time.Time:
			e = e.Time(key, val)
		case error:
			e = e.AnErr(key, val)
		default:
			e = e.Interface(key, val)
		}
	}
	e.Msg(msg)
}

func Debug(format string, v ...any) {
	log(LevelDebug, format, v...)
}

func Info(format string, v ...any) {
	log(LevelInfo, format, v...)
}

func Warn(format string, v ...any) {
	log(LevelWarn, format, v...)
}

func Error(format string, v ...any) {
	log(LevelError, format, v...)
}

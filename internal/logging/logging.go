// Package logging configures the collector's structured logger.
//
// Console output goes to stderr in zerolog's human-readable format so that
// stdout stays reserved for the report. An optional JSON file sink is
// rotated by lumberjack.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Default rotation settings for the file sink.
const (
	DefaultMaxSizeMB  = 10
	DefaultMaxBackups = 3
	DefaultMaxAgeDays = 7
)

const consoleTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Config describes where log events go.
type Config struct {
	// Level is the base level name (trace, debug, info, warn, error).
	// Empty means info.
	Level string

	// File is an optional path for a JSON log file.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// New builds a logger writing to console (and the file sink, if configured).
// verbosity is the number of -v flags; each one lowers the level by one step.
// The returned closer releases the file sink and is never nil.
func New(cfg Config, console io.Writer, verbosity int) (zerolog.Logger, io.Closer) {
	if console == nil {
		console = os.Stderr
	}

	level := ParseLevel(cfg.Level, zerolog.InfoLevel)
	level = Verbose(level, verbosity)

	writers := []io.Writer{
		zerolog.ConsoleWriter{Out: console, TimeFormat: consoleTimeFormat},
	}

	var closer io.Closer = nopCloser{}
	if strings.TrimSpace(cfg.File) != "" {
		fw := &lj.Logger{
			Filename:   cfg.File,
			MaxSize:    valOr(cfg.MaxSizeMB, DefaultMaxSizeMB),
			MaxBackups: valOr(cfg.MaxBackups, DefaultMaxBackups),
			MaxAge:     valOr(cfg.MaxAgeDays, DefaultMaxAgeDays),
			Compress:   cfg.Compress,
		}
		writers = append(writers, fw)
		closer = fw
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().
		Timestamp().
		Logger()

	return logger, closer
}

// ParseLevel converts a level name, returning def for empty or unknown names.
func ParseLevel(s string, def zerolog.Level) zerolog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return zerolog.TraceLevel
	case "DEBUG":
		return zerolog.DebugLevel
	case "INFO":
		return zerolog.InfoLevel
	case "WARN", "WARNING":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	default:
		return def
	}
}

// Verbose lowers level by one step per verbosity count, down to trace.
func Verbose(level zerolog.Level, verbosity int) zerolog.Level {
	for i := 0; i < verbosity && level > zerolog.TraceLevel; i++ {
		level--
	}
	return level
}

func valOr(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

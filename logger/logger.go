// ABOUTME: Structured logging setup on zerolog for all modes
// ABOUTME: Console output for terminals, rotated JSON files through lumberjack for debug logs

// Package logger configures the global zerolog logger.
package logger

import (
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config represents logger configuration
type Config struct {
	Output string // "stdout", "stderr" or "file"
	Level  string // "debug", "info", "warn", "error"
	File   string // log file path, used when Output is "file"

	MaxSizeMB  int // rotate after this many megabytes, 0 uses 10
	MaxBackups int // rotated files to keep
}

var fileWriter *lumberjack.Logger

// Init initializes the global zerolog logger with the given configuration
func Init(cfg Config) error {
	level := ParseLevel(cfg.Level)

	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.CallerMarshalFunc = shortCaller

	var logger zerolog.Logger

	switch strings.ToLower(cfg.Output) {
	case "stdout", "":
		logger = consoleLogger(os.Stdout, level)
	case "stderr":
		logger = consoleLogger(os.Stderr, level)
	case "file":
		if cfg.File == "" {
			return errors.New("log output is file but no file path is set")
		}

		maxSize := cfg.MaxSizeMB
		if maxSize <= 0 {
			maxSize = 10
		}

		Close()

		fileWriter = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    maxSize,
			MaxBackups: cfg.MaxBackups,
		}

		logger = zerolog.New(fileWriter).With().Timestamp().Caller().Logger()
	default:
		return errors.Newf("unknown log output %q", cfg.Output)
	}

	zerolog.DefaultContextLogger = &logger
	zlog.Logger = logger

	return nil
}

// Close flushes and closes the log file, if one is open
func Close() {
	if fileWriter != nil {
		_ = fileWriter.Close()
		fileWriter = nil
	}
}

// Discard silences all logging, used by the TUI when no debug file is requested
func Discard() {
	logger := zerolog.Nop()
	zerolog.DefaultContextLogger = &logger
	zlog.Logger = logger
}

func consoleLogger(w io.Writer, level zerolog.Level) zerolog.Logger {
	if level == zerolog.DebugLevel {
		return zerolog.New(zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.TimeOnly,
			PartsOrder: []string{"time", "level", "message", "caller"},
			FormatCaller: func(i interface{}) string {
				return "(" + i.(string) + ")"
			},
		}).With().Timestamp().Caller().Logger()
	}

	return zerolog.New(zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.TimeOnly,
	}).With().Timestamp().Logger()
}

// shortCaller keeps the parent directory and file name
func shortCaller(_ uintptr, file string, line int) string {
	parts := strings.Split(file, string(filepath.Separator))
	if len(parts) > 1 {
		return filepath.Join(parts[len(parts)-2:]...) + ":" + strconv.Itoa(line)
	}

	return filepath.Base(file) + ":" + strconv.Itoa(line)
}

// ParseLevel parses the log level string, defaulting to info
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "info", "":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Package logger initialises the global zerolog logger.
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
)

// Config represents logger configuration.
type Config struct {
	Output string // "stdout", "stderr", or file path
	Level  string // "debug", "info", "warn", "error"
	File   string // log file path (used when Output is not stdout/stderr)
}

// console reports whether the output is a terminal stream.
func (c Config) console() bool {
	switch strings.ToLower(c.Output) {
	case "stdout", "stderr", "":
		return true
	}
	return false
}

// Init initializes the global zerolog logger with the given configuration.
func Init(cfg Config) error {
	writer, err := openWriter(cfg)
	if err != nil {
		return err
	}

	level := parseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.TimeOnly
	zerolog.TimestampFieldName = "time"
	zerolog.LevelFieldName = "level"
	zerolog.MessageFieldName = "message"
	zerolog.CallerMarshalFunc = shortCaller

	logger := build(writer, cfg.console(), level)
	zerolog.DefaultContextLogger = &logger
	zlog.Logger = logger

	return nil
}

func openWriter(cfg Config) (io.Writer, error) {
	switch strings.ToLower(cfg.Output) {
	case "stdout", "":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	}

	path := cfg.File
	if path == "" {
		path = cfg.Output
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open log file %s", path)
	}
	return f, nil
}

// build creates the logger: colored console output for terminals, JSON for files.
// Caller info is only added at debug level.
func build(w io.Writer, console bool, level zerolog.Level) zerolog.Logger {
	debug := level <= zerolog.DebugLevel

	if console {
		cw := zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
		if debug {
			cw.PartsOrder = []string{"time", "level", "message", "caller"}
			cw.FormatCaller = func(i interface{}) string {
				s, _ := i.(string)
				return "(" + s + ")"
			}
			return zerolog.New(cw).With().Timestamp().Caller().Logger()
		}
		return zerolog.New(cw).With().Timestamp().Logger()
	}

	ctx := zerolog.New(w).With().Timestamp()
	if debug {
		return ctx.Caller().Logger()
	}
	return ctx.Logger()
}

// shortCaller keeps the last directory and file name.
func shortCaller(_ uintptr, file string, line int) string {
	parts := strings.Split(file, string(filepath.Separator))
	if len(parts) > 1 {
		return filepath.Join(parts[len(parts)-2:]...) + ":" + strconv.Itoa(line)
	}
	return filepath.Base(file) + ":" + strconv.Itoa(line)
}

// parseLevel parses the log level string. Unknown levels fall back to info.
func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

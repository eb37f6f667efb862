// Package logging configures the global zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// logFileName is the log file location relative to the XDG state home.
const logFileName = "init-project/init-project.log"

// Options controls logger setup.
type Options struct {
	// Verbosity: 0 warn, 1 info, 2 debug, 3+ trace
	Verbosity int
	// Console receives human-readable log lines, normally os.Stderr
	Console io.Writer
	// NoColor disables ANSI colors on the console writer
	NoColor bool
	// LogFile overrides the log file path; empty uses the XDG state directory
	LogFile string
	// DisableFile turns off file logging entirely
	DisableFile bool
}

// SetupLogger configures the global logger based on verbosity level.
// It sets up dual output to both console and a log file and returns a
// function that closes the log file.
func SetupLogger(opts Options) func() {
	zerolog.SetGlobalLevel(levelFor(opts.Verbosity))

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	writers := []io.Writer{zerolog.ConsoleWriter{
		Out:        console,
		TimeFormat: time.Kitchen,
		NoColor:    opts.NoColor,
	}}

	closer := func() {}

	var fileErr error
	logPath := opts.LogFile
	if !opts.DisableFile {
		if logPath == "" {
			logPath, fileErr = xdg.StateFile(logFileName)
		}

		if fileErr == nil {
			var file *os.File
			file, fileErr = openLogFile(logPath)
			if fileErr == nil {
				writers = append(writers, file)
				closer = func() { _ = file.Close() }
			}
		}
	}

	log.Logger = zerolog.New(io.MultiWriter(writers...)).With().Timestamp().Logger()

	if fileErr != nil {
		log.Warn().Err(fileErr).Str("path", logPath).Msg("Failed to open log file, logging to console only")
	}

	// Add caller information for debug and trace levels
	if opts.Verbosity >= 2 {
		log.Logger = log.Logger.With().Caller().Logger()
	}

	log.Debug().Int("verbosity", opts.Verbosity).Str("logFile", logPath).Msg("Logger initialized")

	return closer
}

// GetLogger returns a contextualized logger with the given component name.
func GetLogger(name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}

// LogOperationStart logs the start of an operation and returns a function to log its completion.
func LogOperationStart(logger zerolog.Logger, operation string) func() {
	start := time.Now()
	logger.Debug().
		Str("operation", operation).
		Msg("Operation started")

	return func() {
		logger.Debug().
			Str("operation", operation).
			Dur("duration", time.Since(start)).
			Msg("Operation completed")
	}
}

func levelFor(verbosity int) zerolog.Level {
	switch {
	case verbosity <= 0:
		return zerolog.WarnLevel
	case verbosity == 1:
		return zerolog.InfoLevel
	case verbosity == 2:
		return zerolog.DebugLevel
	default:
		return zerolog.TraceLevel
	}
}

// openLogFile creates the log file and its parent directories.
func openLogFile(logPath string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644) // #nosec G304 - log path from XDG or flag
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	return file, nil
}

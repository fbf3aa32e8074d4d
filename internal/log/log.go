// Package log configures the zerolog logger shared by every deviceinfo component
package log

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger is the process-wide logger
var Logger zerolog.Logger

func init() {
	// Console writer on stderr so stdout stays clean for panel output
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05",
	}

	Logger = newLogger(output, zerolog.InfoLevel)
	log.Logger = Logger
}

func newLogger(w io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Str("component", "deviceinfo").
		Logger()
}

// Info starts an info-level event
func Info() *zerolog.Event {
	return Logger.Info()
}

// Warn starts a warn-level event
func Warn() *zerolog.Event {
	return Logger.Warn()
}

// Error starts an error-level event
func Error() *zerolog.Event {
	return Logger.Error()
}

// Debug starts a debug-level event
func Debug() *zerolog.Event {
	return Logger.Debug()
}

// Fatal starts a fatal-level event; the process exits after Msg
func Fatal() *zerolog.Event {
	return Logger.Fatal()
}

// SetDebugMode switches the logger to debug level
func SetDebugMode() {
	Logger = Logger.Level(zerolog.DebugLevel)
	log.Logger = Logger
}

// SetOutput redirects the logger, keeping the current level
func SetOutput(w io.Writer) {
	Logger = newLogger(w, Logger.GetLevel())
	log.Logger = Logger
}

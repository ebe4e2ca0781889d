package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// NewLogger configures the global zerolog logger with console output at
// info level and returns it.
func NewLogger() *zerolog.Logger {
	return NewLoggerWithLevel(os.Stderr, zerolog.InfoLevel)
}

// NewLoggerWithLevel configures the global logger to write to out.
func NewLoggerWithLevel(out io.Writer, level zerolog.Level) *zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: "15:04:05",
		FormatLevel: func(i interface{}) string {
			level := strings.ToUpper(fmt.Sprintf("%s", i))
			switch level {
			case "DEBUG":
				return "\x1b[36m[DEBUG]\x1b[0m"
			case "INFO":
				return "\x1b[32m[INFO]\x1b[0m"
			case "WARN":
				return "\x1b[33m[WARN]\x1b[0m"
			case "ERROR":
				return "\x1b[31m[ERROR]\x1b[0m"
			default:
				return fmt.Sprintf("[%s]", level)
			}
		},
	}

	logger := zerolog.New(output).Level(level).With().Timestamp().Logger()
	log.Logger = logger
	return &logger
}

// ParseLevel falls back to info for unknown or empty level names.
func ParseLevel(name string) zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(name))
	if err != nil || name == "" {
		return zerolog.InfoLevel
	}
	return level
}

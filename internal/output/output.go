package output

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type LogType string

const (
	Info    LogType = "info"
	Warning LogType = "warning"
	Error   LogType = "error"
	Success LogType = "success"
)

// Adapter is a sink for user-facing output such as script output, log
// sidecar data and error reports.
type Adapter interface {
	Log(logType LogType, message string)
}

type zerologAdapter struct {
	logger zerolog.Logger
}

// NewZerologAdapter forwards sink messages to the given logger.
func NewZerologAdapter(logger zerolog.Logger) Adapter {
	return &zerologAdapter{logger: logger}
}

// Default returns an adapter over the global zerolog logger.
func Default() Adapter {
	return &zerologAdapter{logger: log.Logger}
}

func (a *zerologAdapter) Log(logType LogType, message string) {
	switch logType {
	case Error:
		a.logger.Error().Msg(message)
	case Warning:
		a.logger.Warn().Msg(message)
	default:
		a.logger.Info().Msg(message)
	}
}

type consoleAdapter struct {
	out io.Writer
	mu  sync.Mutex
}

// NewConsoleAdapter writes raw lines to out, prefixing errors and warnings.
func NewConsoleAdapter(out io.Writer) Adapter {
	return &consoleAdapter{out: out}
}

func (a *consoleAdapter) Log(logType LogType, message string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	switch logType {
	case Error, Warning:
		fmt.Fprintf(a.out, "[%s] %s\n", strings.ToUpper(string(logType)), message)
	default:
		fmt.Fprintln(a.out, message)
	}
}

// OrDefault returns adapter, or the default zerolog adapter when it is nil.
func OrDefault(adapter Adapter) Adapter {
	if adapter == nil {
		return Default()
	}
	return adapter
}

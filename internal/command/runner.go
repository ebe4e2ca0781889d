package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/eagraf/localfabric/internal/output"
	"github.com/rs/zerolog/log"
)

type Options struct {
	// Dir is the working directory; empty means the current one.
	Dir string
	// Env entries override variables of the current process environment.
	Env  map[string]string
	Sink output.Adapter
}

type Runner interface {
	Execute(ctx context.Context, cmd string, args []string, opts Options) error
}

// ExecRunner runs commands on the local host and streams their output.
type ExecRunner struct {
	// WaitDelay bounds how long output is drained after the command exits.
	// Background children that inherit stdout must not hold the call open.
	WaitDelay time.Duration
}

var _ Runner = &ExecRunner{}

func NewExecRunner() *ExecRunner {
	return &ExecRunner{WaitDelay: time.Second}
}

func (r *ExecRunner) Execute(ctx context.Context, name string, args []string, opts Options) error {
	sink := output.OrDefault(opts.Sink)

	// exec copies stdout and stderr from separate goroutines, and the sink
	// is not required to be safe for concurrent use.
	var sinkMu sync.Mutex
	stdout := &lineWriter{mu: &sinkMu, sink: sink}
	stderr := &lineWriter{mu: &sinkMu, sink: sink}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = opts.Dir
	cmd.Env = MergeEnv(os.Environ(), opts.Env)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = r.WaitDelay

	log.Debug().Str("command", name).Strs("args", args).Str("dir", opts.Dir).Msg("executing command")
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("error starting command %s: %w", name, err)
	}

	err := cmd.Wait()
	stdout.flush()
	stderr.flush()
	if err == nil {
		return nil
	}
	if errors.Is(err, exec.ErrWaitDelay) {
		log.Debug().Str("command", name).Msg("command exited with output still held open by a child process")
		return nil
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return err
	}
	execErr := &CommandExecutionError{
		Command: name,
		Args:    args,
		Code:    exitErr.ExitCode(),
	}
	if exitErr.ExitCode() == -1 {
		execErr.Signal = exitErr.ProcessState.String()
	}
	return execErr
}

// lineWriter forwards each complete line written to it to the sink.
type lineWriter struct {
	mu   *sync.Mutex
	sink output.Adapter
	buf  []byte
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.emit(w.buf[:i])
		w.buf = w.buf[i+1:]
	}
	return len(p), nil
}

// flush emits a trailing line that had no newline.
func (w *lineWriter) flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.buf) > 0 {
		w.emit(w.buf)
		w.buf = nil
	}
}

func (w *lineWriter) emit(line []byte) {
	w.sink.Log(output.Info, strings.TrimRight(string(line), "\r"))
}

// MergeEnv overlays overrides onto a KEY=VALUE environment list. Overridden
// keys keep their original position; new keys are appended.
func MergeEnv(base []string, overrides map[string]string) []string {
	merged := make([]string, 0, len(base)+len(overrides))
	seen := make(map[string]bool, len(overrides))
	for _, kv := range base {
		key, _, _ := strings.Cut(kv, "=")
		if value, ok := overrides[key]; ok {
			merged = append(merged, key+"="+value)
			seen[key] = true
			continue
		}
		merged = append(merged, kv)
	}
	for key, value := range overrides {
		if !seen[key] {
			merged = append(merged, key+"="+value)
		}
	}
	return merged
}

package command

import (
	"fmt"
	"strings"
)

// CommandExecutionError is returned when a command exits with a non-zero
// code or is terminated by a signal.
type CommandExecutionError struct {
	Command string
	Args    []string
	Code    int
	// Signal describes the terminating signal; empty for normal exits.
	Signal string
}

func (e *CommandExecutionError) Error() string {
	status := fmt.Sprintf("%d", e.Code)
	if e.Signal != "" {
		status = e.Signal
	}
	return fmt.Sprintf("Failed to execute command \"%s\" with  arguments \"%s\" return code %s", e.Command, strings.Join(e.Args, ", "), status)
}

package kcadm

import (
	"fmt"
	"strings"
)

// CommandFailedError is returned for a command that exited non-zero. Stderr is kept verbatim.
type CommandFailedError struct {
	ExitCode int
	Stderr   string
}

func (e *CommandFailedError) Error() string {
	return fmt.Sprintf("command failed with exit code %d: %s", e.ExitCode, strings.TrimSpace(e.Stderr))
}

// MissingFieldError is returned when an expected value is absent from a command result
type MissingFieldError struct {
	Field string
	Err   error
}

func (e *MissingFieldError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("missing field %q in command output: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("missing field %q in command output", e.Field)
}

func (e *MissingFieldError) Unwrap() error {
	return e.Err
}

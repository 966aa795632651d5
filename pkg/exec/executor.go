// Package exec runs generated workflow scripts with timeouts and captures
// their output for validation and corrective feedback.
package exec

import (
	"context"
	"time"
)

// Opts contains options for command execution.
type Opts struct {
	// Env contains environment variables (KEY=VALUE format)
	Env []string

	// Timeout is the maximum duration for command execution.
	Timeout time.Duration

	// WorkDir is the working directory for the command.
	WorkDir string
}

// Result contains the result of command execution.
type Result struct {
	// Stdout contains the standard output.
	Stdout string

	// Stderr contains the standard error output.
	Stderr string

	// Duration is how long the command took to execute.
	Duration time.Duration

	// ExitCode is the exit code of the command.
	ExitCode int

	// TimedOut reports whether the command was killed by its timeout.
	TimedOut bool
}

// Success reports whether the command exited cleanly.
func (r Result) Success() bool {
	return r.ExitCode == 0 && !r.TimedOut
}

// Executor runs commands in some environment. Non-zero exit codes are
// reported through Result, not the error return.
type Executor interface {
	Run(ctx context.Context, cmd []string, opts Opts) (Result, error)
	Name() string
	Available() bool
}

// DefaultOpts returns default execution options.
func DefaultOpts() Opts {
	return Opts{Timeout: 2 * time.Minute}
}

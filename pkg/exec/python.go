package exec

import (
	"context"
	"fmt"
	"time"

	"irabuilder/pkg/logx"
)

// PythonRunner validates and executes generated Python workflow scripts.
type PythonRunner struct {
	executor  Executor
	pythonBin string
	timeout   time.Duration
	logger    *logx.Logger
}

// NewPythonRunner creates a runner using the given executor and interpreter.
func NewPythonRunner(executor Executor, pythonBin string, timeout time.Duration) *PythonRunner {
	if pythonBin == "" {
		pythonBin = "python3"
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &PythonRunner{
		executor:  executor,
		pythonBin: pythonBin,
		timeout:   timeout,
		logger:    logx.NewLogger("python-runner"),
	}
}

// SyntaxCheck byte-compiles the script without running it. Returns the
// compiler diagnostics when the script does not parse.
func (p *PythonRunner) SyntaxCheck(ctx context.Context, scriptPath string) (ok bool, diagnostics string, err error) {
	result, err := p.executor.Run(ctx, []string{p.pythonBin, "-m", "py_compile", scriptPath}, Opts{
		Timeout: 30 * time.Second,
	})
	if err != nil {
		return false, "", fmt.Errorf("running syntax check: %w", err)
	}
	if !result.Success() {
		p.logger.Warn("syntax check failed for %s", scriptPath)
		return false, result.Stderr, nil
	}
	return true, "", nil
}

// Execute runs the script with the configured timeout. A failed run returns
// the result for corrective feedback, not an error; errors mean the
// interpreter could not be started at all.
func (p *PythonRunner) Execute(ctx context.Context, scriptPath, workDir string) (Result, error) {
	p.logger.Info("executing %s (timeout %s)", scriptPath, p.timeout)
	result, err := p.executor.Run(ctx, []string{p.pythonBin, scriptPath}, Opts{
		Timeout: p.timeout,
		WorkDir: workDir,
	})
	if err != nil {
		return result, err
	}
	if result.TimedOut {
		p.logger.Warn("execution of %s timed out after %s", scriptPath, p.timeout)
	} else if result.ExitCode != 0 {
		p.logger.Warn("execution of %s exited %d", scriptPath, result.ExitCode)
	}
	return result, nil
}

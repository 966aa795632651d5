package exec

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestLocalExecCapturesOutput(t *testing.T) {
	e := NewLocalExec()
	result, err := e.Run(context.Background(), []string{"sh", "-c", "echo out; echo err >&2"}, Opts{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success() {
		t.Errorf("exit code %d, want 0", result.ExitCode)
	}
	if strings.TrimSpace(result.Stdout) != "out" {
		t.Errorf("stdout = %q", result.Stdout)
	}
	if strings.TrimSpace(result.Stderr) != "err" {
		t.Errorf("stderr = %q", result.Stderr)
	}
}

func TestLocalExecNonZeroExitIsNotError(t *testing.T) {
	e := NewLocalExec()
	result, err := e.Run(context.Background(), []string{"sh", "-c", "exit 3"}, Opts{})
	if err != nil {
		t.Fatalf("non-zero exit should not be an error: %v", err)
	}
	if result.ExitCode != 3 {
		t.Errorf("exit code %d, want 3", result.ExitCode)
	}
	if result.Success() {
		t.Error("Success should be false for exit 3")
	}
}

func TestLocalExecTimeout(t *testing.T) {
	e := NewLocalExec()
	result, err := e.Run(context.Background(), []string{"sleep", "5"}, Opts{Timeout: 100 * time.Millisecond})
	if err != nil {
		t.Fatalf("timeout should not be an error: %v", err)
	}
	if !result.TimedOut {
		t.Error("expected TimedOut")
	}
	if result.Success() {
		t.Error("timed out run should not be a success")
	}
}

func TestLocalExecRejectsEmptyCommand(t *testing.T) {
	e := NewLocalExec()
	if _, err := e.Run(context.Background(), nil, Opts{}); err == nil {
		t.Error("expected error for empty command")
	}
}

func TestLocalExecRejectsMissingWorkDir(t *testing.T) {
	e := NewLocalExec()
	if _, err := e.Run(context.Background(), []string{"true"}, Opts{WorkDir: "/nonexistent/dir"}); err == nil {
		t.Error("expected error for missing workdir")
	}
}

func TestStubExecReplaysResults(t *testing.T) {
	stub := NewStubExec(
		Result{ExitCode: 1, Stderr: "boom"},
		Result{ExitCode: 0, Stdout: "fine"},
	)

	first, _ := stub.Run(context.Background(), []string{"python3", "a.py"}, Opts{})
	if first.ExitCode != 1 {
		t.Errorf("first exit = %d, want 1", first.ExitCode)
	}
	second, _ := stub.Run(context.Background(), []string{"python3", "a.py"}, Opts{})
	if !second.Success() {
		t.Error("second run should succeed")
	}
	// Calls past the end repeat the last result.
	third, _ := stub.Run(context.Background(), []string{"python3", "a.py"}, Opts{})
	if !third.Success() {
		t.Error("third run should repeat last result")
	}
	if len(stub.Calls()) != 3 {
		t.Errorf("recorded %d calls, want 3", len(stub.Calls()))
	}
}

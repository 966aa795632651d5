package coder

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"irabuilder/pkg/agent"
	"irabuilder/pkg/exec"
)

func newTestCoder(t *testing.T, responses []string, results ...exec.Result) (*Coder, *agent.MockLLMClient, string) {
	t.Helper()
	mock := agent.NewMockLLMClient(agent.TextResponses(responses...), nil)
	runner := exec.NewPythonRunner(exec.NewStubExec(results...), "python3", 0)
	dir := t.TempDir()
	c := New(mock, runner, 5, filepath.Join(dir, "code"))

	outputPath := filepath.Join(dir, "out.csv")
	c.StartWorkflow("Sales Check", "# plan", []string{"/data/a.csv"}, outputPath, dir)
	return c, mock, outputPath
}

func touchOutput(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("col\n1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestGenerateAndExecuteSucceedsFirstTry(t *testing.T) {
	c, _, outputPath := newTestCoder(t,
		[]string{"```python\nimport pandas as pd\nprint('ok')\n```"},
		exec.Result{ExitCode: 0}, // syntax check
		exec.Result{ExitCode: 0}, // execution
	)
	touchOutput(t, outputPath)

	result, err := c.GenerateAndExecute(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Succeeded {
		t.Fatalf("expected success, last error: %s", result.LastError)
	}
	if result.Iterations != 1 {
		t.Errorf("iterations = %d, want 1", result.Iterations)
	}
	if !strings.Contains(result.Code, `"/data/a.csv"`) {
		t.Error("final code should carry absolute input paths")
	}
	if _, err := os.Stat(result.ScriptPath); err != nil {
		t.Errorf("script artifact not written: %v", err)
	}
}

func TestGenerateAndExecuteRetriesOnFailure(t *testing.T) {
	c, mock, outputPath := newTestCoder(t,
		[]string{
			"```python\nimport pandas as pd\nbroken()\n```",
			"```python\nimport pandas as pd\nprint('fixed')\n```",
		},
		exec.Result{ExitCode: 0},                                            // syntax check 1
		exec.Result{ExitCode: 1, Stderr: "KeyError: 'amount'"},              // execution 1 fails
		exec.Result{ExitCode: 0},                                            // syntax check 2 and execution 2
	)
	touchOutput(t, outputPath)

	result, err := c.GenerateAndExecute(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !result.Succeeded {
		t.Fatalf("expected success after retry, last error: %s", result.LastError)
	}
	if result.Iterations != 2 {
		t.Errorf("iterations = %d, want 2", result.Iterations)
	}
	if len(result.Attempts) != 2 {
		t.Fatalf("attempts = %d, want 2", len(result.Attempts))
	}
	if result.Attempts[0].Succeeded || !result.Attempts[1].Succeeded {
		t.Error("attempt success flags wrong")
	}

	// The corrective prompt must carry the stderr back to the model.
	calls := mock.Calls()
	lastMessages := calls[len(calls)-1].Messages
	found := false
	for i := range lastMessages {
		if strings.Contains(lastMessages[i].Content, "KeyError: 'amount'") {
			found = true
		}
	}
	if !found {
		t.Error("corrective context should include previous stderr")
	}
}

func TestGenerateAndExecuteExhaustsBudget(t *testing.T) {
	mock := agent.NewMockLLMClient(agent.TextResponses(
		"```python\nimport pandas as pd\nx\n```",
		"```python\nimport pandas as pd\nx\n```",
	), nil)
	runner := exec.NewPythonRunner(exec.NewStubExec(exec.Result{ExitCode: 1, Stderr: "NameError"}), "python3", 0)
	dir := t.TempDir()
	c := New(mock, runner, 2, filepath.Join(dir, "code"))
	c.StartWorkflow("wf", "# plan", nil, filepath.Join(dir, "out.csv"), dir)

	result, err := c.GenerateAndExecute(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if result.Succeeded {
		t.Error("should not succeed when every run fails")
	}
	if result.Iterations != 2 {
		t.Errorf("iterations = %d, want 2 (budget)", result.Iterations)
	}
}

func TestGenerateAndExecuteReportsMissingOutput(t *testing.T) {
	// Execution succeeds but never writes the output file.
	c, _, _ := newTestCoder(t,
		[]string{
			"```python\nprint('no output')\n```",
			"```python\nprint('still none')\n```",
		},
		exec.Result{ExitCode: 0},
	)

	result, err := c.GenerateAndExecute(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if result.Succeeded {
		t.Error("missing output file should not count as success")
	}
	if !strings.Contains(result.LastError, "output file") {
		t.Errorf("last error = %q", result.LastError)
	}
}

func TestRefineAddsFeedbackToConversation(t *testing.T) {
	c, mock, outputPath := newTestCoder(t,
		[]string{
			"```python\nprint('v1')\n```",
			"```python\nprint('v2')\n```",
		},
		exec.Result{ExitCode: 0},
	)
	touchOutput(t, outputPath)

	if _, err := c.GenerateAndExecute(context.Background()); err != nil {
		t.Fatal(err)
	}
	result, err := c.Refine(context.Background(), "exclude cancelled orders")
	if err != nil {
		t.Fatal(err)
	}
	if !result.Succeeded {
		t.Fatal("refined run should succeed")
	}

	calls := mock.Calls()
	last := calls[len(calls)-1].Messages
	found := false
	for i := range last {
		if strings.Contains(last[i].Content, "exclude cancelled orders") {
			found = true
		}
	}
	if !found {
		t.Error("refine feedback should appear in the conversation")
	}
}

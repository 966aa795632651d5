// Package coder implements the code generation agent. It turns a business
// logic plan into a runnable pandas script through a bounded
// generate-validate-execute loop with corrective feedback.
package coder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"irabuilder/pkg/agent"
	"irabuilder/pkg/contextmgr"
	"irabuilder/pkg/exec"
	"irabuilder/pkg/logx"
	"irabuilder/pkg/utils"
)

// Attempt records one iteration of the generation loop.
type Attempt struct {
	Iteration int       `json:"iteration"`
	Code      string    `json:"code"`
	ExitCode  int       `json:"exit_code"`
	Stdout    string    `json:"stdout,omitempty"`
	Stderr    string    `json:"stderr,omitempty"`
	TimedOut  bool      `json:"timed_out"`
	Succeeded bool      `json:"succeeded"`
	Timestamp time.Time `json:"timestamp"`
}

// RunResult is the outcome of a full generation loop.
type RunResult struct {
	Succeeded  bool
	Code       string
	ScriptPath string
	OutputPath string
	Iterations int
	Attempts   []Attempt
	LastError  string
}

// Coder drives code generation for one workflow at a time.
type Coder struct {
	client        agent.LLMClient
	runner        *exec.PythonRunner
	ctx           *contextmgr.ContextManager
	maxIterations int
	codeDir       string

	workflowName string
	csvPaths     []string
	outputPath   string
	workDir      string
	logger       *logx.Logger
}

// New creates a coder backed by the given LLM client and script runner.
// Generated scripts are written under codeDir.
func New(client agent.LLMClient, runner *exec.PythonRunner, maxIterations int, codeDir string) *Coder {
	return &Coder{
		client:        client,
		runner:        runner,
		maxIterations: maxIterations,
		codeDir:       codeDir,
		ctx:           contextmgr.NewContextManager(),
		logger:        logx.NewLogger("coder"),
	}
}

// StartWorkflow seeds the coder with the plan and file layout for a workflow.
func (c *Coder) StartWorkflow(name, plan string, csvPaths []string, outputPath, workDir string) {
	c.ctx.Clear()
	c.ctx.AddMessage(agent.RoleSystem, codeSystemPrompt)
	c.ctx.AddUserMessage(initialCodePrompt(plan))

	c.workflowName = name
	c.csvPaths = csvPaths
	c.outputPath = outputPath
	c.workDir = workDir
}

// GenerateAndExecute runs the bounded generation loop: generate code, check
// its syntax, execute it, and feed failures back as corrective context. It
// returns a result either way; Succeeded reports whether a run produced the
// output file within the iteration budget.
func (c *Coder) GenerateAndExecute(ctx context.Context) (*RunResult, error) {
	result := &RunResult{OutputPath: c.outputPath}

	for iteration := 1; iteration <= c.maxIterations; iteration++ {
		c.logger.Info("code generation attempt %d/%d", iteration, c.maxIterations)
		result.Iterations = iteration

		code, err := c.generate(ctx)
		if err != nil {
			return result, err
		}

		scriptPath, err := c.writeScript(code)
		if err != nil {
			return result, err
		}
		result.ScriptPath = scriptPath

		attempt := Attempt{Iteration: iteration, Code: code, Timestamp: time.Now().UTC()}

		ok, diagnostics, err := c.runner.SyntaxCheck(ctx, scriptPath)
		if err != nil {
			return result, err
		}
		if !ok {
			attempt.ExitCode = -1
			attempt.Stderr = diagnostics
			result.Attempts = append(result.Attempts, attempt)
			result.LastError = diagnostics
			c.ctx.AddUserMessage(syntaxFixPrompt(diagnostics))
			continue
		}

		runResult, err := c.runner.Execute(ctx, scriptPath, c.workDir)
		if err != nil {
			return result, err
		}
		attempt.ExitCode = runResult.ExitCode
		attempt.Stdout = runResult.Stdout
		attempt.Stderr = runResult.Stderr
		attempt.TimedOut = runResult.TimedOut

		if runResult.TimedOut {
			result.Attempts = append(result.Attempts, attempt)
			result.LastError = "execution timed out"
			c.ctx.AddUserMessage(timeoutFixPrompt(runResult.Duration.Seconds()))
			continue
		}
		if !runResult.Success() {
			result.Attempts = append(result.Attempts, attempt)
			result.LastError = runResult.Stderr
			c.ctx.AddUserMessage(executionFixPrompt(runResult.ExitCode, runResult.Stderr))
			continue
		}

		if problem := c.validateOutput(); problem != "" {
			result.Attempts = append(result.Attempts, attempt)
			result.LastError = problem
			c.ctx.AddUserMessage(outputFixPrompt(problem, c.outputPath))
			continue
		}

		attempt.Succeeded = true
		result.Attempts = append(result.Attempts, attempt)
		result.Succeeded = true
		result.Code = code
		c.logger.Info("code executed successfully on attempt %d", iteration)
		return result, nil
	}

	c.logger.Warn("no working code after %d attempts", c.maxIterations)
	return result, nil
}

// Refine feeds user feedback into the conversation and reruns the generation
// loop from scratch against the same plan.
func (c *Coder) Refine(ctx context.Context, feedback string) (*RunResult, error) {
	c.logger.Info("refining code from feedback")
	c.ctx.AddUserMessage(refineCodePrompt(feedback))
	return c.GenerateAndExecute(ctx)
}

// Reset clears all per-workflow state.
func (c *Coder) Reset() {
	c.ctx.Clear()
	c.workflowName = ""
	c.csvPaths = nil
	c.outputPath = ""
	c.workDir = ""
}

func (c *Coder) generate(ctx context.Context) (string, error) {
	c.ctx.CompactIfNeeded()

	req := agent.NewCompletionRequest(c.ctx.Messages())
	// Code generation wants determinism more than creativity.
	req.Temperature = 0.3

	resp, err := c.client.Complete(ctx, req)
	if err != nil {
		return "", fmt.Errorf("coder call failed: %w", err)
	}
	c.ctx.AddAssistantMessage(resp.Content)

	code := ExtractCodeFromMarkdown(resp.Content)
	return ReplacePaths(code, c.csvPaths, c.outputPath), nil
}

// writeScript saves the code under the generated-code directory as
// <name>_<timestamp>.py so every attempt is kept as an artifact.
func (c *Coder) writeScript(code string) (string, error) {
	if err := os.MkdirAll(c.codeDir, 0o755); err != nil {
		return "", fmt.Errorf("creating code dir: %w", err)
	}
	name := utils.SanitizeFilename(c.workflowName)
	if name == "" {
		name = "workflow"
	}
	path := filepath.Join(c.codeDir, fmt.Sprintf("%s_%s.py", name, time.Now().UTC().Format("20060102_150405")))
	if err := os.WriteFile(path, []byte(code), 0o644); err != nil {
		return "", fmt.Errorf("writing script: %w", err)
	}
	return path, nil
}

// validateOutput checks that the script actually produced the output file.
// Returns a problem description, or "" when the output is acceptable.
func (c *Coder) validateOutput() string {
	info, err := os.Stat(c.outputPath)
	if err != nil {
		return fmt.Sprintf("output file was not created at %s", c.outputPath)
	}
	if info.Size() == 0 {
		return fmt.Sprintf("output file %s is empty", c.outputPath)
	}
	return ""
}

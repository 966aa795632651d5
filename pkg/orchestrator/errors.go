package orchestrator

import (
	"errors"
	"fmt"

	"irabuilder/pkg/proto"
)

// Sentinel errors for errors.Is checks.
var (
	// ErrInvalidPhase is returned when a method is invoked from a phase it
	// does not accept. Caller error, never retried.
	ErrInvalidPhase = errors.New("invalid phase for operation")

	// ErrWorkflowTerminal is returned when any mutation is attempted on a
	// COMPLETED or FAILED workflow.
	ErrWorkflowTerminal = errors.New("workflow is in a terminal phase")
)

// InvalidPhaseError reports a method called from the wrong phase.
type InvalidPhaseError struct {
	Operation string
	Current   proto.Phase
	Expected  []proto.Phase
}

func (e *InvalidPhaseError) Error() string {
	return fmt.Sprintf("operation %s invalid in phase %s (expected %v)", e.Operation, e.Current, e.Expected)
}

// Is makes errors.Is(err, ErrInvalidPhase) work.
func (e *InvalidPhaseError) Is(target error) bool {
	return target == ErrInvalidPhase
}

// IterationLimitError reports an exhausted planner or coder budget.
type IterationLimitError struct {
	Kind    string // "planner_questions" or "coder_iterations"
	Limit   int
	Context string // accumulated failure context
}

func (e *IterationLimitError) Error() string {
	return fmt.Sprintf("%s budget of %d exhausted: %s", e.Kind, e.Limit, e.Context)
}

// RefinementLimitError reports an exhausted output refinement budget.
type RefinementLimitError struct {
	Limit int
}

func (e *RefinementLimitError) Error() string {
	return fmt.Sprintf("refinement budget of %d exhausted", e.Limit)
}

// AgentCallError wraps a failed LLM call. Transient; the caller may retry
// the whole operation with backoff.
type AgentCallError struct {
	Agent string
	Err   error
}

func (e *AgentCallError) Error() string {
	return fmt.Sprintf("%s agent call failed: %v", e.Agent, e.Err)
}

func (e *AgentCallError) Unwrap() error { return e.Err }

// ExecutionError reports that generated code failed or timed out after the
// retry budget was consumed.
type ExecutionError struct {
	Iterations int
	LastError  string
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("generated code failed after %d iterations: %s", e.Iterations, e.LastError)
}

// PersistenceError reports a failed state write. Fatal for the in-progress
// transition; the method must not report success with unsaved state.
type PersistenceError struct {
	WorkflowID string
	Err        error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to persist state for %s: %v", e.WorkflowID, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

package orchestrator

import "irabuilder/pkg/proto"

// Status is the outcome tag on every mutating operation's result. Callers
// branch on this, not on error values, for the expected failure modes.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Result is the structured return of every mutating orchestrator method.
type Result struct {
	Status  Status      `json:"status"`
	Phase   proto.Phase `json:"phase"`
	Reply   string      `json:"reply,omitempty"`
	Detail  string      `json:"detail,omitempty"`
	IsPlan  bool        `json:"is_plan,omitempty"`
	IsFinal bool        `json:"is_final,omitempty"`

	// QuestionsAsked, CodeIterations, and RefinementIterations snapshot the
	// bounded counters at return time.
	QuestionsAsked       int `json:"questions_asked"`
	CodeIterations       int `json:"code_iterations"`
	RefinementIterations int `json:"refinement_iterations"`

	// OutputPath is set once an execution produced a result artifact.
	OutputPath string `json:"output_path,omitempty"`
}

func successResult(phase proto.Phase) Result {
	return Result{Status: StatusSuccess, Phase: phase}
}

func errorResult(phase proto.Phase, detail string) Result {
	return Result{Status: StatusError, Phase: phase, Detail: detail}
}

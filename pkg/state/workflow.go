// Package state holds the persisted record of a workflow's progress and the
// JSON snapshot store that makes it resumable.
package state

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"irabuilder/pkg/proto"
)

// HistoryEntry is one turn of the shared conversation history.
type HistoryEntry struct {
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// PlanVersion is one version of the business logic plan. Overwrites append
// new versions; history is never discarded.
type PlanVersion struct {
	Version   int       `json:"version"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// CodeArtifact is one generated script with its filesystem location.
type CodeArtifact struct {
	Code      string    `json:"code"`
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"created_at"`
}

// RefinementEntry records one output refinement request.
type RefinementEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Feedback  string    `json:"feedback"`
	Iteration int       `json:"resulting_iteration"`
}

// WorkflowState is the persisted record of one workflow. All mutation goes
// through the orchestrator's transition logic.
type WorkflowState struct {
	WorkflowID  string      `json:"workflow_id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	CSVPaths    []string    `json:"csv_paths"`
	Phase       proto.Phase `json:"phase"`

	ConversationHistory []HistoryEntry `json:"conversation_history"`
	QuestionsAsked      int            `json:"questions_asked"`

	PlanVersions        []PlanVersion `json:"plan_versions,omitempty"`
	PlanRefinementCount int           `json:"plan_refinement_count"`

	CodeArtifacts      []CodeArtifact `json:"code_artifacts,omitempty"`
	CodeIterationCount int            `json:"code_iteration_count"`

	RefinementHistory        []RefinementEntry `json:"refinement_history,omitempty"`
	RefinementIterationCount int               `json:"refinement_iteration_count"`

	OutputPath string `json:"output_path,omitempty"`
	Error      string `json:"error,omitempty"`

	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewWorkflowState creates a fresh state in NOT_STARTED.
func NewWorkflowState(name, description string, csvPaths []string) *WorkflowState {
	now := time.Now().UTC()
	return &WorkflowState{
		WorkflowID:  fmt.Sprintf("wf_%s", uuid.NewString()[:12]),
		Name:        name,
		Description: description,
		CSVPaths:    append([]string{}, csvPaths...),
		Phase:       proto.PhaseNotStarted,
		StartedAt:   now,
		UpdatedAt:   now,
	}
}

// AppendHistory adds one conversation turn.
func (w *WorkflowState) AppendHistory(role, text string) {
	w.ConversationHistory = append(w.ConversationHistory, HistoryEntry{
		Role:      role,
		Text:      text,
		Timestamp: time.Now().UTC(),
	})
}

// SetPlan appends a new plan version and returns its number.
func (w *WorkflowState) SetPlan(text string) int {
	version := len(w.PlanVersions) + 1
	w.PlanVersions = append(w.PlanVersions, PlanVersion{
		Version:   version,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	})
	return version
}

// CurrentPlan returns the latest plan text, or "" when no plan exists yet.
func (w *WorkflowState) CurrentPlan() string {
	if len(w.PlanVersions) == 0 {
		return ""
	}
	return w.PlanVersions[len(w.PlanVersions)-1].Text
}

// AddCodeArtifact records a generated script. Earlier artifacts are retained
// for audit and rollback.
func (w *WorkflowState) AddCodeArtifact(code, path string) {
	w.CodeArtifacts = append(w.CodeArtifacts, CodeArtifact{
		Code:      code,
		Path:      path,
		CreatedAt: time.Now().UTC(),
	})
}

// CurrentCode returns the latest code artifact, or nil.
func (w *WorkflowState) CurrentCode() *CodeArtifact {
	if len(w.CodeArtifacts) == 0 {
		return nil
	}
	return &w.CodeArtifacts[len(w.CodeArtifacts)-1]
}

// AddRefinement records one refinement request.
func (w *WorkflowState) AddRefinement(feedback string, iteration int) {
	w.RefinementHistory = append(w.RefinementHistory, RefinementEntry{
		Timestamp: time.Now().UTC(),
		Feedback:  feedback,
		Iteration: iteration,
	})
}

// MarkCompleted finalizes the workflow at a terminal phase.
func (w *WorkflowState) MarkCompleted(phase proto.Phase) {
	now := time.Now().UTC()
	w.Phase = phase
	w.CompletedAt = &now
}

// Clone returns a deep copy, used for snapshot views that must not alias
// live state.
func (w *WorkflowState) Clone() *WorkflowState {
	out := *w
	out.CSVPaths = append([]string{}, w.CSVPaths...)
	out.ConversationHistory = append([]HistoryEntry{}, w.ConversationHistory...)
	out.PlanVersions = append([]PlanVersion{}, w.PlanVersions...)
	out.CodeArtifacts = append([]CodeArtifact{}, w.CodeArtifacts...)
	out.RefinementHistory = append([]RefinementEntry{}, w.RefinementHistory...)
	if w.CompletedAt != nil {
		t := *w.CompletedAt
		out.CompletedAt = &t
	}
	return &out
}

// PlannerView is a compact summary of the interview so far.
type PlannerView struct {
	QuestionsAsked     int    `json:"questions_asked"`
	PlanVersions       int    `json:"plan_versions"`
	PlanRefinements    int    `json:"plan_refinements"`
	HasPlan            bool   `json:"has_plan"`
	LastAssistantReply string `json:"last_assistant_reply,omitempty"`
}

// CoderView is a compact summary of code generation progress.
type CoderView struct {
	Iterations int    `json:"iterations"`
	Artifacts  int    `json:"artifacts"`
	ScriptPath string `json:"script_path,omitempty"`
	LastError  string `json:"last_error,omitempty"`
}

// ReviewView is a compact summary of output review progress.
type ReviewView struct {
	Refinements  int    `json:"refinements"`
	LastFeedback string `json:"last_feedback,omitempty"`
	OutputPath   string `json:"output_path,omitempty"`
}

// PlannerSummary builds the interview view.
func (w *WorkflowState) PlannerSummary() PlannerView {
	v := PlannerView{
		QuestionsAsked:  w.QuestionsAsked,
		PlanVersions:    len(w.PlanVersions),
		PlanRefinements: w.PlanRefinementCount,
		HasPlan:         w.CurrentPlan() != "",
	}
	for i := len(w.ConversationHistory) - 1; i >= 0; i-- {
		if w.ConversationHistory[i].Role == proto.RoleAssistant {
			v.LastAssistantReply = w.ConversationHistory[i].Text
			break
		}
	}
	return v
}

// CoderSummary builds the code generation view.
func (w *WorkflowState) CoderSummary() CoderView {
	v := CoderView{
		Iterations: w.CodeIterationCount,
		Artifacts:  len(w.CodeArtifacts),
		LastError:  w.Error,
	}
	if artifact := w.CurrentCode(); artifact != nil {
		v.ScriptPath = artifact.Path
	}
	return v
}

// ReviewSummary builds the output review view.
func (w *WorkflowState) ReviewSummary() ReviewView {
	v := ReviewView{
		Refinements: w.RefinementIterationCount,
		OutputPath:  w.OutputPath,
	}
	if n := len(w.RefinementHistory); n > 0 {
		v.LastFeedback = w.RefinementHistory[n-1].Feedback
	}
	return v
}

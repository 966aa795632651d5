// Package proto defines the shared vocabulary of the workflow builder: the
// phase state machine, agent reply variants, and the workflow event stream.
package proto

import "fmt"

// Phase represents a state in the workflow lifecycle.
type Phase string

// Workflow phases. The cycle OUTPUT_REVIEW -> CODING -> OUTPUT_REVIEW is the
// output refinement loop; PLAN_REVIEW -> PLANNING re-enters the interview.
const (
	PhaseNotStarted   Phase = "NOT_STARTED"
	PhasePlanning     Phase = "PLANNING"
	PhasePlanReview   Phase = "PLAN_REVIEW"
	PhaseCoding       Phase = "CODING"
	PhaseOutputReview Phase = "OUTPUT_REVIEW"
	PhaseCompleted    Phase = "COMPLETED"
	PhaseFailed       Phase = "FAILED"
)

// String returns the string representation of the phase.
func (p Phase) String() string {
	return string(p)
}

// IsTerminal reports whether the phase has no outgoing transitions.
func (p Phase) IsTerminal() bool {
	return p == PhaseCompleted || p == PhaseFailed
}

// ValidPhases returns all phases in lifecycle order.
func ValidPhases() []Phase {
	return []Phase{
		PhaseNotStarted, PhasePlanning, PhasePlanReview,
		PhaseCoding, PhaseOutputReview, PhaseCompleted, PhaseFailed,
	}
}

// ParsePhase validates a string as a Phase.
func ParsePhase(s string) (Phase, error) {
	p := Phase(s)
	for _, valid := range ValidPhases() {
		if p == valid {
			return p, nil
		}
	}
	return "", fmt.Errorf("invalid workflow phase: %s", s)
}

// phaseTransitions is the canonical transition map for the workflow state
// machine. Any code or test that reasons about transitions must match this
// table exactly.
//
//nolint:gochecknoglobals // single source of truth for transition legality
var phaseTransitions = map[Phase][]Phase{
	// NOT_STARTED begins planning via Start, or fails if the first planner call errors.
	PhaseNotStarted: {PhasePlanning, PhaseFailed},

	// PLANNING moves to PLAN_REVIEW once the planner produces a plan, or FAILED
	// when the planner itself is unrecoverable.
	PhasePlanning: {PhasePlanReview, PhaseFailed},

	// PLAN_REVIEW approves into CODING, or re-enters PLANNING for plan refinement.
	PhasePlanReview: {PhaseCoding, PhasePlanning, PhaseFailed},

	// CODING succeeds into OUTPUT_REVIEW or exhausts its budget into FAILED.
	PhaseCoding: {PhaseOutputReview, PhaseFailed},

	// OUTPUT_REVIEW approves into COMPLETED or re-enters CODING for refinement.
	PhaseOutputReview: {PhaseCompleted, PhaseCoding, PhaseFailed},

	// COMPLETED and FAILED are terminal.
	PhaseCompleted: {},
	PhaseFailed:    {},
}

// ValidNextPhases returns the allowed next phases for the given phase.
func ValidNextPhases(from Phase) []Phase {
	return phaseTransitions[from]
}

// IsValidTransition checks whether from -> to is a legal phase transition.
func IsValidTransition(from, to Phase) bool {
	for _, allowed := range phaseTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

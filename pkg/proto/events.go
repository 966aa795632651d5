package proto

import (
	"time"

	"github.com/google/uuid"
)

// EventType identifies a workflow event on the observer stream.
type EventType string

const (
	EventPhaseChange  EventType = "phase_change"
	EventPlannerReply EventType = "planner_reply"
	EventCoderAttempt EventType = "coder_attempt"
	EventRefinement   EventType = "refinement"
	EventCompleted    EventType = "completed"
	EventFailed       EventType = "failed"
)

// WorkflowEvent is published to subscribers on every observable step.
// Events replace the original callback-injection design: any number of
// consumers can subscribe without the orchestrator knowing about them.
type WorkflowEvent struct {
	ID         string         `json:"id"`
	WorkflowID string         `json:"workflow_id"`
	Type       EventType      `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	FromPhase  Phase          `json:"from_phase,omitempty"`
	ToPhase    Phase          `json:"to_phase,omitempty"`
	Detail     string         `json:"detail,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// NewWorkflowEvent creates an event with a fresh ID and UTC timestamp.
func NewWorkflowEvent(workflowID string, eventType EventType) *WorkflowEvent {
	return &WorkflowEvent{
		ID:         uuid.New().String(),
		WorkflowID: workflowID,
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
	}
}

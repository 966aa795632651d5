package proto

// ReplyType classifies an agent's free-text reply. The orchestrator branches
// only on this variant, never on the text itself; classification happens at
// the agent boundary through a pluggable Classifier.
type ReplyType string

const (
	// ReplyQuestion is a planner question that needs a user answer.
	ReplyQuestion ReplyType = "question"

	// ReplyPlanReady is a finished business logic plan.
	ReplyPlanReady ReplyType = "plan_ready"

	// ReplyCodeReady is generated code ready for execution.
	ReplyCodeReady ReplyType = "code_ready"

	// ReplyClarification is an acknowledgment or commentary that advances
	// neither the interview nor the plan.
	ReplyClarification ReplyType = "clarification"

	// ReplyError marks an agent reply that could not be used.
	ReplyError ReplyType = "error"
)

// AgentReply is the tagged result of one agent call.
type AgentReply struct {
	Text string    `json:"text"`
	Type ReplyType `json:"type"`
}

// Conversation roles recorded in workflow history.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

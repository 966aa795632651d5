// Package contextmgr maintains an agent's conversation history and keeps it
// within the model context window.
package contextmgr

import (
	"strings"

	"irabuilder/pkg/agent"
	"irabuilder/pkg/utils"
)

// Default compaction bounds for models without explicit limits.
const (
	defaultMaxContextTokens = 100000
	defaultReplyReserve     = 8192
)

// ContextManager accumulates role/content messages for one agent and
// compacts the history when it approaches the context window.
type ContextManager struct {
	messages         []agent.CompletionMessage
	counter          *utils.TokenCounter
	maxContextTokens int
	replyReserve     int
}

// NewContextManager creates a manager with default window bounds.
func NewContextManager() *ContextManager {
	// A nil counter falls back to character-based estimation.
	counter, _ := utils.NewTokenCounter("gpt-4")
	return &ContextManager{
		counter:          counter,
		maxContextTokens: defaultMaxContextTokens,
		replyReserve:     defaultReplyReserve,
	}
}

// NewContextManagerWithLimits creates a manager with explicit window bounds.
func NewContextManagerWithLimits(maxContextTokens, replyReserve int) *ContextManager {
	cm := NewContextManager()
	if maxContextTokens > 0 {
		cm.maxContextTokens = maxContextTokens
	}
	if replyReserve > 0 {
		cm.replyReserve = replyReserve
	}
	return cm
}

// AddMessage appends a role/content pair to the history.
func (cm *ContextManager) AddMessage(role agent.CompletionRole, content string) {
	cm.messages = append(cm.messages, agent.CompletionMessage{Role: role, Content: content})
}

// AddUserMessage appends a user message.
func (cm *ContextManager) AddUserMessage(content string) {
	cm.AddMessage(agent.RoleUser, content)
}

// AddAssistantMessage appends an assistant message.
func (cm *ContextManager) AddAssistantMessage(content string) {
	cm.AddMessage(agent.RoleAssistant, content)
}

// CountTokens returns the token count of the current history.
func (cm *ContextManager) CountTokens() int {
	total := 0
	for i := range cm.messages {
		total += cm.counter.CountTokens(cm.messages[i].Content) + 4
	}
	return total
}

// CompactIfNeeded drops old messages when the history plus a reply no longer
// fits the window. The leading system message, if any, always survives.
func (cm *ContextManager) CompactIfNeeded() {
	target := cm.maxContextTokens - cm.replyReserve
	if cm.CountTokens() <= target {
		return
	}

	keepSystem := len(cm.messages) > 0 && cm.messages[0].Role == agent.RoleSystem
	for cm.CountTokens() > target && len(cm.messages) > 1 {
		if keepSystem {
			if len(cm.messages) == 2 {
				// Only the system message and the latest turn remain;
				// neither is droppable.
				break
			}
			cm.messages = append(cm.messages[:1], cm.messages[2:]...)
		} else {
			cm.messages = cm.messages[1:]
		}
	}
}

// Messages returns a copy of the history.
func (cm *ContextManager) Messages() []agent.CompletionMessage {
	out := make([]agent.CompletionMessage, len(cm.messages))
	copy(out, cm.messages)
	return out
}

// Len returns the number of messages in the history.
func (cm *ContextManager) Len() int {
	return len(cm.messages)
}

// Clear discards the entire history.
func (cm *ContextManager) Clear() {
	cm.messages = nil
}

// Transcript renders the history as plain text, one "role: content" line per
// message, for persistence and debugging.
func (cm *ContextManager) Transcript() string {
	var sb strings.Builder
	for i := range cm.messages {
		sb.WriteString(string(cm.messages[i].Role))
		sb.WriteString(": ")
		sb.WriteString(cm.messages[i].Content)
		sb.WriteString("\n")
	}
	return sb.String()
}

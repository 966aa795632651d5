package contextmgr

import (
	"strings"
	"testing"

	"irabuilder/pkg/agent"
)

func TestAddAndRetrieveMessages(t *testing.T) {
	cm := NewContextManager()
	cm.AddMessage(agent.RoleSystem, "you are a planner")
	cm.AddUserMessage("analyze this dataset")
	cm.AddAssistantMessage("what is the target column?")

	msgs := cm.Messages()
	if len(msgs) != 3 {
		t.Fatalf("got %d messages, want 3", len(msgs))
	}
	if msgs[0].Role != agent.RoleSystem || msgs[2].Role != agent.RoleAssistant {
		t.Error("roles not preserved in order")
	}

	// Mutating the returned slice must not affect the manager.
	msgs[0].Content = "tampered"
	if cm.Messages()[0].Content != "you are a planner" {
		t.Error("Messages should return a copy")
	}
}

func TestCountTokensGrowsWithContent(t *testing.T) {
	cm := NewContextManager()
	before := cm.CountTokens()
	cm.AddUserMessage(strings.Repeat("data analysis workflow for the quarterly report ", 20))
	if cm.CountTokens() <= before {
		t.Error("token count should grow after adding content")
	}
}

func TestCompactKeepsSystemMessage(t *testing.T) {
	cm := NewContextManagerWithLimits(200, 50)
	cm.AddMessage(agent.RoleSystem, "system prompt")
	for i := 0; i < 30; i++ {
		cm.AddUserMessage(strings.Repeat("filler content about csv columns ", 10))
	}

	cm.CompactIfNeeded()

	msgs := cm.Messages()
	if len(msgs) >= 31 {
		t.Fatal("compaction should have dropped messages")
	}
	if msgs[0].Role != agent.RoleSystem {
		t.Errorf("first message after compaction is %s, want system", msgs[0].Role)
	}
}

func TestCompactIsNoOpUnderThreshold(t *testing.T) {
	cm := NewContextManager()
	cm.AddUserMessage("short")
	cm.CompactIfNeeded()
	if cm.Len() != 1 {
		t.Errorf("got %d messages, want 1", cm.Len())
	}
}

func TestTranscript(t *testing.T) {
	cm := NewContextManager()
	cm.AddUserMessage("hello")
	cm.AddAssistantMessage("hi there")

	got := cm.Transcript()
	if !strings.Contains(got, "user: hello") || !strings.Contains(got, "assistant: hi there") {
		t.Errorf("transcript missing lines: %q", got)
	}
}

func TestClear(t *testing.T) {
	cm := NewContextManager()
	cm.AddUserMessage("something")
	cm.Clear()
	if cm.Len() != 0 {
		t.Error("Clear should drop all messages")
	}
}

func TestCompactKeepsSystemWithSingleOversizedTurn(t *testing.T) {
	cm := NewContextManagerWithLimits(100, 20)
	cm.AddMessage(agent.RoleSystem, "system prompt")
	cm.AddUserMessage(strings.Repeat("oversized turn content ", 50))

	cm.CompactIfNeeded()

	msgs := cm.Messages()
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want both to survive", len(msgs))
	}
	if msgs[0].Role != agent.RoleSystem {
		t.Errorf("first message after compaction is %s, want system", msgs[0].Role)
	}
}

package planner

import (
	"context"
	"strings"
	"testing"

	"irabuilder/pkg/agent"
	"irabuilder/pkg/proto"
)

const planDoc = "# Business Logic Plan\n\n## **Workflow Purpose**\nFlag invoices posted after period close."

func TestInterviewFlow(t *testing.T) {
	mock := agent.NewMockLLMClient(agent.TextResponses(
		"Which column holds the posting date?\n\nPlease select one option:\na) posting_date\nb) doc_date",
		planDoc,
	), nil)
	p := New(mock, 10)

	first, err := p.Initialize(context.Background(), "Late postings", "find late postings", nil)
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if first.Type != proto.ReplyQuestion {
		t.Errorf("first reply type = %s, want question", first.Type)
	}

	second, err := p.Answer(context.Background(), "a) posting_date")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if second.Type != proto.ReplyPlanReady {
		t.Errorf("second reply type = %s, want plan_ready", second.Type)
	}
	if second.Text != planDoc {
		t.Errorf("plan text = %q", second.Text)
	}
}

func TestInitializeSeedsSystemAndContext(t *testing.T) {
	mock := agent.NewMockLLMClient(agent.TextResponses("What is the goal?"), nil)
	p := New(mock, 7)

	if _, err := p.Initialize(context.Background(), "wf", "describe things", nil); err != nil {
		t.Fatal(err)
	}

	calls := mock.Calls()
	if len(calls) != 1 {
		t.Fatalf("got %d calls", len(calls))
	}
	msgs := calls[0].Messages
	if msgs[0].Role != agent.RoleSystem {
		t.Error("first message should be the system prompt")
	}
	seed := msgs[1].Content
	for _, want := range []string{"Workflow name: wf", "describe things", "up to 7"} {
		if !strings.Contains(seed, want) {
			t.Errorf("seed prompt missing %q", want)
		}
	}
}

func TestGeneratePlanForcesPlanType(t *testing.T) {
	// The reply lacks plan markers; forced generation classifies it as a plan anyway.
	mock := agent.NewMockLLMClient(agent.TextResponses("q?", "freeform text without headings"), nil)
	p := New(mock, 10)

	if _, err := p.Initialize(context.Background(), "wf", "d", nil); err != nil {
		t.Fatal(err)
	}
	reply, err := p.GeneratePlan(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if reply.Type != proto.ReplyPlanReady {
		t.Errorf("forced plan type = %s, want plan_ready", reply.Type)
	}
}

func TestRefineCarriesFeedback(t *testing.T) {
	mock := agent.NewMockLLMClient(agent.TextResponses("q?", planDoc, planDoc+"\nv2"), nil)
	p := New(mock, 10)

	if _, err := p.Initialize(context.Background(), "wf", "d", nil); err != nil {
		t.Fatal(err)
	}
	if _, err := p.GeneratePlan(context.Background()); err != nil {
		t.Fatal(err)
	}
	reply, err := p.Refine(context.Background(), "also compare net amounts")
	if err != nil {
		t.Fatal(err)
	}
	if reply.Type != proto.ReplyPlanReady {
		t.Errorf("refined reply type = %s", reply.Type)
	}

	calls := mock.Calls()
	last := calls[len(calls)-1].Messages
	if !strings.Contains(last[len(last)-1].Content, "also compare net amounts") {
		t.Error("refine prompt should carry the feedback text")
	}
}

func TestPlannerErrorPropagates(t *testing.T) {
	mock := agent.NewMockLLMClient(nil, []error{agent.NewError(agent.ErrorTypeAuth, "401")})
	p := New(mock, 10)

	if _, err := p.Initialize(context.Background(), "wf", "d", nil); err == nil {
		t.Error("expected error from failing client")
	}
}

func TestSetClassifierOverridesDefault(t *testing.T) {
	mock := agent.NewMockLLMClient(agent.TextResponses("anything at all"), nil)
	p := New(mock, 10)
	p.SetClassifier(func(string) proto.ReplyType { return proto.ReplyPlanReady })

	reply, err := p.Initialize(context.Background(), "wf", "desc", nil)
	if err != nil {
		t.Fatal(err)
	}
	if reply.Type != proto.ReplyPlanReady {
		t.Errorf("reply type = %s, want plan_ready from custom classifier", reply.Type)
	}

	p.SetClassifier(nil)
	if p.classify == nil {
		t.Error("nil classifier must restore the default")
	}
}

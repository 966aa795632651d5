package state

import (
	"strings"
	"testing"

	"irabuilder/pkg/proto"
)

func TestNewWorkflowState(t *testing.T) {
	w := NewWorkflowState("Sales Check", "flag late postings", []string{"/data/a.csv"})

	if !strings.HasPrefix(w.WorkflowID, "wf_") {
		t.Errorf("workflow id = %q", w.WorkflowID)
	}
	if w.Phase != proto.PhaseNotStarted {
		t.Errorf("phase = %s, want NOT_STARTED", w.Phase)
	}
	if w.StartedAt.IsZero() {
		t.Error("started_at should be set")
	}
	if w.CompletedAt != nil {
		t.Error("completed_at should be unset")
	}
}

func TestPlanVersionsAccumulate(t *testing.T) {
	w := NewWorkflowState("wf", "", nil)

	if w.CurrentPlan() != "" {
		t.Error("no plan yet")
	}
	if v := w.SetPlan("plan v1"); v != 1 {
		t.Errorf("first version = %d", v)
	}
	if v := w.SetPlan("plan v2"); v != 2 {
		t.Errorf("second version = %d", v)
	}
	if w.CurrentPlan() != "plan v2" {
		t.Errorf("current plan = %q", w.CurrentPlan())
	}
	if len(w.PlanVersions) != 2 {
		t.Error("plan history must retain all versions")
	}
}

func TestCodeArtifactsRetained(t *testing.T) {
	w := NewWorkflowState("wf", "", nil)
	w.AddCodeArtifact("print(1)", "/code/a.py")
	w.AddCodeArtifact("print(2)", "/code/b.py")

	current := w.CurrentCode()
	if current == nil || current.Path != "/code/b.py" {
		t.Errorf("current code = %+v", current)
	}
	if len(w.CodeArtifacts) != 2 {
		t.Error("previous artifacts must be retained")
	}
}

func TestCloneIsDeep(t *testing.T) {
	w := NewWorkflowState("wf", "", []string{"/a.csv"})
	w.AppendHistory(proto.RoleUser, "hello")
	w.SetPlan("plan")

	clone := w.Clone()
	clone.ConversationHistory[0].Text = "tampered"
	clone.PlanVersions[0].Text = "tampered"
	clone.CSVPaths[0] = "tampered"

	if w.ConversationHistory[0].Text != "hello" || w.CurrentPlan() != "plan" || w.CSVPaths[0] != "/a.csv" {
		t.Error("clone must not alias the original")
	}
}

func TestStoreRoundTrip(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	w := NewWorkflowState("Sales Check", "desc", []string{"/data/a.csv"})
	w.Phase = proto.PhasePlanning
	w.AppendHistory(proto.RoleUser, "start")
	w.QuestionsAsked = 2
	w.SetPlan("the plan")
	w.AddCodeArtifact("print(1)", "/code/a.py")
	w.AddRefinement("tighten filter", 1)
	w.RefinementIterationCount = 1
	w.CodeIterationCount = 3

	if err := store.Save(w); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Load(w.WorkflowID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Phase != proto.PhasePlanning {
		t.Errorf("phase = %s", got.Phase)
	}
	if got.QuestionsAsked != 2 || got.CodeIterationCount != 3 || got.RefinementIterationCount != 1 {
		t.Errorf("counters lost: %+v", got)
	}
	if got.CurrentPlan() != "the plan" {
		t.Errorf("plan = %q", got.CurrentPlan())
	}
	if len(got.ConversationHistory) != 1 || len(got.RefinementHistory) != 1 {
		t.Error("history lost in round trip")
	}
}

func TestStoreListAndDelete(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	a := NewWorkflowState("a", "", nil)
	b := NewWorkflowState("b", "", nil)
	for _, w := range []*WorkflowState{a, b} {
		if err := store.Save(w); err != nil {
			t.Fatal(err)
		}
	}

	ids, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 {
		t.Fatalf("ids = %v", ids)
	}

	if err := store.Delete(a.WorkflowID); err != nil {
		t.Fatal(err)
	}
	ids, _ = store.List()
	if len(ids) != 1 || ids[0] != b.WorkflowID {
		t.Errorf("after delete: %v", ids)
	}
}

func TestStoreLoadMissing(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.Load("wf_missing"); err == nil {
		t.Error("expected error for missing snapshot")
	}
}

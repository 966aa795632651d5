package persistence

import (
	"path/filepath"
	"testing"

	"irabuilder/pkg/proto"
	"irabuilder/pkg/state"
)

func newTestOps(t *testing.T) *DatabaseOperations {
	t.Helper()
	db, err := InitializeDatabase(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("InitializeDatabase: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewDatabaseOperations(db)
}

func TestUpsertWorkflowAndPhaseCounts(t *testing.T) {
	ops := newTestOps(t)

	w := state.NewWorkflowState("Sales Check", "desc", nil)
	w.Phase = proto.PhasePlanning
	if err := ops.UpsertWorkflow(w); err != nil {
		t.Fatal(err)
	}

	// Second upsert updates phase in place.
	w.Phase = proto.PhaseCoding
	if err := ops.UpsertWorkflow(w); err != nil {
		t.Fatal(err)
	}

	counts, err := ops.CountWorkflowsByPhase()
	if err != nil {
		t.Fatal(err)
	}
	if counts[proto.PhaseCoding] != 1 || counts[proto.PhasePlanning] != 0 {
		t.Errorf("counts = %v", counts)
	}
}

func TestTransitionTrail(t *testing.T) {
	ops := newTestOps(t)

	w := state.NewWorkflowState("wf", "", nil)
	if err := ops.UpsertWorkflow(w); err != nil {
		t.Fatal(err)
	}
	steps := []struct{ from, to proto.Phase }{
		{proto.PhaseNotStarted, proto.PhasePlanning},
		{proto.PhasePlanning, proto.PhasePlanReview},
		{proto.PhasePlanReview, proto.PhaseCoding},
	}
	for _, s := range steps {
		if err := ops.RecordTransition(w.WorkflowID, s.from, s.to, ""); err != nil {
			t.Fatal(err)
		}
	}

	trail, err := ops.GetTransitions(w.WorkflowID)
	if err != nil {
		t.Fatal(err)
	}
	if len(trail) != 3 {
		t.Fatalf("trail length = %d", len(trail))
	}
	for i, s := range steps {
		if trail[i].FromPhase != s.from || trail[i].ToPhase != s.to {
			t.Errorf("step %d: %s -> %s", i, trail[i].FromPhase, trail[i].ToPhase)
		}
	}
}

func TestArtifactAndRefinementLogs(t *testing.T) {
	ops := newTestOps(t)

	w := state.NewWorkflowState("wf", "", nil)
	if err := ops.UpsertWorkflow(w); err != nil {
		t.Fatal(err)
	}
	if err := ops.RecordArtifact(w.WorkflowID, 1, "/code/a.py", false); err != nil {
		t.Fatal(err)
	}
	if err := ops.RecordArtifact(w.WorkflowID, 2, "/code/b.py", true); err != nil {
		t.Fatal(err)
	}
	if err := ops.RecordRefinement(w.WorkflowID, 1, "tighten filter"); err != nil {
		t.Fatal(err)
	}

	artifacts, err := ops.GetArtifacts(w.WorkflowID)
	if err != nil {
		t.Fatal(err)
	}
	if len(artifacts) != 2 {
		t.Fatalf("artifacts = %d", len(artifacts))
	}
	if artifacts[0].Succeeded || !artifacts[1].Succeeded {
		t.Error("succeeded flags wrong")
	}
}

func TestInitializeDatabaseIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")
	db1, err := InitializeDatabase(path)
	if err != nil {
		t.Fatal(err)
	}
	_ = db1.Close()

	db2, err := InitializeDatabase(path)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	_ = db2.Close()
}

package persistence

import (
	"database/sql"
	"fmt"
	"time"

	"irabuilder/pkg/proto"
	"irabuilder/pkg/state"
)

// TransitionRecord is one row of the phase transition audit trail.
type TransitionRecord struct {
	ID         int64
	WorkflowID string
	FromPhase  proto.Phase
	ToPhase    proto.Phase
	Detail     string
	CreatedAt  time.Time
}

// ArtifactRecord is one row of the code artifact log.
type ArtifactRecord struct {
	ID         int64
	WorkflowID string
	Iteration  int
	Path       string
	Succeeded  bool
	CreatedAt  time.Time
}

// DatabaseOperations provides the audit queries and writes.
type DatabaseOperations struct {
	db *sql.DB
}

// NewDatabaseOperations wraps a database handle.
func NewDatabaseOperations(db *sql.DB) *DatabaseOperations {
	return &DatabaseOperations{db: db}
}

// UpsertWorkflow inserts or updates the workflow row from a state snapshot.
func (ops *DatabaseOperations) UpsertWorkflow(w *state.WorkflowState) error {
	var completedAt any
	if w.CompletedAt != nil {
		completedAt = w.CompletedAt.UTC()
	}
	_, err := ops.db.Exec(`
		INSERT INTO workflows (workflow_id, name, description, phase, error, started_at, completed_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(workflow_id) DO UPDATE SET
			phase = excluded.phase,
			error = excluded.error,
			completed_at = excluded.completed_at,
			updated_at = excluded.updated_at`,
		w.WorkflowID, w.Name, w.Description, string(w.Phase), w.Error,
		w.StartedAt.UTC(), completedAt, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert workflow %s: %w", w.WorkflowID, err)
	}
	return nil
}

// RecordTransition appends one phase transition to the audit trail.
func (ops *DatabaseOperations) RecordTransition(workflowID string, from, to proto.Phase, detail string) error {
	_, err := ops.db.Exec(`
		INSERT INTO transitions (workflow_id, from_phase, to_phase, detail, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		workflowID, string(from), string(to), detail, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record transition for %s: %w", workflowID, err)
	}
	return nil
}

// RecordArtifact logs one generated script attempt.
func (ops *DatabaseOperations) RecordArtifact(workflowID string, iteration int, path string, succeeded bool) error {
	_, err := ops.db.Exec(`
		INSERT INTO code_artifacts (workflow_id, iteration, path, succeeded, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		workflowID, iteration, path, succeeded, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record artifact for %s: %w", workflowID, err)
	}
	return nil
}

// RecordRefinement logs one output refinement request.
func (ops *DatabaseOperations) RecordRefinement(workflowID string, iteration int, feedback string) error {
	_, err := ops.db.Exec(`
		INSERT INTO refinements (workflow_id, iteration, feedback, created_at)
		VALUES (?, ?, ?, ?)`,
		workflowID, iteration, feedback, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record refinement for %s: %w", workflowID, err)
	}
	return nil
}

// GetTransitions returns the transition trail for a workflow in order.
func (ops *DatabaseOperations) GetTransitions(workflowID string) ([]*TransitionRecord, error) {
	rows, err := ops.db.Query(`
		SELECT id, workflow_id, from_phase, to_phase, detail, created_at
		FROM transitions WHERE workflow_id = ? ORDER BY id`, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transitions for %s: %w", workflowID, err)
	}
	defer func() { _ = rows.Close() }()

	var out []*TransitionRecord
	for rows.Next() {
		var r TransitionRecord
		var from, to string
		if err := rows.Scan(&r.ID, &r.WorkflowID, &from, &to, &r.Detail, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transition: %w", err)
		}
		r.FromPhase = proto.Phase(from)
		r.ToPhase = proto.Phase(to)
		out = append(out, &r)
	}
	return out, rows.Err()
}

// GetArtifacts returns the artifact log for a workflow in order.
func (ops *DatabaseOperations) GetArtifacts(workflowID string) ([]*ArtifactRecord, error) {
	rows, err := ops.db.Query(`
		SELECT id, workflow_id, iteration, path, succeeded, created_at
		FROM code_artifacts WHERE workflow_id = ? ORDER BY id`, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to query artifacts for %s: %w", workflowID, err)
	}
	defer func() { _ = rows.Close() }()

	var out []*ArtifactRecord
	for rows.Next() {
		var r ArtifactRecord
		if err := rows.Scan(&r.ID, &r.WorkflowID, &r.Iteration, &r.Path, &r.Succeeded, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan artifact: %w", err)
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

// CountWorkflowsByPhase returns how many workflows sit in each phase.
func (ops *DatabaseOperations) CountWorkflowsByPhase() (map[proto.Phase]int, error) {
	rows, err := ops.db.Query(`SELECT phase, COUNT(*) FROM workflows GROUP BY phase`)
	if err != nil {
		return nil, fmt.Errorf("failed to count workflows: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[proto.Phase]int)
	for rows.Next() {
		var phase string
		var n int
		if err := rows.Scan(&phase, &n); err != nil {
			return nil, fmt.Errorf("failed to scan phase count: %w", err)
		}
		out[proto.Phase(phase)] = n
	}
	return out, rows.Err()
}

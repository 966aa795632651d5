package persistence

import (
	"database/sql"
	"fmt"
)

const schemaSQL = `
CREATE TABLE schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE workflows (
	workflow_id   TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	description   TEXT NOT NULL DEFAULT '',
	phase         TEXT NOT NULL,
	error         TEXT NOT NULL DEFAULT '',
	started_at    TIMESTAMP NOT NULL,
	completed_at  TIMESTAMP,
	updated_at    TIMESTAMP NOT NULL
);

CREATE TABLE transitions (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	workflow_id  TEXT NOT NULL REFERENCES workflows(workflow_id),
	from_phase   TEXT NOT NULL,
	to_phase     TEXT NOT NULL,
	detail       TEXT NOT NULL DEFAULT '',
	created_at   TIMESTAMP NOT NULL
);
CREATE INDEX idx_transitions_workflow ON transitions(workflow_id);

CREATE TABLE code_artifacts (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	workflow_id  TEXT NOT NULL REFERENCES workflows(workflow_id),
	iteration    INTEGER NOT NULL,
	path         TEXT NOT NULL,
	succeeded    INTEGER NOT NULL DEFAULT 0,
	created_at   TIMESTAMP NOT NULL
);
CREATE INDEX idx_artifacts_workflow ON code_artifacts(workflow_id);

CREATE TABLE refinements (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	workflow_id  TEXT NOT NULL REFERENCES workflows(workflow_id),
	iteration    INTEGER NOT NULL,
	feedback     TEXT NOT NULL,
	created_at   TIMESTAMP NOT NULL
);
CREATE INDEX idx_refinements_workflow ON refinements(workflow_id);
`

func createSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin schema transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	if _, err := tx.Exec(`INSERT INTO schema_version (version) VALUES (?)`, CurrentSchemaVersion); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}
	return tx.Commit()
}

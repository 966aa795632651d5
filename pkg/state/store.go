package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"irabuilder/pkg/logx"
	"irabuilder/pkg/utils"
)

// Store persists workflow state snapshots as one JSON document per workflow
// under a state directory. Writes go through a temp file plus rename so a
// crash mid-write never leaves a truncated snapshot.
type Store struct {
	baseDir string
	logger  *logx.Logger
}

// NewStore creates a snapshot store rooted at baseDir.
func NewStore(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create state directory %s: %w", baseDir, err)
	}
	return &Store{
		baseDir: baseDir,
		logger:  logx.NewLogger("state-store"),
	}, nil
}

// Save writes the workflow snapshot to disk.
func (s *Store) Save(w *WorkflowState) error {
	if w == nil || w.WorkflowID == "" {
		return fmt.Errorf("workflow state must have an id")
	}

	data, err := json.MarshalIndent(w, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state for %s: %w", w.WorkflowID, err)
	}

	path := s.snapshotPath(w.WorkflowID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write state file for %s: %w", w.WorkflowID, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to commit state file for %s: %w", w.WorkflowID, err)
	}

	s.logger.Debug("saved snapshot for %s at phase %s", w.WorkflowID, w.Phase)
	return nil
}

// Load reads a workflow snapshot by id.
func (s *Store) Load(workflowID string) (*WorkflowState, error) {
	if workflowID == "" {
		return nil, fmt.Errorf("workflow id cannot be empty")
	}

	data, err := os.ReadFile(s.snapshotPath(workflowID))
	if err != nil {
		return nil, fmt.Errorf("failed to read state file for %s: %w", workflowID, err)
	}

	var w WorkflowState
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state for %s: %w", workflowID, err)
	}
	return &w, nil
}

// List returns the ids of all stored workflows, sorted.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list state directory: %w", err)
	}

	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(ids)
	return ids, nil
}

// Delete removes a workflow snapshot.
func (s *Store) Delete(workflowID string) error {
	if err := os.Remove(s.snapshotPath(workflowID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete state file for %s: %w", workflowID, err)
	}
	return nil
}

func (s *Store) snapshotPath(workflowID string) string {
	return filepath.Join(s.baseDir, utils.SanitizeFilename(workflowID)+".json")
}

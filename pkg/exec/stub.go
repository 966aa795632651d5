package exec

import (
	"context"
	"sync"
)

// StubExec returns scripted results in call order. Used by agent and
// orchestrator tests to simulate script runs without an interpreter.
type StubExec struct {
	mu      sync.Mutex
	results []Result
	index   int
	calls   [][]string
}

// NewStubExec creates a stub that replays the given results. Calls past the
// end repeat the last result.
func NewStubExec(results ...Result) *StubExec {
	return &StubExec{results: results}
}

// Run implements Executor.
func (s *StubExec) Run(_ context.Context, cmd []string, _ Opts) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, append([]string{}, cmd...))
	if len(s.results) == 0 {
		return Result{}, nil
	}
	result := s.results[s.index]
	if s.index < len(s.results)-1 {
		s.index++
	}
	return result, nil
}

// Name implements Executor.
func (s *StubExec) Name() string { return "stub" }

// Available implements Executor.
func (s *StubExec) Available() bool { return true }

// Calls returns a copy of all commands run so far.
func (s *StubExec) Calls() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]string, len(s.calls))
	copy(out, s.calls)
	return out
}

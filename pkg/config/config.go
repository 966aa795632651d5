// Package config provides configuration loading and validation for the
// workflow builder.
//
// Configuration is an explicit struct handed to constructors, never ambient
// environment lookups scattered through the code. A single JSON file under
// the storage root holds user-tunable settings; API keys come from the
// environment or the encrypted secrets file (see secrets.go).
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrInvalidConfig indicates a configuration value failed validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// LLM providers recognized by the agent factory.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderGoogle    = "google"
	ProviderOllama    = "ollama"
)

// Default iteration budgets and timeouts. These mirror the documented
// defaults of the workflow pipeline.
const (
	DefaultModel                   = "gpt-4o"
	DefaultMaxPlannerQuestions     = 10
	DefaultMaxCoderIterations      = 5
	DefaultMaxRefinementIterations = 3
	DefaultCodeExecutionTimeout    = 120 * time.Second
	DefaultAgentCallTimeout        = 5 * time.Minute
	DefaultPythonBin               = "python3"

	configFileName = "config.json"
)

// Config holds all orchestrator settings.
//
//nolint:govet // logical grouping preferred over field alignment
type Config struct {
	// Model is the LLM model name used by both agents.
	Model string `json:"model"`

	// OllamaHost is the Ollama server URL, used only when Model resolves to
	// the ollama provider.
	OllamaHost string `json:"ollama_host,omitempty"`

	// MaxPlannerQuestions bounds the planner interview. When the planner has
	// asked this many questions without producing a plan, plan generation is
	// forced so the planning phase always terminates.
	MaxPlannerQuestions int `json:"max_planner_questions"`

	// MaxCoderIterations bounds the generate-validate-execute retry loop.
	MaxCoderIterations int `json:"max_coder_iterations"`

	// MaxRefinementIterations bounds user-driven output refinements.
	MaxRefinementIterations int `json:"max_refinement_iterations"`

	// MaxPlanRefinements bounds plan refinement rounds. Zero means unbounded:
	// plan review is human-driven, so the human is the terminator.
	MaxPlanRefinements int `json:"max_plan_refinements"`

	// CodeExecutionTimeout is the hard limit for one execution of generated code.
	CodeExecutionTimeout time.Duration `json:"code_execution_timeout"`

	// AgentCallTimeout bounds a single planner or coder LLM call.
	AgentCallTimeout time.Duration `json:"agent_call_timeout"`

	// PythonBin is the interpreter used to syntax-check and run generated code.
	PythonBin string `json:"python_bin"`

	// StorageDir is the root for all on-disk artifacts. The directories below
	// default to subdirectories of it.
	StorageDir       string `json:"storage_dir"`
	WorkflowStateDir string `json:"workflow_state_dir,omitempty"`
	GeneratedCodeDir string `json:"generated_code_dir,omitempty"`
	OutputDir        string `json:"output_dir,omitempty"`
	EventLogDir      string `json:"event_log_dir,omitempty"`
	DatabasePath     string `json:"database_path,omitempty"`
}

// DefaultConfig returns a config populated with defaults rooted at storageDir.
func DefaultConfig(storageDir string) *Config {
	cfg := &Config{
		Model:                   DefaultModel,
		MaxPlannerQuestions:     DefaultMaxPlannerQuestions,
		MaxCoderIterations:      DefaultMaxCoderIterations,
		MaxRefinementIterations: DefaultMaxRefinementIterations,
		MaxPlanRefinements:      0,
		CodeExecutionTimeout:    DefaultCodeExecutionTimeout,
		AgentCallTimeout:        DefaultAgentCallTimeout,
		PythonBin:               DefaultPythonBin,
		StorageDir:              storageDir,
	}
	cfg.fillDerivedPaths()
	return cfg
}

func (c *Config) fillDerivedPaths() {
	if c.WorkflowStateDir == "" {
		c.WorkflowStateDir = filepath.Join(c.StorageDir, "workflows")
	}
	if c.GeneratedCodeDir == "" {
		c.GeneratedCodeDir = filepath.Join(c.StorageDir, "generated_code")
	}
	if c.OutputDir == "" {
		c.OutputDir = filepath.Join(c.StorageDir, "outputs")
	}
	if c.EventLogDir == "" {
		c.EventLogDir = filepath.Join(c.StorageDir, "events")
	}
	if c.DatabasePath == "" {
		c.DatabasePath = filepath.Join(c.StorageDir, "irabuilder.db")
	}
}

// Load reads config.json under storageDir, filling defaults for absent
// fields. A missing file yields DefaultConfig.
func Load(storageDir string) (*Config, error) {
	path := filepath.Join(storageDir, configFileName)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(storageDir), nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := DefaultConfig(storageDir)
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	cfg.StorageDir = storageDir
	cfg.fillDerivedPaths()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config as indented JSON under its storage root.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.StorageDir, 0o755); err != nil {
		return fmt.Errorf("failed to create storage dir: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	path := filepath.Join(c.StorageDir, configFileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}
	return nil
}

// Validate rejects configurations that would break budget enforcement.
func (c *Config) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("%w: model must not be empty", ErrInvalidConfig)
	}
	if c.MaxPlannerQuestions < 1 {
		return fmt.Errorf("%w: max_planner_questions must be >= 1, got %d", ErrInvalidConfig, c.MaxPlannerQuestions)
	}
	if c.MaxCoderIterations < 1 {
		return fmt.Errorf("%w: max_coder_iterations must be >= 1, got %d", ErrInvalidConfig, c.MaxCoderIterations)
	}
	if c.MaxRefinementIterations < 1 {
		return fmt.Errorf("%w: max_refinement_iterations must be >= 1, got %d", ErrInvalidConfig, c.MaxRefinementIterations)
	}
	if c.MaxPlanRefinements < 0 {
		return fmt.Errorf("%w: max_plan_refinements must be >= 0, got %d", ErrInvalidConfig, c.MaxPlanRefinements)
	}
	if c.CodeExecutionTimeout <= 0 {
		return fmt.Errorf("%w: code_execution_timeout must be positive", ErrInvalidConfig)
	}
	if c.AgentCallTimeout <= 0 {
		return fmt.Errorf("%w: agent_call_timeout must be positive", ErrInvalidConfig)
	}
	if c.StorageDir == "" {
		return fmt.Errorf("%w: storage_dir must not be empty", ErrInvalidConfig)
	}
	return nil
}

// Provider infers the LLM provider from the model name.
func (c *Config) Provider() string {
	model := strings.ToLower(c.Model)
	switch {
	case strings.HasPrefix(model, "claude"):
		return ProviderAnthropic
	case strings.HasPrefix(model, "gpt"), strings.HasPrefix(model, "o3"), strings.HasPrefix(model, "o4"):
		return ProviderOpenAI
	case strings.HasPrefix(model, "gemini"):
		return ProviderGoogle
	default:
		return ProviderOllama
	}
}

// EnsureDirs creates all storage directories.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{
		c.StorageDir, c.WorkflowStateDir, c.GeneratedCodeDir, c.OutputDir, c.EventLogDir,
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

package config

import (
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig(t.TempDir())

	if cfg.Model != DefaultModel {
		t.Errorf("Expected default model %s, got %s", DefaultModel, cfg.Model)
	}
	if cfg.MaxPlannerQuestions != 10 {
		t.Errorf("Expected 10 planner questions, got %d", cfg.MaxPlannerQuestions)
	}
	if cfg.MaxCoderIterations != 5 {
		t.Errorf("Expected 5 coder iterations, got %d", cfg.MaxCoderIterations)
	}
	if cfg.MaxRefinementIterations != 3 {
		t.Errorf("Expected 3 refinement iterations, got %d", cfg.MaxRefinementIterations)
	}
	if cfg.WorkflowStateDir == "" || cfg.GeneratedCodeDir == "" || cfg.DatabasePath == "" {
		t.Error("Expected derived paths to be filled")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should validate, got %v", err)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load with missing file should succeed, got %v", err)
	}
	if cfg.StorageDir != dir {
		t.Errorf("Expected storage dir %s, got %s", dir, cfg.StorageDir)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()

	cfg := DefaultConfig(dir)
	cfg.Model = "claude-sonnet-4-20250514"
	cfg.MaxCoderIterations = 7
	cfg.CodeExecutionTimeout = 42 * time.Second
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Model != cfg.Model {
		t.Errorf("Expected model %s, got %s", cfg.Model, loaded.Model)
	}
	if loaded.MaxCoderIterations != 7 {
		t.Errorf("Expected 7 coder iterations, got %d", loaded.MaxCoderIterations)
	}
	if loaded.CodeExecutionTimeout != 42*time.Second {
		t.Errorf("Expected 42s execution timeout, got %v", loaded.CodeExecutionTimeout)
	}
}

func TestValidateRejectsBadBudgets(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty model", func(c *Config) { c.Model = "" }},
		{"zero planner questions", func(c *Config) { c.MaxPlannerQuestions = 0 }},
		{"zero coder iterations", func(c *Config) { c.MaxCoderIterations = 0 }},
		{"zero refinement iterations", func(c *Config) { c.MaxRefinementIterations = 0 }},
		{"negative plan refinements", func(c *Config) { c.MaxPlanRefinements = -1 }},
		{"zero execution timeout", func(c *Config) { c.CodeExecutionTimeout = 0 }},
		{"zero agent timeout", func(c *Config) { c.AgentCallTimeout = 0 }},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := DefaultConfig(t.TempDir())
			test.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestProviderInference(t *testing.T) {
	tests := []struct {
		model    string
		provider string
	}{
		{"claude-sonnet-4-20250514", ProviderAnthropic},
		{"gpt-4o", ProviderOpenAI},
		{"o3-mini", ProviderOpenAI},
		{"gemini-2.0-flash", ProviderGoogle},
		{"llama3.3", ProviderOllama},
	}

	for _, test := range tests {
		t.Run(test.model, func(t *testing.T) {
			cfg := DefaultConfig(t.TempDir())
			cfg.Model = test.model
			if got := cfg.Provider(); got != test.provider {
				t.Errorf("Provider(%s) = %s, want %s", test.model, got, test.provider)
			}
		})
	}
}

func TestSecretsRoundTrip(t *testing.T) {
	dir := t.TempDir()

	secrets := NewSecrets()
	secrets.Set("OPENAI_API_KEY", "sk-test-123")

	if err := SaveSecretsFile(dir, "hunter2", secrets); err != nil {
		t.Fatalf("SaveSecretsFile failed: %v", err)
	}
	if !SecretsFileExists(dir) {
		t.Fatal("Expected secrets file to exist")
	}

	loaded, err := LoadSecretsFile(dir, "hunter2")
	if err != nil {
		t.Fatalf("LoadSecretsFile failed: %v", err)
	}
	key, err := loaded.Get("OPENAI_API_KEY")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if key != "sk-test-123" {
		t.Errorf("Expected sk-test-123, got %s", key)
	}
}

func TestSecretsWrongPassword(t *testing.T) {
	dir := t.TempDir()

	secrets := NewSecrets()
	secrets.Set("GEMINI_API_KEY", "g-123")
	if err := SaveSecretsFile(dir, "correct", secrets); err != nil {
		t.Fatalf("SaveSecretsFile failed: %v", err)
	}

	if _, err := LoadSecretsFile(dir, "wrong"); err == nil {
		t.Error("Expected decryption to fail with wrong password")
	}
}

func TestAPIKeyForOllamaNeedsNoKey(t *testing.T) {
	key, err := NewSecrets().APIKeyFor(ProviderOllama)
	if err != nil {
		t.Fatalf("Expected no error for ollama, got %v", err)
	}
	if key != "" {
		t.Errorf("Expected empty key for ollama, got %q", key)
	}
}

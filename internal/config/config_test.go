package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Workers != 3 {
		t.Errorf("Workers = %d, want 3", cfg.Workers)
	}
	if cfg.TaskTimeout != 300*time.Second {
		t.Errorf("TaskTimeout = %s, want 300s", cfg.TaskTimeout)
	}
	if cfg.PollInterval != 100*time.Millisecond {
		t.Errorf("PollInterval = %s, want 100ms", cfg.PollInterval)
	}
	if cfg.GUI.Attempts != 3 {
		t.Errorf("GUI.Attempts = %d, want 3", cfg.GUI.Attempts)
	}
	if cfg.GUI.VerifyRadius != 32 {
		t.Errorf("GUI.VerifyRadius = %d, want 32", cfg.GUI.VerifyRadius)
	}
	if cfg.GUI.MinConfidence != 0.5 {
		t.Errorf("GUI.MinConfidence = %f, want 0.5", cfg.GUI.MinConfidence)
	}
	if cfg.LLM.Provider != "ollama" {
		t.Errorf("LLM.Provider = %q, want ollama", cfg.LLM.Provider)
	}
}

func TestLoadFromPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hark.yaml")

	content := `
workers: 5
task_timeout: 60s
gui:
  attempts: 2
  verify_radius: 48
llm:
  provider: anthropic
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}

	if cfg.Workers != 5 {
		t.Errorf("Workers = %d, want 5", cfg.Workers)
	}
	if cfg.TaskTimeout != 60*time.Second {
		t.Errorf("TaskTimeout = %s, want 60s", cfg.TaskTimeout)
	}
	if cfg.GUI.Attempts != 2 {
		t.Errorf("GUI.Attempts = %d, want 2", cfg.GUI.Attempts)
	}
	if cfg.GUI.VerifyRadius != 48 {
		t.Errorf("GUI.VerifyRadius = %d, want 48", cfg.GUI.VerifyRadius)
	}
	if cfg.LLM.Provider != "anthropic" {
		t.Errorf("LLM.Provider = %q, want anthropic", cfg.LLM.Provider)
	}

	// Unset keys keep their defaults.
	if cfg.GUI.MinConfidence != 0.5 {
		t.Errorf("GUI.MinConfidence = %f, want default 0.5", cfg.GUI.MinConfidence)
	}
	if cfg.PollInterval != 100*time.Millisecond {
		t.Errorf("PollInterval = %s, want default 100ms", cfg.PollInterval)
	}
}

func TestLoadFromPathMissing(t *testing.T) {
	if _, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

package global

import (
	"path/filepath"
	"testing"
)

func TestDefaultConfigDir_UsesOverride(t *testing.T) {
	t.Setenv("OLLAMA_AGENT_CONFIG_DIR", "/tmp/ollama-agent-config-test")
	got, err := DefaultConfigDir()
	if err != nil {
		t.Fatalf("DefaultConfigDir returned error: %v", err)
	}
	if got != "/tmp/ollama-agent-config-test" {
		t.Fatalf("expected override path, got %q", got)
	}
}

func TestDefaultConfigDir_FallsBackToHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("OLLAMA_AGENT_CONFIG_DIR", "")
	t.Setenv("HOME", home)
	got, err := DefaultConfigDir()
	if err != nil {
		t.Fatalf("DefaultConfigDir returned error: %v", err)
	}
	if got != filepath.Join(home, ".config", "ollama-agent") {
		t.Fatalf("unexpected dir: %q", got)
	}
}

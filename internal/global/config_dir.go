package global

import (
	"os"
	"path/filepath"
	"strings"
)

const dbFileName = "ollama-agent.db"

// DefaultConfigDir returns ~/.config/ollama-agent unless OLLAMA_AGENT_CONFIG_DIR
// overrides it.
func DefaultConfigDir() (string, error) {
	if override := strings.TrimSpace(os.Getenv("OLLAMA_AGENT_CONFIG_DIR")); override != "" {
		return override, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "ollama-agent"), nil
}

func DBPath(dataDir string) string {
	return filepath.Join(dataDir, dbFileName)
}

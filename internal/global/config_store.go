package global

import (
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	configTOMLFileName = "config.toml"
)

type ModelConfig struct {
	BaseURL               string `toml:"base_url"`
	APIKey                string `toml:"api_key"`
	Name                  string `toml:"name"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
	MaxEndpointFailures   int    `toml:"max_endpoint_failures"`
}

type ActionConfig struct {
	CommandTimeoutSeconds int `toml:"command_timeout_seconds"`
	MaxOutputChars        int `toml:"max_output_chars"`
	SearchMaxResults      int `toml:"search_max_results"`
}

type HistoryConfig struct {
	MaxMessages int `toml:"max_messages"`
	MaxChars    int `toml:"max_chars"`
}

type GlobalConfig struct {
	LogLevel   string        `toml:"log_level"`
	LogFile    string        `toml:"log_file,omitempty"`
	ListenAddr string        `toml:"listen_addr"`
	DataDir    string        `toml:"data_dir,omitempty"`
	Model      ModelConfig   `toml:"model"`
	Actions    ActionConfig  `toml:"actions"`
	History    HistoryConfig `toml:"history"`
}

// DefaultGlobalConfig is what a fresh config.toml contains.
func DefaultGlobalConfig() GlobalConfig {
	return GlobalConfig{
		LogLevel:   "warn",
		ListenAddr: "127.0.0.1:4622",
		Model: ModelConfig{
			BaseURL:               "http://localhost:11434/v1",
			APIKey:                "ollama",
			Name:                  "gemma2:9b",
			RequestTimeoutSeconds: 120,
		},
		Actions: ActionConfig{
			CommandTimeoutSeconds: 30,
			MaxOutputChars:        8000,
			SearchMaxResults:      20,
		},
		History: HistoryConfig{
			MaxMessages: 40,
			MaxChars:    24000,
		},
	}
}

type ConfigStore struct {
	dir string
}

func NewConfigStore(dir string) *ConfigStore {
	return &ConfigStore{dir: dir}
}

func (s *ConfigStore) Dir() string { return s.dir }

func (s *ConfigStore) Path() string { return filepath.Join(s.dir, configTOMLFileName) }

func (s *ConfigStore) LoadOrInit() (GlobalConfig, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return GlobalConfig{}, err
	}

	path := s.Path()
	if b, err := os.ReadFile(path); err == nil {
		cfg := DefaultGlobalConfig()
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return GlobalConfig{}, err
		}
		return normalizeConfig(cfg), nil
	} else if !os.IsNotExist(err) {
		return GlobalConfig{}, err
	}

	cfg := normalizeConfig(DefaultGlobalConfig())
	if err := writeTOMLAtomically(path, cfg); err != nil {
		return GlobalConfig{}, err
	}
	return cfg, nil
}

func (s *ConfigStore) Save(cfg GlobalConfig) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	return writeTOMLAtomically(s.Path(), normalizeConfig(cfg))
}

// normalizeConfig replaces blank or non-positive values with defaults.
// MaxEndpointFailures keeps 0, which means never give up.
func normalizeConfig(cfg GlobalConfig) GlobalConfig {
	def := DefaultGlobalConfig()
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	switch cfg.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		cfg.LogLevel = def.LogLevel
	}
	cfg.LogFile = strings.TrimSpace(cfg.LogFile)
	cfg.DataDir = strings.TrimSpace(cfg.DataDir)
	cfg.ListenAddr = orString(cfg.ListenAddr, def.ListenAddr)

	cfg.Model.BaseURL = orString(cfg.Model.BaseURL, def.Model.BaseURL)
	cfg.Model.APIKey = orString(cfg.Model.APIKey, def.Model.APIKey)
	cfg.Model.Name = orString(cfg.Model.Name, def.Model.Name)
	cfg.Model.RequestTimeoutSeconds = orPositive(cfg.Model.RequestTimeoutSeconds, def.Model.RequestTimeoutSeconds)
	if cfg.Model.MaxEndpointFailures < 0 {
		cfg.Model.MaxEndpointFailures = 0
	}

	cfg.Actions.CommandTimeoutSeconds = orPositive(cfg.Actions.CommandTimeoutSeconds, def.Actions.CommandTimeoutSeconds)
	cfg.Actions.MaxOutputChars = orPositive(cfg.Actions.MaxOutputChars, def.Actions.MaxOutputChars)
	cfg.Actions.SearchMaxResults = orPositive(cfg.Actions.SearchMaxResults, def.Actions.SearchMaxResults)
	cfg.History.MaxMessages = orPositive(cfg.History.MaxMessages, def.History.MaxMessages)
	cfg.History.MaxChars = orPositive(cfg.History.MaxChars, def.History.MaxChars)
	return cfg
}

func orString(v, fallback string) string {
	if v = strings.TrimSpace(v); v == "" {
		return fallback
	}
	return v
}

func orPositive(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}

func writeTOMLAtomically(path string, v any) error {
	b, err := toml.Marshal(v)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

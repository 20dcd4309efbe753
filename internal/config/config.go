package config

import (
	"os"
	"strings"
	"time"

	"github.com/prodigisoftwares/ollama-agent/internal/global"
)

type Config struct {
	BaseURL             string
	APIKey              string
	Model               string
	LogLevel            string
	LogFile             string
	CommandTimeout      time.Duration
	RequestTimeout      time.Duration
	MaxOutputChars      int
	HistoryMaxMessages  int
	HistoryMaxChars     int
	SearchMaxResults    int
	ListenAddr          string
	ConfigDir           string
	DataDir             string
	MaxEndpointFailures int
	// Plain disables colored output.
	Plain bool
}

// Load layers config.toml in dir (created on first use) under the
// OLLAMA_AGENT_* environment. Flags are applied later by the command layer.
func Load(dir string) (Config, error) {
	store := global.NewConfigStore(dir)
	file, err := store.LoadOrInit()
	if err != nil {
		return Config{}, err
	}
	cfg := FromFile(file)
	cfg.ConfigDir = dir
	if cfg.DataDir == "" {
		cfg.DataDir = dir
	}
	applyEnv(&cfg)
	return cfg, nil
}

// Defaults is the configuration used when no file or environment is present.
func Defaults() Config {
	return FromFile(global.DefaultGlobalConfig())
}

func FromFile(file global.GlobalConfig) Config {
	return Config{
		BaseURL:             file.Model.BaseURL,
		APIKey:              file.Model.APIKey,
		Model:               file.Model.Name,
		LogLevel:            file.LogLevel,
		LogFile:             file.LogFile,
		CommandTimeout:      time.Duration(file.Actions.CommandTimeoutSeconds) * time.Second,
		RequestTimeout:      time.Duration(file.Model.RequestTimeoutSeconds) * time.Second,
		MaxOutputChars:      file.Actions.MaxOutputChars,
		HistoryMaxMessages:  file.History.MaxMessages,
		HistoryMaxChars:     file.History.MaxChars,
		SearchMaxResults:    file.Actions.SearchMaxResults,
		ListenAddr:          file.ListenAddr,
		DataDir:             file.DataDir,
		MaxEndpointFailures: file.Model.MaxEndpointFailures,
	}
}

func applyEnv(cfg *Config) {
	if strings.TrimSpace(os.Getenv("NO_COLOR")) != "" {
		cfg.Plain = true
	}
	setString(&cfg.BaseURL, "OLLAMA_AGENT_BASE_URL")
	setString(&cfg.APIKey, "OLLAMA_AGENT_API_KEY")
	setString(&cfg.Model, "OLLAMA_AGENT_MODEL")
	setString(&cfg.LogLevel, "OLLAMA_AGENT_LOG_LEVEL")
	setString(&cfg.LogFile, "OLLAMA_AGENT_LOG_FILE")
	setString(&cfg.ListenAddr, "OLLAMA_AGENT_LISTEN_ADDR")
	setString(&cfg.DataDir, "OLLAMA_AGENT_DATA_DIR")
	setDuration(&cfg.CommandTimeout, "OLLAMA_AGENT_COMMAND_TIMEOUT")
	setDuration(&cfg.RequestTimeout, "OLLAMA_AGENT_REQUEST_TIMEOUT")
	if n := atoiOrDefault(os.Getenv("OLLAMA_AGENT_MAX_OUTPUT_CHARS"), 0); n > 0 {
		cfg.MaxOutputChars = n
	}
	if n := atoiOrDefault(os.Getenv("OLLAMA_AGENT_HISTORY_MAX_MESSAGES"), 0); n > 0 {
		cfg.HistoryMaxMessages = n
	}
	if n := atoiOrDefault(os.Getenv("OLLAMA_AGENT_HISTORY_MAX_CHARS"), 0); n > 0 {
		cfg.HistoryMaxChars = n
	}
	if n := atoiOrDefault(os.Getenv("OLLAMA_AGENT_SEARCH_MAX_RESULTS"), 0); n > 0 {
		cfg.SearchMaxResults = n
	}
	if v := strings.TrimSpace(os.Getenv("OLLAMA_AGENT_MAX_ENDPOINT_FAILURES")); v != "" {
		if v == "0" {
			cfg.MaxEndpointFailures = 0
		} else if n := atoiOrDefault(v, -1); n > 0 {
			cfg.MaxEndpointFailures = n
		}
	}
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

// setDuration accepts Go duration syntax ("45s") or a bare number of seconds.
func setDuration(dst *time.Duration, key string) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		*dst = d
		return
	}
	if n := atoiOrDefault(v, 0); n > 0 {
		*dst = time.Duration(n) * time.Second
	}
}

func atoiOrDefault(v string, fallback int) int {
	n := 0
	for i := 0; i < len(v); i++ {
		if v[i] < '0' || v[i] > '9' {
			return fallback
		}
		n = n*10 + int(v[i]-'0')
	}
	if n == 0 {
		return fallback
	}
	return n
}

package config

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Config is the root configuration for the biotrack bot.
type Config struct {
	General  GeneralConfig  `json:"general"`
	Telegram TelegramConfig `json:"telegram"`
	Groq     GroqConfig     `json:"groq"`
	Gemini   GeminiConfig   `json:"gemini"`
	Metrics  MetricsConfig  `json:"metrics"`
}

type GeneralConfig struct {
	LogLevel          string `json:"logLevel"`
	Workers           int    `json:"workers"`                 // concurrent pipeline workers
	AITimeoutS        int    `json:"aiTimeoutSeconds"`        // model call timeout
	TransportTimeoutS int    `json:"transportTimeoutSeconds"` // media download / reply timeout
}

type TelegramConfig struct {
	Token       string         `json:"token"`
	Mode        string         `json:"mode"` // "polling" | "webhook"
	WebhookPort int            `json:"webhookPort,omitempty"`
	WebhookPath string         `json:"webhookPath,omitempty"`
	AllowFrom   FlexStringList `json:"allowFrom,omitempty"`
	ParseMode   string         `json:"parseMode,omitempty"`
}

type GroqConfig struct {
	APIKey        string `json:"apiKey"`
	APIBase       string `json:"apiBase,omitempty"`
	ClassifyModel string `json:"classifyModel,omitempty"`
	ExtractModel  string `json:"extractModel,omitempty"`
	WhisperModel  string `json:"whisperModel,omitempty"`
	Language      string `json:"language,omitempty"` // transcription hint, ISO-639-1
}

type GeminiConfig struct {
	APIKey string `json:"apiKey"`
	Model  string `json:"model,omitempty"`
}

// MetricsConfig controls the standalone metrics listener used in polling
// mode. The exposition is always served at /metrics; ListenAddr is the
// host:port the server binds to.
type MetricsConfig struct {
	Enabled    bool   `json:"enabled"`
	ListenAddr string `json:"listenAddr,omitempty"`
}

// FlexStringList is a []string that can unmarshal from JSON arrays containing
// both strings and numbers (e.g. ["123", 456] both become "123", "456").
type FlexStringList []string

func (f *FlexStringList) UnmarshalJSON(data []byte) error {
	var ss []string
	if err := json.Unmarshal(data, &ss); err == nil {
		*f = ss
		return nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	result := make([]string, 0, len(raw))
	for _, item := range raw {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			result = append(result, s)
			continue
		}
		var n float64
		if err := json.Unmarshal(item, &n); err == nil {
			result = append(result, strconv.FormatInt(int64(n), 10))
			continue
		}
		result = append(result, string(item))
	}
	*f = result
	return nil
}

// AITimeout returns the model-call timeout as a duration.
func (c *Config) AITimeout() time.Duration {
	return time.Duration(c.General.AITimeoutS) * time.Second
}

// TransportTimeout returns the media/reply timeout as a duration.
func (c *Config) TransportTimeout() time.Duration {
	return time.Duration(c.General.TransportTimeoutS) * time.Second
}

// DefaultConfigDir returns the default config directory (~/.biotrack).
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".biotrack"
	}
	return filepath.Join(home, ".biotrack")
}

func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

func Load(path string) (*Config, error) {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("cannot resolve home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	// Substitute environment variables: ${VAR} and ${VAR:-default}
	data = []byte(ExpandEnvVars(string(data)))

	cfg := Defaults()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns in config strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-(.*?))?\}`)

// ExpandEnvVars replaces ${VAR} with the environment variable value.
// Supports default values: ${VAR:-default} uses "default" when VAR is unset or empty.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultVal := ""
		hasDefault := len(groups) >= 3 && groups[2] != ""
		if hasDefault {
			defaultVal = groups[2]
		}

		val, exists := os.LookupEnv(varName)
		if !exists || val == "" {
			if hasDefault {
				return defaultVal
			}
			return match // keep original if no env var and no default
		}
		return val
	})
}

func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

// Validate checks that the config has valid values.
func Validate(cfg *Config) error {
	var errs []string

	switch cfg.General.LogLevel {
	case "", "debug", "info", "warn", "error":
		// valid
	default:
		errs = append(errs, "general.logLevel must be one of: debug, info, warn, error")
	}
	if cfg.General.Workers < 1 || cfg.General.Workers > 100 {
		errs = append(errs, "general.workers must be between 1 and 100")
	}
	if cfg.General.AITimeoutS < 1 {
		errs = append(errs, "general.aiTimeoutSeconds must be >= 1")
	}
	if cfg.General.TransportTimeoutS < 1 {
		errs = append(errs, "general.transportTimeoutSeconds must be >= 1")
	}

	switch cfg.Telegram.Mode {
	case "polling", "webhook":
		// valid
	default:
		errs = append(errs, "telegram.mode must be one of: polling, webhook")
	}
	if cfg.Telegram.Mode == "webhook" {
		if cfg.Telegram.WebhookPort < 1 || cfg.Telegram.WebhookPort > 65535 {
			errs = append(errs, "telegram.webhookPort must be between 1 and 65535")
		}
	}

	if cfg.Metrics.Enabled && cfg.Metrics.ListenAddr != "" {
		if _, _, err := net.SplitHostPort(cfg.Metrics.ListenAddr); err != nil {
			errs = append(errs, "metrics.listenAddr must be a host:port address (e.g. \":9090\")")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

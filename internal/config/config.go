package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// API holds the chat-completion endpoint settings.
type API struct {
	Key            string `toml:"key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Translate holds the run settings.
type Translate struct {
	SourceLanguage  string  `toml:"source_language"`
	TargetLanguage  string  `toml:"target_language"`
	DelaySeconds    float64 `toml:"delay_seconds"`
	CheckpointEvery int     `toml:"checkpoint_every"`
	MaxRetries      int     `toml:"max_retries"`
	BackoffSeconds  float64 `toml:"backoff_seconds"`
	Mode            string  `toml:"mode"`
}

// Config is the file/env configuration; CLI flags are applied on top.
type Config struct {
	API       API       `toml:"api"`
	Translate Translate `toml:"translate"`
}

const (
	defaultConfigPath  = "~/.config/anuvad/config.toml"
	projectConfigName  = "anuvad.toml"
	defaultBaseURL     = "https://api.deepseek.com"
	defaultModel       = "deepseek-chat"
	defaultSource      = "en"
	defaultTarget      = "id"
	defaultDelay       = 0.2
	defaultCheckpoint  = 25
	defaultMaxRetries  = 6
	defaultBackoff     = 2.0
	defaultMode        = "block"
	defaultTimeoutSecs = 0
)

// Default returns the configuration used when no file or env overrides exist.
func Default() Config {
	return Config{
		API: API{
			BaseURL:        defaultBaseURL,
			Model:          defaultModel,
			TimeoutSeconds: defaultTimeoutSecs,
		},
		Translate: Translate{
			SourceLanguage:  defaultSource,
			TargetLanguage:  defaultTarget,
			DelaySeconds:    defaultDelay,
			CheckpointEvery: defaultCheckpoint,
			MaxRetries:      defaultMaxRetries,
			BackoffSeconds:  defaultBackoff,
			Mode:            defaultMode,
		},
	}
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates and parses a configuration file, then applies environment
// overrides. Validation is left to the caller so flags can be applied first.
// It returns the resolved path and whether that file existed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	}

	cfg.ApplyEnv()
	cfg.normalize()

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		info, err := os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return "", false, fmt.Errorf("config file not found: %s", expanded)
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		if info.IsDir() {
			return "", false, fmt.Errorf("config path is a directory: %s", expanded)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// ApplyEnv overrides file values with environment variables. The first
// non-empty variable of each group wins.
func (c *Config) ApplyEnv() {
	if v := firstEnv("ANUVAD_API_KEY", "DEEPSEEK_API_KEY", "OPENAI_API_KEY"); v != "" {
		c.API.Key = v
	}
	if v := firstEnv("ANUVAD_BASE_URL", "DEEPSEEK_BASE_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := firstEnv("ANUVAD_MODEL"); v != "" {
		c.API.Model = v
	}
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if value, ok := os.LookupEnv(key); ok {
			if value = strings.TrimSpace(value); value != "" {
				return value
			}
		}
	}
	return ""
}

func (c *Config) normalize() {
	c.API.Key = strings.TrimSpace(c.API.Key)
	c.API.BaseURL = strings.TrimSpace(c.API.BaseURL)
	c.API.Model = strings.TrimSpace(c.API.Model)
	c.Translate.SourceLanguage = strings.TrimSpace(c.Translate.SourceLanguage)
	c.Translate.TargetLanguage = strings.TrimSpace(c.Translate.TargetLanguage)
	c.Translate.Mode = strings.ToLower(strings.TrimSpace(c.Translate.Mode))
	if c.Translate.SourceLanguage == "" {
		c.Translate.SourceLanguage = "auto"
	}
}

// Delay returns the inter-block pause.
func (t Translate) Delay() time.Duration {
	return secondsToDuration(t.DelaySeconds)
}

// Backoff returns the base retry backoff.
func (t Translate) Backoff() time.Duration {
	return secondsToDuration(t.BackoffSeconds)
}

// Timeout returns the per-request timeout, zero meaning the transport default.
func (a API) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return "", nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		pathValue = filepath.Join(home, strings.TrimPrefix(pathValue, "~"))
	}
	return filepath.Abs(pathValue)
}

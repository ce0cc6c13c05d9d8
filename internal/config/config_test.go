package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ANUVAD_API_KEY", "DEEPSEEK_API_KEY", "OPENAI_API_KEY",
		"ANUVAD_BASE_URL", "DEEPSEEK_BASE_URL", "ANUVAD_MODEL",
	} {
		t.Setenv(key, "")
	}
}

// chdir changes the working directory for the duration of the test,
// equivalent to testing.T.Chdir on Go 1.24+.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { require.NoError(t, os.Chdir(old)) })
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "https://api.deepseek.com", cfg.API.BaseURL)
	assert.Equal(t, "deepseek-chat", cfg.API.Model)
	assert.Equal(t, "en", cfg.Translate.SourceLanguage)
	assert.Equal(t, "id", cfg.Translate.TargetLanguage)
	assert.Equal(t, 200*time.Millisecond, cfg.Translate.Delay())
	assert.Equal(t, 25, cfg.Translate.CheckpointEvery)
	assert.Equal(t, 6, cfg.Translate.MaxRetries)
	assert.Equal(t, 2*time.Second, cfg.Translate.Backoff())
	assert.Equal(t, "block", cfg.Translate.Mode)
}

func TestLoadDefaultsWhenMissing(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())
	chdir(t, t.TempDir())

	cfg, path, exists, err := Load("")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, filepath.Join(os.Getenv("HOME"), ".config", "anuvad", "config.toml"), path)
	assert.Equal(t, Default(), *cfg)
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "anuvad.toml")
	content := `
[api]
key = "file-key"
model = "gpt-4o-mini"
timeout_seconds = 30

[translate]
target_language = "ja"
mode = " LINE "
checkpoint_every = 0
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, resolved, exists, err := Load(path)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, path, resolved)
	assert.Equal(t, "file-key", cfg.API.Key)
	assert.Equal(t, "gpt-4o-mini", cfg.API.Model)
	assert.Equal(t, "https://api.deepseek.com", cfg.API.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout())
	assert.Equal(t, "ja", cfg.Translate.TargetLanguage)
	assert.Equal(t, "line", cfg.Translate.Mode)
	assert.Equal(t, 0, cfg.Translate.CheckpointEvery)
	require.NoError(t, cfg.Validate())
}

func TestLoadProjectFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	chdir(t, dir)

	cfg := Default()
	cfg.Translate.TargetLanguage = "fr"
	data, err := toml.Marshal(cfg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "anuvad.toml"), data, 0o644))

	loaded, _, exists, err := Load("")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, "fr", loaded.Translate.TargetLanguage)
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "anuvad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[api]\nkey = \"file-key\"\nbase_url = \"http://file\"\n"), 0o644))

	t.Setenv("DEEPSEEK_API_KEY", "deepseek-key")
	t.Setenv("OPENAI_API_KEY", "openai-key")
	t.Setenv("DEEPSEEK_BASE_URL", " http://env ")
	t.Setenv("ANUVAD_MODEL", "env-model")

	cfg, _, _, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "deepseek-key", cfg.API.Key)
	assert.Equal(t, "http://env", cfg.API.BaseURL)
	assert.Equal(t, "env-model", cfg.API.Model)

	t.Setenv("ANUVAD_API_KEY", "anuvad-key")
	cfg, _, _, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "anuvad-key", cfg.API.Key)
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	_, _, _, err := Load(filepath.Join(dir, "missing.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file not found")

	_, _, _, err = Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is a directory")

	bad := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("[translate]\nunknown_key = 1\n"), 0o644))
	_, _, _, err = Load(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestValidateRetryBounds(t *testing.T) {
	cfg := Default()
	cfg.Translate.MaxRetries = 0
	require.NoError(t, cfg.Validate())
	cfg.Translate.MaxRetries = 30
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"empty target", func(c *Config) { c.Translate.TargetLanguage = "" }, "target_language"},
		{"negative delay", func(c *Config) { c.Translate.DelaySeconds = -1 }, "delay_seconds"},
		{"negative checkpoint", func(c *Config) { c.Translate.CheckpointEvery = -1 }, "checkpoint_every"},
		{"negative retries", func(c *Config) { c.Translate.MaxRetries = -1 }, "max_retries"},
		{"too many retries", func(c *Config) { c.Translate.MaxRetries = 31 }, "max_retries must be between 0 and 30"},
		{"zero backoff", func(c *Config) { c.Translate.BackoffSeconds = 0 }, "backoff_seconds"},
		{"bad mode", func(c *Config) { c.Translate.Mode = "paragraph" }, "mode"},
		{"empty base url", func(c *Config) { c.API.BaseURL = "" }, "base_url"},
		{"empty model", func(c *Config) { c.API.Model = "" }, "model"},
		{"negative timeout", func(c *Config) { c.API.TimeoutSeconds = -5 }, "timeout_seconds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

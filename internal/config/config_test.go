package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "noop", cfg.Generation.Provider)
	assert.Equal(t, 1.2, cfg.Generation.Temperature)
	assert.Equal(t, 64, cfg.Generation.MaxNewTokens)
	assert.Equal(t, 0.1, cfg.Generation.MinP)
	assert.Equal(t, DefaultAssistantMarker, cfg.Generation.AssistantMarker)
	assert.Equal(t, DefaultReservedTokenPrefix, cfg.Generation.ReservedTokenPrefix)
	assert.Equal(t, "gpt-4o-mini", cfg.Judge.Model)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DS_HTTP_ADDR", ":9000")
	t.Setenv("DS_GEN_PROVIDER", "TGI")
	t.Setenv("DS_GEN_BASE_URL", "http://tgi.local")
	t.Setenv("DS_GEN_TEMPERATURE", "0.7")
	t.Setenv("DS_GEN_MAX_NEW_TOKENS", "128")
	t.Setenv("DS_GEN_MIN_P", "0.05")
	t.Setenv("DS_GEN_TIMEOUT", "15s")
	t.Setenv("DS_JUDGE_PROVIDER", "openai")
	t.Setenv("DS_JUDGE_API_KEY", "sk-judge")
	t.Setenv("DS_DB_DSN", "postgres://localhost/ds")
	t.Setenv("DS_REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("DS_EVAL_SAMPLE_RATE", "0.25")
	t.Setenv("DS_API_KEY", "secret")
	t.Setenv("DS_HTTP_RATE_LIMIT_RPM", "30")
	t.Setenv("DS_MCP_ALLOW_ORIGINS", "https://a.example, ,https://b.example")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.HTTP.Addr)
	assert.Equal(t, "tgi", cfg.Generation.Provider)
	assert.Equal(t, "http://tgi.local", cfg.Generation.BaseURL)
	assert.Equal(t, 0.7, cfg.Generation.Temperature)
	assert.Equal(t, 128, cfg.Generation.MaxNewTokens)
	assert.Equal(t, 0.05, cfg.Generation.MinP)
	assert.Equal(t, 15*time.Second, cfg.Generation.Timeout)
	assert.Equal(t, "openai", cfg.Judge.Provider)
	assert.Equal(t, "sk-judge", cfg.Judge.APIKey)
	assert.Equal(t, "postgres://localhost/ds", cfg.Database.DSN)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
	assert.Equal(t, 0.25, cfg.Evaluation.SampleRate)
	assert.Equal(t, "secret", cfg.Security.APIKey)
	assert.Equal(t, 30, cfg.HTTP.RateLimitRPM)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.MCP.AllowOrigins)
}

func TestJudgeKeyFallsBackToOpenAIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-fallback")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "sk-fallback", cfg.Judge.APIKey)
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
http:
  addr: ":7000"
generation:
  provider: ollama
  base_url: http://localhost:11434
  model: domain-llama
  temperature: 0.9
  timeout: 20s
evaluation:
  sample_rate: 0.5
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.HTTP.Addr)
	assert.Equal(t, "ollama", cfg.Generation.Provider)
	assert.Equal(t, "domain-llama", cfg.Generation.Model)
	assert.Equal(t, 0.9, cfg.Generation.Temperature)
	assert.Equal(t, 20*time.Second, cfg.Generation.Timeout)
	assert.Equal(t, 64, cfg.Generation.MaxNewTokens, "unset keys keep defaults")
	assert.Equal(t, 0.5, cfg.Evaluation.SampleRate)
}

func TestLoadTOMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := []byte(`
[http]
addr = ":7100"

[judge]
provider = "openai"
model = "gpt-4o"
max_tokens = 800
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7100", cfg.HTTP.Addr)
	assert.Equal(t, "openai", cfg.Judge.Provider)
	assert.Equal(t, "gpt-4o", cfg.Judge.Model)
	assert.Equal(t, 800, cfg.Judge.MaxTokens)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown generation provider", func(c *Config) { c.Generation.Provider = "bard" }},
		{"unknown judge provider", func(c *Config) { c.Judge.Provider = "tgi" }},
		{"zero max tokens", func(c *Config) { c.Generation.MaxNewTokens = 0 }},
		{"negative sample rate", func(c *Config) { c.Evaluation.SampleRate = -0.1 }},
		{"sample rate above one", func(c *Config) { c.Evaluation.SampleRate = 1.5 }},
		{"tgi without base url", func(c *Config) { c.Generation.Provider = "tgi" }},
		{"negative rate limit", func(c *Config) { c.HTTP.RateLimitRPM = -1 }},
		{"zero mcp session ttl", func(c *Config) { c.MCP.SessionTTL = 0 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, Default().Validate())
}

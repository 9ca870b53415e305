package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const (
	DefaultAssistantMarker     = "<|start_header_id|>assistant<|end_header_id|>"
	DefaultReservedTokenPrefix = "<|reserved_special_token_"

	DefaultSystemPrompt = "You are a creative assistant that suggests catchy domain names for businesses."
	DefaultUserPrompt   = "Generate 3 to 5 creative and memorable domain names for the following business description. " +
		"Avoid hyphens or numbers. Prioritize .com domains unless a better option fits. " +
		"Keep names short, brandable, and easy to spell.\n\nBusiness Description: {{.Description}}"
)

type Config struct {
	HTTP struct {
		Addr              string        `yaml:"addr" toml:"addr"`
		ReadHeaderTimeout time.Duration `yaml:"read_header_timeout" toml:"read_header_timeout"`
		RateLimitRPM      int           `yaml:"rate_limit_rpm" toml:"rate_limit_rpm"`
	} `yaml:"http" toml:"http"`
	Generation struct {
		Provider            string        `yaml:"provider" toml:"provider"`
		BaseURL             string        `yaml:"base_url" toml:"base_url"`
		APIKey              string        `yaml:"api_key" toml:"api_key"`
		Model               string        `yaml:"model" toml:"model"`
		Temperature         float64       `yaml:"temperature" toml:"temperature"`
		MaxNewTokens        int           `yaml:"max_new_tokens" toml:"max_new_tokens"`
		MinP                float64       `yaml:"min_p" toml:"min_p"`
		Timeout             time.Duration `yaml:"timeout" toml:"timeout"`
		AssistantMarker     string        `yaml:"assistant_marker" toml:"assistant_marker"`
		ReservedTokenPrefix string        `yaml:"reserved_token_prefix" toml:"reserved_token_prefix"`
		SystemPrompt        string        `yaml:"system_prompt" toml:"system_prompt"`
		UserPrompt          string        `yaml:"user_prompt" toml:"user_prompt"`
	} `yaml:"generation" toml:"generation"`
	Judge struct {
		Provider           string        `yaml:"provider" toml:"provider"`
		BaseURL            string        `yaml:"base_url" toml:"base_url"`
		APIKey             string        `yaml:"api_key" toml:"api_key"`
		Model              string        `yaml:"model" toml:"model"`
		Temperature        float64       `yaml:"temperature" toml:"temperature"`
		MaxTokens          int           `yaml:"max_tokens" toml:"max_tokens"`
		Timeout            time.Duration `yaml:"timeout" toml:"timeout"`
		ModerationCacheTTL time.Duration `yaml:"moderation_cache_ttl" toml:"moderation_cache_ttl"`
	} `yaml:"judge" toml:"judge"`
	Policy struct {
		Path string `yaml:"path" toml:"path"`
	} `yaml:"policy" toml:"policy"`
	Database struct {
		DSN string `yaml:"dsn" toml:"dsn"`
	} `yaml:"database" toml:"database"`
	Redis struct {
		URL string `yaml:"url" toml:"url"`
	} `yaml:"redis" toml:"redis"`
	Evaluation struct {
		SampleRate float64 `yaml:"sample_rate" toml:"sample_rate"`
	} `yaml:"evaluation" toml:"evaluation"`
	Security struct {
		APIKey          string `yaml:"api_key" toml:"api_key"`
		TokenSigningKey string `yaml:"token_signing_key" toml:"token_signing_key"`
	} `yaml:"security" toml:"security"`
	Auth struct {
		Issuer   string `yaml:"issuer" toml:"issuer"`
		Audience string `yaml:"audience" toml:"audience"`
	} `yaml:"auth" toml:"auth"`
	MCP struct {
		ProtocolVersion string        `yaml:"protocol_version" toml:"protocol_version"`
		AllowOrigins    []string      `yaml:"allow_origins" toml:"allow_origins"`
		SessionTTL      time.Duration `yaml:"session_ttl" toml:"session_ttl"`
	} `yaml:"mcp" toml:"mcp"`
	Client struct {
		EndpointURL string `yaml:"endpoint_url" toml:"endpoint_url"`
		Token       string `yaml:"token" toml:"token"`
	} `yaml:"client" toml:"client"`
	Log struct {
		Level string `yaml:"level" toml:"level"`
	} `yaml:"log" toml:"log"`
}

func Default() Config {
	var cfg Config
	cfg.HTTP.Addr = ":8080"
	cfg.HTTP.ReadHeaderTimeout = 5 * time.Second
	cfg.Generation.Provider = "noop"
	cfg.Generation.Temperature = 1.2
	cfg.Generation.MaxNewTokens = 64
	cfg.Generation.MinP = 0.1
	cfg.Generation.Timeout = 60 * time.Second
	cfg.Generation.AssistantMarker = DefaultAssistantMarker
	cfg.Generation.ReservedTokenPrefix = DefaultReservedTokenPrefix
	cfg.Generation.SystemPrompt = DefaultSystemPrompt
	cfg.Generation.UserPrompt = DefaultUserPrompt
	cfg.Judge.Provider = "noop"
	cfg.Judge.Model = "gpt-4o-mini"
	cfg.Judge.Temperature = 0.1
	cfg.Judge.MaxTokens = 500
	cfg.Judge.Timeout = 60 * time.Second
	cfg.Judge.ModerationCacheTTL = time.Hour
	cfg.MCP.ProtocolVersion = "2025-06-18"
	cfg.MCP.SessionTTL = 24 * time.Hour
	cfg.Log.Level = "info"
	return cfg
}

// Load reads the config file at path (YAML, or TOML when the extension is
// .toml), applies DS_* environment overrides and validates the result. A
// missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, err
			}
		} else if err := decode(path, data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		_, err := toml.Decode(string(data), cfg)
		return err
	default:
		return yaml.Unmarshal(data, cfg)
	}
}

var (
	generationProviders = []string{"noop", "tgi", "openai", "ollama"}
	judgeProviders      = []string{"noop", "openai", "ollama"}
)

func (c Config) Validate() error {
	var errs []error
	if !oneOf(c.Generation.Provider, generationProviders) {
		errs = append(errs, fmt.Errorf("unknown generation.provider %q (want one of %s)", c.Generation.Provider, strings.Join(generationProviders, ", ")))
	}
	if !oneOf(c.Judge.Provider, judgeProviders) {
		errs = append(errs, fmt.Errorf("unknown judge.provider %q (want one of %s)", c.Judge.Provider, strings.Join(judgeProviders, ", ")))
	}
	if c.Generation.MaxNewTokens <= 0 {
		errs = append(errs, errors.New("generation.max_new_tokens must be positive"))
	}
	if c.Evaluation.SampleRate < 0 || c.Evaluation.SampleRate > 1 {
		errs = append(errs, fmt.Errorf("evaluation.sample_rate %v outside [0,1]", c.Evaluation.SampleRate))
	}
	if c.MCP.SessionTTL <= 0 {
		errs = append(errs, errors.New("mcp.session_ttl must be positive"))
	}
	if c.HTTP.RateLimitRPM < 0 {
		errs = append(errs, errors.New("http.rate_limit_rpm must not be negative"))
	}
	if c.Generation.Provider == "tgi" && c.Generation.BaseURL == "" {
		errs = append(errs, errors.New("generation.base_url is required for provider \"tgi\""))
	}
	return errors.Join(errs...)
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("DS_HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("DS_HTTP_RATE_LIMIT_RPM"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimitRPM = n
		}
	}
	if v := os.Getenv("DS_GEN_PROVIDER"); v != "" {
		cfg.Generation.Provider = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("DS_GEN_BASE_URL"); v != "" {
		cfg.Generation.BaseURL = v
	}
	if v := os.Getenv("DS_GEN_API_KEY"); v != "" {
		cfg.Generation.APIKey = v
	}
	if v := os.Getenv("DS_GEN_MODEL"); v != "" {
		cfg.Generation.Model = v
	}
	if v := os.Getenv("DS_GEN_TEMPERATURE"); v != "" {
		cfg.Generation.Temperature = parseFloat(v, cfg.Generation.Temperature)
	}
	if v := os.Getenv("DS_GEN_MAX_NEW_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Generation.MaxNewTokens = n
		}
	}
	if v := os.Getenv("DS_GEN_MIN_P"); v != "" {
		cfg.Generation.MinP = parseFloat(v, cfg.Generation.MinP)
	}
	if v := os.Getenv("DS_GEN_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Generation.Timeout = d
		}
	}
	if v := os.Getenv("DS_JUDGE_PROVIDER"); v != "" {
		cfg.Judge.Provider = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("DS_JUDGE_BASE_URL"); v != "" {
		cfg.Judge.BaseURL = v
	}
	if v := os.Getenv("DS_JUDGE_API_KEY"); v != "" {
		cfg.Judge.APIKey = v
	} else if v := os.Getenv("OPENAI_API_KEY"); v != "" && cfg.Judge.APIKey == "" {
		cfg.Judge.APIKey = v
	}
	if v := os.Getenv("DS_JUDGE_MODEL"); v != "" {
		cfg.Judge.Model = v
	}
	if v := os.Getenv("DS_POLICY_PATH"); v != "" {
		cfg.Policy.Path = v
	}
	if v := os.Getenv("DS_DB_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("DS_REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("DS_EVAL_SAMPLE_RATE"); v != "" {
		cfg.Evaluation.SampleRate = parseFloat(v, cfg.Evaluation.SampleRate)
	}
	if v := os.Getenv("DS_API_KEY"); v != "" {
		cfg.Security.APIKey = v
	}
	if v := os.Getenv("DS_TOKEN_SIGNING_KEY"); v != "" {
		cfg.Security.TokenSigningKey = v
	}
	if v := os.Getenv("DS_AUTH_ISSUER"); v != "" {
		cfg.Auth.Issuer = v
	}
	if v := os.Getenv("DS_AUTH_AUDIENCE"); v != "" {
		cfg.Auth.Audience = v
	}
	if v := os.Getenv("DS_ENDPOINT_URL"); v != "" {
		cfg.Client.EndpointURL = v
	}
	if v := os.Getenv("DS_ENDPOINT_TOKEN"); v != "" {
		cfg.Client.Token = v
	}
	if v := os.Getenv("DS_MCP_PROTOCOL_VERSION"); v != "" {
		cfg.MCP.ProtocolVersion = v
	}
	if v := os.Getenv("DS_MCP_ALLOW_ORIGINS"); v != "" {
		cfg.MCP.AllowOrigins = splitCSV(v)
	}
	if v := os.Getenv("DS_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

func parseFloat(input string, fallback float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(input), 64)
	if err != nil {
		return fallback
	}
	return f
}

func splitCSV(input string) []string {
	var out []string
	for _, part := range strings.Split(input, ",") {
		if val := strings.TrimSpace(part); val != "" {
			out = append(out, val)
		}
	}
	return out
}

func oneOf(value string, options []string) bool {
	for _, opt := range options {
		if value == opt {
			return true
		}
	}
	return false
}

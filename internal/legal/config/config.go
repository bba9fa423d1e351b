package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/longkey1/legalc/internal/legal"
)

// Config holds the configuration for legalc
type Config struct {
	Model                 string   `toml:"model" mapstructure:"model"` // Format: "provider:model" (e.g., "gemini:gemini-2.0-flash")
	GeminiBaseURL         string   `toml:"gemini_base_url" mapstructure:"gemini_base_url"`
	GeminiToken           string   `toml:"gemini_token" mapstructure:"gemini_token"`
	OpenAIBaseURL         string   `toml:"openai_base_url" mapstructure:"openai_base_url"`
	OpenAIToken           string   `toml:"openai_token" mapstructure:"openai_token"`
	AnthropicBaseURL      string   `toml:"anthropic_base_url" mapstructure:"anthropic_base_url"`
	AnthropicToken        string   `toml:"anthropic_token" mapstructure:"anthropic_token"`
	OllamaBaseURL         string   `toml:"ollama_base_url" mapstructure:"ollama_base_url"`
	OllamaToken           string   `toml:"ollama_token" mapstructure:"ollama_token"`
	PromptDirs            []string `toml:"prompt_dirs" mapstructure:"prompt_dirs"`
	RequestTimeoutSeconds int      `toml:"request_timeout_seconds" mapstructure:"request_timeout_seconds"`
	RequestsPerMinute     int      `toml:"requests_per_minute" mapstructure:"requests_per_minute"` // 0 = unlimited
	DocumentContextLimit  int      `toml:"document_context_limit" mapstructure:"document_context_limit"`
	MaxUploadMB           int      `toml:"max_upload_mb" mapstructure:"max_upload_mb"`
	ExportDir             string   `toml:"export_dir" mapstructure:"export_dir"`
	ServerAddr            string   `toml:"server_addr" mapstructure:"server_addr"`
}

// Keys lists every config key in display order.
var Keys = []string{
	"model",
	"gemini_base_url", "gemini_token",
	"openai_base_url", "openai_token",
	"anthropic_base_url", "anthropic_token",
	"ollama_base_url", "ollama_token",
	"prompt_dirs",
	"request_timeout_seconds", "requests_per_minute",
	"document_context_limit", "max_upload_mb",
	"export_dir", "server_addr",
}

// GetProvider extracts provider name from the model string
func (c *Config) GetProvider() (string, error) {
	provider, _, err := legal.ParseModelString(c.Model)
	return provider, err
}

// GetModelName extracts model name from the model string
func (c *Config) GetModelName() (string, error) {
	_, model, err := legal.ParseModelString(c.Model)
	return model, err
}

// RequestTimeout returns the per-call completion timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// MaxUploadBytes returns the upload size limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// NewDefaultConfig returns a new Config with default values
func NewDefaultConfig(promptDir, exportDir string) *Config {
	return &Config{
		Model:                 "gemini:gemini-2.0-flash",
		GeminiBaseURL:         "https://generativelanguage.googleapis.com/v1beta",
		GeminiToken:           "$GEMINI_API_KEY", // Default to env var
		OpenAIBaseURL:         "https://api.openai.com/v1",
		OpenAIToken:           "$OPENAI_API_KEY",
		AnthropicBaseURL:      "https://api.anthropic.com/v1",
		AnthropicToken:        "$ANTHROPIC_API_KEY",
		OllamaBaseURL:         "http://localhost:11434/v1",
		OllamaToken:           "ollama",
		PromptDirs:            []string{promptDir},
		RequestTimeoutSeconds: 60,
		RequestsPerMinute:     0,
		DocumentContextLimit:  500,
		MaxUploadMB:           10,
		ExportDir:             exportDir,
		ServerAddr:            ":8080",
	}
}

// SetDefaults registers the default values with viper
func SetDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("model", cfg.Model)
	v.SetDefault("gemini_base_url", cfg.GeminiBaseURL)
	v.SetDefault("gemini_token", cfg.GeminiToken)
	v.SetDefault("openai_base_url", cfg.OpenAIBaseURL)
	v.SetDefault("openai_token", cfg.OpenAIToken)
	v.SetDefault("anthropic_base_url", cfg.AnthropicBaseURL)
	v.SetDefault("anthropic_token", cfg.AnthropicToken)
	v.SetDefault("ollama_base_url", cfg.OllamaBaseURL)
	v.SetDefault("ollama_token", cfg.OllamaToken)
	v.SetDefault("prompt_dirs", cfg.PromptDirs)
	v.SetDefault("request_timeout_seconds", cfg.RequestTimeoutSeconds)
	v.SetDefault("requests_per_minute", cfg.RequestsPerMinute)
	v.SetDefault("document_context_limit", cfg.DocumentContextLimit)
	v.SetDefault("max_upload_mb", cfg.MaxUploadMB)
	v.SetDefault("export_dir", cfg.ExportDir)
	v.SetDefault("server_addr", cfg.ServerAddr)
}

// LoadConfig loads configuration from viper
func LoadConfig(v *viper.Viper) (*Config, error) {
	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Expand environment variable references in tokens and base URLs
	for _, field := range []*string{
		&config.GeminiBaseURL, &config.GeminiToken,
		&config.OpenAIBaseURL, &config.OpenAIToken,
		&config.AnthropicBaseURL, &config.AnthropicToken,
		&config.OllamaBaseURL, &config.OllamaToken,
	} {
		*field = expandEnvVar(*field)
	}

	// Convert prompt directories to absolute paths
	for i, promptDir := range config.PromptDirs {
		absPath, err := ResolvePath(v, promptDir)
		if err != nil {
			return nil, fmt.Errorf("error resolving prompt directory path '%s': %w", promptDir, err)
		}
		config.PromptDirs[i] = absPath
	}

	if config.ExportDir != "" {
		absPath, err := ResolvePath(v, config.ExportDir)
		if err != nil {
			return nil, fmt.Errorf("error resolving export directory path '%s': %w", config.ExportDir, err)
		}
		config.ExportDir = absPath
	}

	if config.RequestTimeoutSeconds < 0 {
		return nil, fmt.Errorf("request_timeout_seconds must not be negative: %d", config.RequestTimeoutSeconds)
	}
	if config.MaxUploadMB <= 0 {
		return nil, fmt.Errorf("max_upload_mb must be positive: %d", config.MaxUploadMB)
	}

	return config, nil
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// expandEnvVar expands environment variable references in the given value
// Supports both $VAR and ${VAR} syntax
// If the environment variable is not set, returns empty string.
func expandEnvVar(value string) string {
	if !strings.HasPrefix(value, "$") {
		return value
	}

	var envVarName string
	if strings.HasPrefix(value, "${") && strings.HasSuffix(value, "}") {
		envVarName = value[2 : len(value)-1]
	} else {
		envVarName = strings.TrimPrefix(value, "$")
	}

	return os.Getenv(envVarName)
}

// GetBaseURL returns the base URL for the specified provider
// Environment variables are already expanded during LoadConfig()
func (c *Config) GetBaseURL(provider string) (string, error) {
	var baseURLValue string
	switch provider {
	case "gemini":
		baseURLValue = c.GeminiBaseURL
	case "openai":
		baseURLValue = c.OpenAIBaseURL
	case "anthropic":
		baseURLValue = c.AnthropicBaseURL
	case "ollama":
		baseURLValue = c.OllamaBaseURL
	default:
		return "", fmt.Errorf("unsupported provider: %s", provider)
	}

	if baseURLValue == "" {
		return "", fmt.Errorf("%s base URL is not configured. Set it in config file (%s_base_url) or environment variable (LEGALC_%s_BASE_URL)", provider, provider, strings.ToUpper(provider))
	}

	return baseURLValue, nil
}

// GetToken returns the token for the specified provider
// Environment variables are already expanded during LoadConfig()
func (c *Config) GetToken(provider string) (string, error) {
	var tokenValue string
	switch provider {
	case "gemini":
		tokenValue = c.GeminiToken
	case "openai":
		tokenValue = c.OpenAIToken
	case "anthropic":
		tokenValue = c.AnthropicToken
	case "ollama":
		tokenValue = c.OllamaToken
	default:
		return "", fmt.Errorf("unsupported provider: %s", provider)
	}

	if tokenValue == "" {
		return "", fmt.Errorf("%s token is not configured. Set it in config file (%s_token) or environment variable (LEGALC_%s_TOKEN)", provider, provider, strings.ToUpper(provider))
	}

	return tokenValue, nil
}

// MaskToken hides all but the last four characters of a token
func MaskToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(token)-4) + token[len(token)-4:]
}

// ResolvePath converts a relative path to absolute path if needed
// Relative paths are resolved against the directory of the config file in use
func ResolvePath(v *viper.Viper, path string) (string, error) {
	if filepath.IsAbs(path) {
		return path, nil
	}

	configFile := v.ConfigFileUsed()
	if configFile == "" {
		// If no config file is used, fall back to current working directory
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("error getting current working directory: %w", err)
		}
		return filepath.Join(cwd, path), nil
	}

	configDir := filepath.Dir(configFile)
	if !filepath.IsAbs(configDir) {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("error getting current working directory: %w", err)
		}
		configDir = filepath.Join(cwd, configDir)
	}

	return filepath.Join(configDir, path), nil
}

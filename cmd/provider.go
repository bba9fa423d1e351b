package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/longkey1/legalc/internal/anthropic"
	"github.com/longkey1/legalc/internal/gemini"
	"github.com/longkey1/legalc/internal/legal"
	"github.com/longkey1/legalc/internal/legal/completion"
	"github.com/longkey1/legalc/internal/legal/config"
	"github.com/longkey1/legalc/internal/legal/prompt"
	"github.com/longkey1/legalc/internal/ollama"
	"github.com/longkey1/legalc/internal/openai"
)

// supportedProviders lists every provider name in display order
var supportedProviders = []string{gemini.ProviderName, openai.ProviderName, anthropic.ProviderName, ollama.ProviderName}

// newProvider creates a new provider instance based on the configuration
func newProvider(cfg *config.Config, logger *zap.Logger) (legal.Provider, error) {
	providerName, err := cfg.GetProvider()
	if err != nil {
		return nil, fmt.Errorf("invalid model format: %w", err)
	}
	return providerByName(providerName, cfg, logger)
}

func providerByName(name string, cfg *config.Config, logger *zap.Logger) (legal.Provider, error) {
	var provider legal.Provider
	switch name {
	case openai.ProviderName:
		provider = openai.NewProvider(cfg, openai.WithLogger(logger))
	case gemini.ProviderName:
		provider = gemini.NewProvider(cfg, gemini.WithLogger(logger))
	case anthropic.ProviderName:
		provider = anthropic.NewProvider(cfg, anthropic.WithLogger(logger))
	case ollama.ProviderName:
		provider = ollama.NewProvider(cfg, ollama.WithLogger(logger))
	default:
		return nil, fmt.Errorf("unsupported provider: %s\nSupported providers: %s", name, strings.Join(supportedProviders, ", "))
	}
	provider.SetDebug(verbose)
	return provider, nil
}

// newClient wraps the configured provider in a completion client
func newClient(cfg *config.Config, logger *zap.Logger) (*completion.Client, error) {
	provider, err := newProvider(cfg, logger)
	if err != nil {
		return nil, err
	}
	providerName, _ := cfg.GetProvider()

	return completion.NewClient(provider,
		completion.WithTimeout(cfg.RequestTimeout()),
		completion.WithRateLimit(cfg.RequestsPerMinute),
		completion.WithLogger(logger),
		completion.WithProviderName(providerName),
	), nil
}

// loadPrompts resolves the built-in templates against the prompt directories
func loadPrompts(cfg *config.Config) (*prompt.Set, error) {
	set, err := prompt.Resolve(cfg.PromptDirs)
	if err != nil {
		return nil, fmt.Errorf("loading prompt templates: %w", err)
	}
	return set, nil
}

// backend bundles what every model-backed command needs
type backend struct {
	cfg     *config.Config
	logger  *zap.Logger
	client  *completion.Client
	prompts *prompt.Set
}

func newBackend(cmd *cobra.Command) (*backend, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	logger, err := newLogger()
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	client, err := newClient(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("creating provider: %w", err)
	}

	prompts, err := loadPrompts(cfg)
	if err != nil {
		return nil, err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Model: %s\n", cfg.Model)
	}
	return &backend{cfg: cfg, logger: logger, client: client, prompts: prompts}, nil
}

func (b *backend) close() {
	_ = b.logger.Sync()
}

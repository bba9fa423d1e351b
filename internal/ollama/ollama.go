// Package ollama talks to a local OpenAI-compatible server (Ollama, LM Studio,
// vLLM) through langchaingo.
package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"sort"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"

	"github.com/longkey1/legalc/internal/legal"
)

const (
	ProviderName   = "ollama"
	DefaultBaseURL = "http://localhost:11434/v1"
	DefaultModel   = "llama3.1:8b"
)

var errStopped = errors.New("stream consumer stopped")

// Config defines the configuration interface for the Ollama provider
type Config interface {
	GetModelName() (string, error)
	GetBaseURL(provider string) (string, error)
	GetToken(provider string) (string, error)
}

// ModelsAPIResponse represents the response from the models endpoint
type ModelsAPIResponse struct {
	Data []struct {
		ID      string `json:"id"`
		OwnedBy string `json:"owned_by"`
	} `json:"data"`
}

// Provider implements the legal.StreamingProvider interface
type Provider struct {
	config     Config
	httpClient *http.Client
	logger     *zap.Logger
	debug      bool
}

// Option configures a Provider
type Option func(*Provider)

// WithHTTPClient sets the HTTP client used for API calls
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) {
		if c != nil {
			p.httpClient = c
		}
	}
}

// WithLogger sets the logger used for debug output
func WithLogger(logger *zap.Logger) Option {
	return func(p *Provider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewProvider creates a new Ollama provider instance
func NewProvider(config Config, opts ...Option) *Provider {
	p := &Provider{
		config:     config,
		httpClient: http.DefaultClient,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SetDebug enables or disables debug mode
func (p *Provider) SetDebug(enabled bool) {
	p.debug = enabled
}

func (p *Provider) llm() (*openai.LLM, error) {
	model, err := p.config.GetModelName()
	if err != nil {
		return nil, fmt.Errorf("invalid model format: %w", err)
	}
	baseURL, err := p.config.GetBaseURL(ProviderName)
	if err != nil {
		return nil, fmt.Errorf("failed to get base URL: %w", err)
	}
	token, err := p.config.GetToken(ProviderName)
	if err != nil {
		return nil, fmt.Errorf("failed to get token: %w", err)
	}

	llm, err := openai.New(
		openai.WithToken(token),
		openai.WithBaseURL(baseURL),
		openai.WithModel(model),
		openai.WithHTTPClient(p.httpClient),
	)
	if err != nil {
		return nil, fmt.Errorf("error creating client: %w", err)
	}
	return llm, nil
}

// Generate sends the prompt and returns the whole response
func (p *Provider) Generate(ctx context.Context, prompt string) (string, error) {
	llm, err := p.llm()
	if err != nil {
		return "", err
	}

	completion, err := llms.GenerateFromSinglePrompt(ctx, llm, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to generate completion: %w", err)
	}
	if p.debug {
		p.logger.Debug("completion received", zap.String("provider", ProviderName), zap.Int("length", len(completion)))
	}
	if strings.TrimSpace(completion) == "" {
		return "", fmt.Errorf("no response from API")
	}
	return completion, nil
}

// GenerateStream sends the prompt and yields chunks as the server streams them
func (p *Provider) GenerateStream(ctx context.Context, prompt string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		llm, err := p.llm()
		if err != nil {
			yield("", err)
			return
		}

		stopped := false
		_, err = llms.GenerateFromSinglePrompt(ctx, llm, prompt,
			llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
				if len(chunk) == 0 {
					return nil
				}
				if !yield(string(chunk), nil) {
					stopped = true
					return errStopped
				}
				return nil
			}),
		)
		if err != nil && !stopped {
			yield("", fmt.Errorf("failed to stream completion: %w", err))
		}
	}
}

// ListModels returns the models the server has pulled
func (p *Provider) ListModels(ctx context.Context) ([]legal.ModelInfo, error) {
	baseURL, err := p.config.GetBaseURL(ProviderName)
	if err != nil {
		return nil, fmt.Errorf("failed to get base URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimSuffix(baseURL, "/")+"/models", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		if p.debug {
			return nil, fmt.Errorf("failed to connect to API: %w", err)
		}
		return nil, fmt.Errorf("failed to connect to API. Is the server running at %s?", baseURL)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API request failed (HTTP %d)", resp.StatusCode)
	}

	var result ModelsAPIResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse API response: %w", err)
	}

	models := make([]legal.ModelInfo, 0, len(result.Data))
	for _, m := range result.Data {
		models = append(models, legal.ModelInfo{ID: m.ID, Description: m.OwnedBy})
	}
	sort.Slice(models, func(i, j int) bool {
		return models[i].ID < models[j].ID
	})
	return models, nil
}

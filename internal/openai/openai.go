package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/longkey1/legalc/internal/legal"
)

const (
	ProviderName   = "openai"
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4.1"
)

// Model families supported by the Responses API
var responsesAPISupportedModels = []string{
	"gpt-4o",
	"gpt-4.1",
	"o3",
	"o4-mini",
	"gpt-5",
}

// ResponsesAPIRequest represents the request body for OpenAI's Responses API
type ResponsesAPIRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

// ResponsesAPIResponse represents the response from OpenAI's Responses API
type ResponsesAPIResponse struct {
	Output []ResponsesAPIOutput `json:"output"`
	Error  *ResponsesAPIError   `json:"error,omitempty"`
}

// ResponsesAPIOutput represents an output element
type ResponsesAPIOutput struct {
	Type    string                `json:"type"`
	Content []ResponsesAPIContent `json:"content"`
}

// ResponsesAPIContent represents a content block of an output message
type ResponsesAPIContent struct {
	Type    string `json:"type"`
	Text    string `json:"text"`
	Refusal string `json:"refusal,omitempty"`
}

// ResponsesAPIError represents an error object in the response
type ResponsesAPIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ModelsAPIResponse represents the response from OpenAI's models endpoint
type ModelsAPIResponse struct {
	Data []ModelData `json:"data"`
}

// ModelData represents a single model in the API response
type ModelData struct {
	ID      string `json:"id"`
	OwnedBy string `json:"owned_by"`
}

// Config defines the configuration interface for OpenAI provider
type Config interface {
	GetModelName() (string, error)
	GetBaseURL(provider string) (string, error)
	GetToken(provider string) (string, error)
}

// Provider implements the legal.Provider interface for OpenAI
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

// NewProvider creates a new OpenAI provider instance
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

// isResponsesAPISupported checks if the model is supported by Responses API
func isResponsesAPISupported(model string) bool {
	for _, supported := range responsesAPISupportedModels {
		if strings.HasPrefix(model, supported) {
			return true
		}
	}
	return false
}

// ListModels returns the Responses API capable models from the API
func (p *Provider) ListModels(ctx context.Context) ([]legal.ModelInfo, error) {
	body, err := p.do(ctx, http.MethodGet, "/models", nil)
	if err != nil {
		return nil, err
	}

	var result ModelsAPIResponse
	if err := json.Unmarshal(body, &result); err != nil {
		if p.debug {
			return nil, fmt.Errorf("failed to parse API response: %w\nRaw response: %s", err, string(body))
		}
		return nil, fmt.Errorf("failed to parse API response. Use --verbose for details")
	}

	models := make([]legal.ModelInfo, 0, len(result.Data))
	for _, model := range result.Data {
		if !isResponsesAPISupported(model.ID) {
			continue
		}
		models = append(models, legal.ModelInfo{
			ID:          model.ID,
			Description: model.OwnedBy,
		})
	}

	// Sort models by ID (descending order)
	sort.Slice(models, func(i, j int) bool {
		return models[i].ID > models[j].ID
	})

	return models, nil
}

// Generate sends the prompt to OpenAI's Responses API and returns the response
func (p *Provider) Generate(ctx context.Context, prompt string) (string, error) {
	model, err := p.config.GetModelName()
	if err != nil {
		return "", fmt.Errorf("invalid model format: %w", err)
	}

	// Check model compatibility
	if !isResponsesAPISupported(model) {
		return "", fmt.Errorf(`model '%s' is not supported with Responses API.

Supported models: gpt-4o, gpt-4.1, o3, o4-mini, gpt-5 series

Please change your model with --model flag or in config file.
Example: legalc chat --model openai:gpt-4o "your question"`, model)
	}

	jsonData, err := json.Marshal(ResponsesAPIRequest{Model: model, Input: prompt})
	if err != nil {
		return "", fmt.Errorf("error marshaling request: %w", err)
	}

	body, err := p.do(ctx, http.MethodPost, "/responses", jsonData)
	if err != nil {
		return "", err
	}

	if p.debug {
		p.logger.Debug("raw API response", zap.String("provider", ProviderName), zap.ByteString("body", body))
	}

	var result ResponsesAPIResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("error parsing response: %w", err)
	}

	if result.Error != nil {
		return "", fmt.Errorf("API error: %s", result.Error.Message)
	}

	// Collect output text; reasoning items carry no content
	var texts []string
	for _, output := range result.Output {
		for _, content := range output.Content {
			if content.Refusal != "" {
				return "", fmt.Errorf("request refused by model: %s", content.Refusal)
			}
			if content.Text != "" {
				texts = append(texts, content.Text)
			}
		}
	}

	if len(texts) == 0 {
		return "", fmt.Errorf("no response from API")
	}

	return strings.Join(texts, "\n"), nil
}

// do sends an authenticated request and returns the body of a 200 response
func (p *Provider) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	token, err := p.config.GetToken(ProviderName)
	if err != nil {
		return nil, fmt.Errorf("failed to get token: %w", err)
	}

	baseURL, err := p.config.GetBaseURL(ProviderName)
	if err != nil {
		return nil, fmt.Errorf("failed to get base URL: %w", err)
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if p.debug {
			return nil, fmt.Errorf("API error (HTTP %d): %s", resp.StatusCode, string(body))
		}
		return nil, fmt.Errorf("API error (HTTP %d). Use --verbose for details", resp.StatusCode)
	}

	return body, nil
}

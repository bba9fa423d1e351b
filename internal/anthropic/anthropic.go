package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/longkey1/legalc/internal/legal"
)

const (
	ProviderName     = "anthropic"
	DefaultBaseURL   = "https://api.anthropic.com/v1"
	DefaultModel     = "claude-3-5-sonnet-20241022"
	AnthropicVersion = "2023-06-01"
	DefaultMaxTokens = 8192
)

// ModelsAPIResponse represents the response from Anthropic's models endpoint
type ModelsAPIResponse struct {
	Data []ModelData `json:"data"`
}

// ModelData represents a single model in the API response
type ModelData struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// MessagesAPIRequest represents the request body for Anthropic's Messages API
type MessagesAPIRequest struct {
	Model     string         `json:"model"`
	MaxTokens int            `json:"max_tokens"`
	Messages  []MessageInput `json:"messages"`
}

// MessageInput represents a message in the conversation
type MessageInput struct {
	Role    string    `json:"role"`    // "user" or "assistant"
	Content []Content `json:"content"` // Array of content blocks
}

// Content represents a content block
type Content struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// MessagesAPIResponse represents the response from Anthropic's Messages API
type MessagesAPIResponse struct {
	ID         string    `json:"id"`
	Content    []Content `json:"content"`
	StopReason string    `json:"stop_reason"`
	Usage      Usage     `json:"usage"`
	Error      *APIError `json:"error,omitempty"`
}

// Usage represents token usage information
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// APIError represents an error in the API response
type APIError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Config defines the configuration interface for Anthropic provider
type Config interface {
	GetModelName() (string, error)
	GetBaseURL(provider string) (string, error)
	GetToken(provider string) (string, error)
}

// Provider implements the legal.Provider interface for Anthropic
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

// NewProvider creates a new Anthropic provider instance
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

// ListModels returns the list of supported models from the API
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
		// Use display name as description if available
		description := model.DisplayName
		if description == "" && !model.CreatedAt.IsZero() {
			description = fmt.Sprintf("Created: %s", model.CreatedAt.UTC().Format("2006-01-02"))
		}

		models = append(models, legal.ModelInfo{
			ID:          model.ID,
			Description: description,
			IsDefault:   false, // Set by caller
		})
	}

	// Sort models by ID (descending order)
	sort.Slice(models, func(i, j int) bool {
		return models[i].ID > models[j].ID
	})

	return models, nil
}

// Generate sends the prompt to Anthropic's Messages API and returns the response
func (p *Provider) Generate(ctx context.Context, prompt string) (string, error) {
	modelName, err := p.config.GetModelName()
	if err != nil {
		return "", fmt.Errorf("invalid model format: %w", err)
	}

	reqBody := MessagesAPIRequest{
		Model:     modelName,
		MaxTokens: DefaultMaxTokens,
		Messages: []MessageInput{
			{
				Role:    "user",
				Content: []Content{{Type: "text", Text: prompt}},
			},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("error marshaling request: %w", err)
	}

	body, err := p.do(ctx, http.MethodPost, "/messages", jsonData)
	if err != nil {
		return "", err
	}

	var result MessagesAPIResponse
	if err := json.Unmarshal(body, &result); err != nil {
		if p.debug {
			return "", fmt.Errorf("failed to parse API response: %w\nRaw response: %s", err, string(body))
		}
		return "", fmt.Errorf("failed to parse API response. Use --verbose for details")
	}

	if p.debug {
		p.logger.Debug("API response",
			zap.String("provider", ProviderName),
			zap.String("id", result.ID),
			zap.String("stop_reason", result.StopReason),
			zap.Int("input_tokens", result.Usage.InputTokens),
			zap.Int("output_tokens", result.Usage.OutputTokens))
	}

	// Check for API error in response
	if result.Error != nil {
		return "", fmt.Errorf("API error: %s", result.Error.Message)
	}

	// Extract text from content blocks
	var textBlocks []string
	for _, content := range result.Content {
		if content.Type == "text" && content.Text != "" {
			textBlocks = append(textBlocks, content.Text)
		}
	}

	if len(textBlocks) == 0 {
		if p.debug {
			return "", fmt.Errorf("no text content found in API response (id=%s)\nRaw response: %s", result.ID, string(body))
		}
		return "", fmt.Errorf("no text content found in API response. Use --verbose for details")
	}

	return strings.Join(textBlocks, "\n"), nil
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
	req.Header.Set("x-api-key", token)
	req.Header.Set("anthropic-version", AnthropicVersion)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		if p.debug {
			return nil, fmt.Errorf("failed to connect to API: %w", err)
		}
		return nil, fmt.Errorf("failed to connect to API. Use --verbose for details: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		// Try to parse error message
		var errResp MessagesAPIResponse
		if json.Unmarshal(body, &errResp) == nil && errResp.Error != nil {
			if p.debug {
				return nil, fmt.Errorf("API error [%s]: %s (HTTP %d)", errResp.Error.Type, errResp.Error.Message, resp.StatusCode)
			}
			return nil, fmt.Errorf("API error: %s", errResp.Error.Message)
		}

		if p.debug {
			return nil, fmt.Errorf("API request failed (HTTP %d): %s", resp.StatusCode, string(body))
		}
		return nil, fmt.Errorf("API request failed (HTTP %d). Use --verbose for details", resp.StatusCode)
	}

	return body, nil
}

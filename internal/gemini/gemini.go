package gemini

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"net/http"
	"slices"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/longkey1/legalc/internal/legal"
)

const (
	ProviderName   = "gemini"
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel   = "gemini-2.0-flash"
)

// ModelsAPIResponse represents the response from Gemini's models endpoint
type ModelsAPIResponse struct {
	Models []GeminiModelData `json:"models"`
}

// GeminiModelData represents a single model in the API response
type GeminiModelData struct {
	Name                       string   `json:"name"`
	DisplayName                string   `json:"displayName"`
	Description                string   `json:"description"`
	SupportedGenerationMethods []string `json:"supportedGenerationMethods"`
}

// GeminiRequest represents the request body for Gemini's generate content API
type GeminiRequest struct {
	Contents []GeminiContent `json:"contents"`
}

// GeminiContent represents a content item in the Gemini request format
type GeminiContent struct {
	Role  string       `json:"role,omitempty"` // "user" or "model"
	Parts []GeminiPart `json:"parts"`
}

// GeminiPart represents a part of the content
type GeminiPart struct {
	Text string `json:"text"`
}

// GeminiResponse represents one response (or one streamed chunk) from Gemini API
type GeminiResponse struct {
	Candidates     []GeminiCandidate     `json:"candidates"`
	PromptFeedback *GeminiPromptFeedback `json:"promptFeedback,omitempty"`
}

// GeminiCandidate represents a candidate response
type GeminiCandidate struct {
	Content      GeminiContent `json:"content"`
	FinishReason string        `json:"finishReason,omitempty"`
}

// GeminiPromptFeedback is set when the prompt itself was blocked
type GeminiPromptFeedback struct {
	BlockReason string `json:"blockReason,omitempty"`
}

// Config defines the configuration interface for Gemini provider
type Config interface {
	GetModelName() (string, error)
	GetBaseURL(provider string) (string, error)
	GetToken(provider string) (string, error)
}

// Provider implements the legal.StreamingProvider interface for Gemini
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

// NewProvider creates a new Gemini provider instance
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
	token, err := p.config.GetToken(ProviderName)
	if err != nil {
		return nil, fmt.Errorf("failed to get token: %w", err)
	}

	baseURL, err := p.config.GetBaseURL(ProviderName)
	if err != nil {
		return nil, fmt.Errorf("failed to get base URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/models", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("x-goog-api-key", token)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		if p.debug {
			return nil, fmt.Errorf("failed to connect to API: %w", err)
		}
		return nil, fmt.Errorf("failed to connect to API. Use --verbose for details")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if p.debug {
			return nil, fmt.Errorf("API request failed (HTTP %d): %s", resp.StatusCode, string(body))
		}
		return nil, fmt.Errorf("API request failed (HTTP %d). Use --verbose for details", resp.StatusCode)
	}

	var result ModelsAPIResponse
	if err := json.Unmarshal(body, &result); err != nil {
		if p.debug {
			return nil, fmt.Errorf("failed to parse API response: %w\nRaw response: %s", err, string(body))
		}
		return nil, fmt.Errorf("failed to parse API response. Use --verbose for details")
	}

	models := make([]legal.ModelInfo, 0, len(result.Models))
	for _, model := range result.Models {
		// Only include models that support generateContent
		if !slices.Contains(model.SupportedGenerationMethods, "generateContent") {
			continue
		}

		description := model.Description
		if description == "" {
			description = model.DisplayName
		}

		models = append(models, legal.ModelInfo{
			ID:          strings.TrimPrefix(model.Name, "models/"),
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

// Generate sends the prompt to Gemini's API and returns the whole response
func (p *Provider) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := p.post(ctx, "generateContent", prompt)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading response: %w", err)
	}

	if p.debug {
		p.logger.Debug("raw API response", zap.String("provider", ProviderName), zap.ByteString("body", body))
	}

	var result GeminiResponse
	if err := json.Unmarshal(body, &result); err != nil {
		if p.debug {
			return "", fmt.Errorf("error parsing response: %w\nRaw response: %s", err, string(body))
		}
		return "", fmt.Errorf("error parsing response: %w", err)
	}

	text, err := responseText(&result)
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", fmt.Errorf("no response from API (empty parts)")
	}
	return text, nil
}

// GenerateStream sends the prompt to Gemini's streaming endpoint and yields
// text chunks as they arrive
func (p *Provider) GenerateStream(ctx context.Context, prompt string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		resp, err := p.post(ctx, "streamGenerateContent?alt=sse", prompt)
		if err != nil {
			yield("", err)
			return
		}
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			data, ok := strings.CutPrefix(scanner.Text(), "data: ")
			if !ok {
				continue
			}

			var chunk GeminiResponse
			if err := json.Unmarshal([]byte(data), &chunk); err != nil {
				yield("", fmt.Errorf("error parsing stream chunk: %w", err))
				return
			}

			text, err := responseText(&chunk)
			if err != nil {
				yield("", err)
				return
			}
			if text == "" {
				continue
			}
			if !yield(text, nil) {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			yield("", fmt.Errorf("error reading stream: %w", err))
		}
	}
}

// post sends a generate request and checks the status code. The caller closes
// the body.
func (p *Provider) post(ctx context.Context, method, prompt string) (*http.Response, error) {
	reqBody := GeminiRequest{
		Contents: []GeminiContent{
			{
				Role:  "user",
				Parts: []GeminiPart{{Text: prompt}},
			},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("error marshaling request: %w", err)
	}

	modelName, err := p.config.GetModelName()
	if err != nil {
		return nil, fmt.Errorf("invalid model format: %w", err)
	}

	token, err := p.config.GetToken(ProviderName)
	if err != nil {
		return nil, fmt.Errorf("failed to get token: %w", err)
	}

	baseURL, err := p.config.GetBaseURL(ProviderName)
	if err != nil {
		return nil, fmt.Errorf("failed to get base URL: %w", err)
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	url := fmt.Sprintf("%s/models/%s:%s", baseURL, modelName, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", token)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		if p.debug {
			return nil, fmt.Errorf("API error (HTTP %d): %s", resp.StatusCode, string(body))
		}
		return nil, fmt.Errorf("API error (HTTP %d). Use --verbose for details", resp.StatusCode)
	}

	return resp, nil
}

// responseText returns the text of the first candidate. A blocked prompt or an
// empty candidate list is an error.
func responseText(result *GeminiResponse) (string, error) {
	if result.PromptFeedback != nil && result.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("prompt blocked by API: %s", result.PromptFeedback.BlockReason)
	}
	if len(result.Candidates) == 0 {
		return "", fmt.Errorf("no response from API (empty candidates)")
	}

	candidate := result.Candidates[0]
	if candidate.FinishReason == "SAFETY" {
		return "", fmt.Errorf("response blocked by API safety filter")
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String(), nil
}

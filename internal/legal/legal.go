// Package legal provides the core abstractions shared by the legal assistant:
// conversation messages, the Provider interface that every language-model backend
// (gemini, openai, anthropic, ollama) implements, and model string helpers.
package legal

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"time"
)

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// Message represents a single entry in a conversation transcript.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ModelInfo represents information about an available model from a provider.
type ModelInfo struct {
	ID          string // Model identifier (e.g., "gemini-2.0-flash")
	Description string // Human-readable description of the model
	IsDefault   bool   // Whether this is the default model for the provider
}

// Provider is the completion backend boundary. The backend is stateless between
// calls: every call receives the fully composed prompt.
//
// Example usage:
//
//	provider := gemini.NewProvider(cfg)
//	text, err := provider.Generate(ctx, "What is a force majeure clause?")
type Provider interface {
	// Generate sends a single prompt and returns the whole response text.
	Generate(ctx context.Context, prompt string) (string, error)

	// ListModels returns a list of available models for the provider.
	ListModels(ctx context.Context) ([]ModelInfo, error)

	// SetDebug enables or disables debug output.
	SetDebug(enabled bool)
}

// StreamingProvider is implemented by providers that can return a response
// incrementally. The sequence is finite and cannot be restarted.
type StreamingProvider interface {
	Provider
	GenerateStream(ctx context.Context, prompt string) iter.Seq2[string, error]
}

// ParseModelString parses a model string in "provider:model" format.
// Returns (provider, model, error).
//
// Example:
//
//	provider, model, err := ParseModelString("gemini:gemini-2.0-flash")
//	// provider = "gemini", model = "gemini-2.0-flash"
func ParseModelString(modelStr string) (string, string, error) {
	parts := strings.SplitN(modelStr, ":", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("invalid model format: %s (expected format: provider:model, e.g., gemini:gemini-2.0-flash)", modelStr)
	}

	provider := strings.TrimSpace(parts[0])
	model := strings.TrimSpace(parts[1])

	if provider == "" || model == "" {
		return "", "", fmt.Errorf("provider and model cannot be empty")
	}

	return provider, model, nil
}

// FormatModelString formats provider and model into "provider:model" format.
func FormatModelString(provider, model string) string {
	return fmt.Sprintf("%s:%s", provider, model)
}

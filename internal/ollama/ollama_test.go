package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	baseURL string
}

func (c testConfig) GetModelName() (string, error)              { return "llama3.1:8b", nil }
func (c testConfig) GetBaseURL(provider string) (string, error) { return c.baseURL, nil }
func (c testConfig) GetToken(provider string) (string, error)   { return "ollama", nil }

func chatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3.1:8b", req["model"])

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"id":"c1","object":"chat.completion","created":1,"model":"llama3.1:8b",
			"choices":[{"index":0,"message":{"role":"assistant","content":%q},"finish_reason":"stop"}],
			"usage":{"prompt_tokens":1,"completion_tokens":1,"total_tokens":2}}`, content)
	}))
}

func TestGenerate(t *testing.T) {
	srv := chatServer(t, "Consideration is something of value.")
	defer srv.Close()

	p := NewProvider(testConfig{baseURL: srv.URL})
	got, err := p.Generate(context.Background(), "What is consideration?")

	require.NoError(t, err)
	assert.Equal(t, "Consideration is something of value.", got)
}

func TestGenerateEmpty(t *testing.T) {
	srv := chatServer(t, "  ")
	defer srv.Close()

	p := NewProvider(testConfig{baseURL: srv.URL})
	_, err := p.Generate(context.Background(), "q")

	assert.Error(t, err)
}

func TestGenerateServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"model not found"}}`, http.StatusNotFound)
	}))
	defer srv.Close()

	p := NewProvider(testConfig{baseURL: srv.URL})
	_, err := p.Generate(context.Background(), "q")

	assert.Error(t, err)
}

func TestListModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		fmt.Fprint(w, `{"object":"list","data":[{"id":"mistral:7b","owned_by":"library"},{"id":"llama3.1:8b","owned_by":"library"}]}`)
	}))
	defer srv.Close()

	p := NewProvider(testConfig{baseURL: srv.URL + "/"})
	models, err := p.ListModels(context.Background())

	require.NoError(t, err)
	require.Len(t, models, 2)
	assert.Equal(t, "llama3.1:8b", models[0].ID)
	assert.Equal(t, "mistral:7b", models[1].ID)
}

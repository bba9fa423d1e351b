package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"iter"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/longkey1/legalc/internal/legal/completion"
	"github.com/longkey1/legalc/internal/legal/conversation"
	"github.com/longkey1/legalc/internal/legal/extract"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeCompleter struct {
	response string
	chunks   []string
	err      error
	started  chan struct{}
	release  chan struct{}
}

func (f *fakeCompleter) Complete(ctx context.Context, req completion.Request) (string, error) {
	if f.started != nil {
		f.started <- struct{}{}
		<-f.release
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return f.response, f.err
}

func (f *fakeCompleter) Stream(ctx context.Context, req completion.Request) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if err := ctx.Err(); err != nil {
			yield("", err)
			return
		}
		for _, chunk := range f.chunks {
			if !yield(chunk, nil) {
				return
			}
		}
	}
}

func newTestServer(fc *fakeCompleter) *Server {
	return New(Config{Client: fc})
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func createConversation(t *testing.T, h http.Handler) string {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/api/conversations", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var conv ConversationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &conv))
	assert.Equal(t, "idle", conv.State)
	assert.Empty(t, conv.Messages)
	return conv.ID.String()
}

func TestHealth(t *testing.T) {
	rec := doJSON(t, newTestServer(&fakeCompleter{}).Handler(), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestConversationFlow(t *testing.T) {
	h := newTestServer(&fakeCompleter{response: "It excuses performance."}).Handler()
	id := createConversation(t, h)

	rec := doJSON(t, h, http.MethodPost, "/api/conversations/"+id+"/messages",
		SendMessageRequest{Content: "What is a force majeure clause?"})
	require.Equal(t, http.StatusOK, rec.Code)

	var reply ReplyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
	require.NotNil(t, reply.Reply)
	assert.Equal(t, "It excuses performance.", reply.Reply.Content)
	assert.False(t, reply.Failed)

	rec = doJSON(t, h, http.MethodGet, "/api/conversations/"+id, nil)
	var conv ConversationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &conv))
	require.Len(t, conv.Messages, 2)
	assert.Equal(t, "What is a force majeure clause?", conv.Messages[0].Content)

	rec = doJSON(t, h, http.MethodGet, "/api/conversations/"+id+"/last-reply", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "It excuses performance.")

	rec = doJSON(t, h, http.MethodDelete, "/api/conversations/"+id+"/messages", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/conversations/"+id, nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &conv))
	assert.Empty(t, conv.Messages)

	rec = doJSON(t, h, http.MethodGet, "/api/conversations/"+id+"/last-reply", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSendMessageFailureReturnsFallback(t *testing.T) {
	h := newTestServer(&fakeCompleter{err: errors.New("HTTP 500")}).Handler()
	id := createConversation(t, h)

	rec := doJSON(t, h, http.MethodPost, "/api/conversations/"+id+"/messages", SendMessageRequest{Content: "hi"})
	require.Equal(t, http.StatusOK, rec.Code)

	var reply ReplyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
	assert.True(t, reply.Failed)
	assert.Equal(t, conversation.FallbackReply, reply.Reply.Content)
	assert.NotContains(t, rec.Body.String(), "HTTP 500")
}

func TestSendMessageErrors(t *testing.T) {
	h := newTestServer(&fakeCompleter{response: "x"}).Handler()
	id := createConversation(t, h)

	rec := doJSON(t, h, http.MethodPost, "/api/conversations/"+id+"/messages", SendMessageRequest{Content: "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/conversations/"+id+"/messages", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/conversations/not-a-uuid/messages", SendMessageRequest{Content: "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/conversations/6f1c8a52-2c1e-4f0e-9a43-1f1d6a1c0b11/messages", SendMessageRequest{Content: "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSendMessageBusy(t *testing.T) {
	fc := &fakeCompleter{response: "done", started: make(chan struct{}, 1), release: make(chan struct{})}
	h := newTestServer(fc).Handler()
	id := createConversation(t, h)

	done := make(chan int, 1)
	go func() {
		rec := doJSON(t, h, http.MethodPost, "/api/conversations/"+id+"/messages", SendMessageRequest{Content: "first"})
		done <- rec.Code
	}()
	<-fc.started

	rec := doJSON(t, h, http.MethodPost, "/api/conversations/"+id+"/messages", SendMessageRequest{Content: "second"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	close(fc.release)
	assert.Equal(t, http.StatusOK, <-done)
}

func TestSendMessageSurvivesClientDisconnect(t *testing.T) {
	h := newTestServer(&fakeCompleter{response: "It excuses performance.", chunks: []string{"It excuses ", "performance."}}).Handler()
	id := createConversation(t, h)

	for _, path := range []string{"/messages", "/stream"} {
		t.Run(path, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			body := strings.NewReader(`{"content":"What is force majeure?"}`)
			req := httptest.NewRequest(http.MethodPost, "/api/conversations/"+id+path, body).WithContext(ctx)
			req.Header.Set("Content-Type", "application/json")
			h.ServeHTTP(httptest.NewRecorder(), req)
		})
	}

	rec := doJSON(t, h, http.MethodGet, "/api/conversations/"+id, nil)
	var conv ConversationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &conv))
	require.Len(t, conv.Messages, 4)
	for _, msg := range conv.Messages {
		assert.NotEqual(t, conversation.FallbackReply, msg.Content)
	}
	assert.Equal(t, "It excuses performance.", conv.Messages[3].Content)
}

func TestStreamMessage(t *testing.T) {
	h := newTestServer(&fakeCompleter{chunks: []string{"Force ", "majeure."}}).Handler()
	id := createConversation(t, h)

	rec := doJSON(t, h, http.MethodPost, "/api/conversations/"+id+"/stream", SendMessageRequest{Content: "q"})
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Contains(t, body, "event:chunk\ndata:Force \n")
	assert.Contains(t, body, "event:chunk\ndata:majeure.\n")
	assert.Contains(t, body, "event:done\n")
	assert.Less(t, strings.Index(body, "event:chunk"), strings.Index(body, "event:done"))
}

func TestSetDocument(t *testing.T) {
	h := newTestServer(&fakeCompleter{response: "x"}).Handler()
	id := createConversation(t, h)

	rec := doJSON(t, h, http.MethodPut, "/api/conversations/"+id+"/document", DocumentRequest{Text: " This NDA lasts 2 years. "})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"document_length":23}`, rec.Body.String())
}

func TestAssessRisk(t *testing.T) {
	h := newTestServer(&fakeCompleter{response: "Balanced.\nRisk Score: 3/10"}).Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/risk", WorkflowRequest{Document: "This NDA lasts 2 years..."})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Result string        `json:"result"`
		Score  ScoreResponse `json:"score"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Score.Value)
	assert.Equal(t, 3, *resp.Score.Value)
	assert.True(t, resp.Score.Parsed)
	assert.Equal(t, "low", resp.Score.Level)
}

func TestAssessRiskUnscored(t *testing.T) {
	h := newTestServer(&fakeCompleter{response: "No score given."}).Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/risk", WorkflowRequest{Document: "doc"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"score":{"parsed":false,"level":"unknown"}`)
}

func TestWorkflowErrors(t *testing.T) {
	tests := []struct {
		name   string
		fc     *fakeCompleter
		path   string
		body   any
		status int
		want   string
	}{
		{name: "analyze empty", fc: &fakeCompleter{}, path: "/api/analyze", body: WorkflowRequest{}, status: http.StatusBadRequest, want: "No document text"},
		{name: "analyze backend", fc: &fakeCompleter{err: errors.New("boom")}, path: "/api/analyze", body: WorkflowRequest{Document: "d"}, status: http.StatusBadGateway, want: "Error analyzing document"},
		{name: "generate unknown type", fc: &fakeCompleter{}, path: "/api/generate", body: GenerateRequest{Type: "lease"}, status: http.StatusBadRequest, want: "Unknown document type"},
		{name: "generate missing field", fc: &fakeCompleter{}, path: "/api/generate", body: GenerateRequest{Type: "nda", Fields: map[string]string{"disclosingParty": "A"}}, status: http.StatusBadRequest, want: "receivingParty"},
		{name: "research empty", fc: &fakeCompleter{}, path: "/api/research", body: ResearchRequest{}, status: http.StatusBadRequest, want: "Missing query"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, newTestServer(tt.fc).Handler(), http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
			assert.NotContains(t, rec.Body.String(), "boom")
		})
	}
}

func TestGenerateAndResearch(t *testing.T) {
	h := newTestServer(&fakeCompleter{response: "text"}).Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/generate", GenerateRequest{
		Type:   "service",
		Fields: map[string]string{"serviceProvider": "Acme", "client": "Beta", "services": "Audit"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"filename":"service_document.txt"`)
	assert.Contains(t, rec.Body.String(), `"label":"Service Agreement"`)

	rec = doJSON(t, h, http.MethodPost, "/api/research", ResearchRequest{Query: "tenant eviction", Jurisdiction: "uk"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"result":"text"}`, rec.Body.String())
}

func upload(t *testing.T, h http.Handler, name string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/extract", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestExtract(t *testing.T) {
	s := New(Config{Client: &fakeCompleter{}, Extractor: extract.New(extract.WithMaxBytes(64))})
	h := s.Handler()

	rec := upload(t, h, "nda.txt", []byte("This NDA lasts 2 years."))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"text":"This NDA lasts 2 years."`)

	rec = upload(t, h, "big.txt", bytes.Repeat([]byte("a"), 100))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	rec = upload(t, h, "contract.docx", []byte("hello"))
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	rec = upload(t, h, "contract.pdf", []byte("%PDF-1.4\n"))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Error processing file")
}

func TestRegistry(t *testing.T) {
	s := newTestServer(&fakeCompleter{})
	a := s.Registry().Create()
	b := s.Registry().Create()

	assert.Len(t, s.Registry().List(), 2)

	got, ok := s.Registry().Get(a.ID)
	require.True(t, ok)
	assert.Same(t, a, got)
	assert.NotSame(t, a.Controller, b.Controller)

	assert.True(t, s.Registry().Delete(a.ID))
	assert.False(t, s.Registry().Delete(a.ID))
	_, ok = s.Registry().Get(a.ID)
	assert.False(t, ok)
}

package completion

import (
	"context"
	"errors"
	"iter"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/longkey1/legalc/internal/legal"
)

type fakeProvider struct {
	response string
	err      error
	delay    time.Duration
	calls    atomic.Int32
	prompts  []string
}

func (f *fakeProvider) Generate(ctx context.Context, prompt string) (string, error) {
	f.calls.Add(1)
	f.prompts = append(f.prompts, prompt)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.response, f.err
}

func (f *fakeProvider) ListModels(ctx context.Context) ([]legal.ModelInfo, error) {
	return nil, nil
}

func (f *fakeProvider) SetDebug(enabled bool) {}

type fakeStreamer struct {
	fakeProvider
	chunks []string
	failAt int
}

func (f *fakeStreamer) GenerateStream(ctx context.Context, prompt string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		f.calls.Add(1)
		for i, chunk := range f.chunks {
			if f.failAt > 0 && i == f.failAt {
				yield("", errors.New("stream broke"))
				return
			}
			if !yield(chunk, nil) {
				return
			}
		}
	}
}

func TestSerializeHistoryPreservesOrder(t *testing.T) {
	history := []legal.Message{
		{Role: legal.RoleUser, Content: "A"},
		{Role: legal.RoleAssistant, Content: "B"},
		{Role: legal.RoleUser, Content: "C"},
		{Role: legal.RoleUser, Content: "C"},
	}

	got := SerializeHistory(history)

	assert.Equal(t, "user: A\nassistant: B\nuser: C\nuser: C", got)
}

func TestSerializeHistoryEmpty(t *testing.T) {
	assert.Equal(t, "", SerializeHistory(nil))
}

func TestCompose(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want string
	}{
		{
			name: "prompt only",
			req:  Request{Prompt: "What is a force majeure clause?"},
			want: "What is a force majeure clause?",
		},
		{
			name: "preamble and prompt",
			req:  Request{Preamble: "You are a legal assistant.\n", Prompt: "Q"},
			want: "You are a legal assistant.\n\nQ",
		},
		{
			name: "history before prompt",
			req: Request{
				History: []legal.Message{
					{Role: legal.RoleSystem, Content: "Context: NDA"},
					{Role: legal.RoleUser, Content: "hi"},
					{Role: legal.RoleAssistant, Content: "hello"},
				},
				Prompt: "User query: next",
			},
			want: "Previous conversation:\nsystem: Context: NDA\nuser: hi\nassistant: hello\n\nUser query: next",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Compose(tt.req))
		})
	}
}

func TestCompleteSuccess(t *testing.T) {
	p := &fakeProvider{response: "answer"}
	c := NewClient(p)

	got, err := c.Complete(context.Background(), Request{Prompt: "question"})

	require.NoError(t, err)
	assert.Equal(t, "answer", got)
	assert.EqualValues(t, 1, p.calls.Load())
	assert.Equal(t, []string{"question"}, p.prompts)
}

func TestCompleteFailureIsBackendError(t *testing.T) {
	p := &fakeProvider{err: errors.New("HTTP 500")}
	c := NewClient(p, WithProviderName("gemini"))

	_, err := c.Complete(context.Background(), Request{Prompt: "q"})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBackend)
	var be *BackendError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, "gemini", be.Provider)
	assert.False(t, be.Timeout())
	assert.EqualValues(t, 1, p.calls.Load(), "must not retry")
}

func TestCompleteEmptyResponseFails(t *testing.T) {
	c := NewClient(&fakeProvider{response: "   "})

	_, err := c.Complete(context.Background(), Request{Prompt: "q"})

	assert.ErrorIs(t, err, ErrBackend)
}

func TestCompleteTimeout(t *testing.T) {
	p := &fakeProvider{response: "late", delay: time.Second}
	c := NewClient(p, WithTimeout(20*time.Millisecond))

	_, err := c.Complete(context.Background(), Request{Prompt: "q"})

	var be *BackendError
	require.True(t, errors.As(err, &be))
	assert.True(t, be.Timeout())
}

func TestCompleteRateLimitRespectsContext(t *testing.T) {
	p := &fakeProvider{response: "ok"}
	c := NewClient(p, WithRateLimit(1), WithTimeout(0))

	_, err := c.Complete(context.Background(), Request{Prompt: "first"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = c.Complete(ctx, Request{Prompt: "second"})

	assert.ErrorIs(t, err, ErrBackend)
	assert.EqualValues(t, 1, p.calls.Load())
}

func TestStreamFallsBackToSingleChunk(t *testing.T) {
	c := NewClient(&fakeProvider{response: "whole answer"})

	var chunks []string
	for chunk, err := range c.Stream(context.Background(), Request{Prompt: "q"}) {
		require.NoError(t, err)
		chunks = append(chunks, chunk)
	}

	assert.Equal(t, []string{"whole answer"}, chunks)
}

func TestStreamYieldsChunks(t *testing.T) {
	p := &fakeStreamer{chunks: []string{"Force ", "majeure ", "excuses."}}
	c := NewClient(p)

	var sb strings.Builder
	for chunk, err := range c.Stream(context.Background(), Request{Prompt: "q"}) {
		require.NoError(t, err)
		sb.WriteString(chunk)
	}

	assert.Equal(t, "Force majeure excuses.", sb.String())
}

func TestStreamErrorIsBackendError(t *testing.T) {
	p := &fakeStreamer{chunks: []string{"a", "b", "c"}, failAt: 1}
	c := NewClient(p)

	var got []string
	var streamErr error
	for chunk, err := range c.Stream(context.Background(), Request{Prompt: "q"}) {
		if err != nil {
			streamErr = err
			break
		}
		got = append(got, chunk)
	}

	assert.Equal(t, []string{"a"}, got)
	assert.ErrorIs(t, streamErr, ErrBackend)
}

func TestStreamIsNotRestartable(t *testing.T) {
	p := &fakeStreamer{chunks: []string{"a"}}
	c := NewClient(p)
	seq := c.Stream(context.Background(), Request{Prompt: "q"})

	for range seq {
	}
	var second error
	for _, err := range seq {
		second = err
	}

	assert.ErrorIs(t, second, ErrStreamConsumed)
	assert.EqualValues(t, 1, p.calls.Load())
}

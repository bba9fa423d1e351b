// Package conversation implements the chat controller: it owns one transcript,
// enforces at most one in-flight completion, and turns backend failures into a
// fixed assistant reply.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/longkey1/legalc/internal/legal"
	"github.com/longkey1/legalc/internal/legal/completion"
	"github.com/longkey1/legalc/internal/legal/prompt"
	"github.com/longkey1/legalc/internal/legal/transcript"
)

// FallbackReply is appended to the transcript whenever a completion fails.
const FallbackReply = "I'm sorry, I encountered an error processing your request. Please try again."

// DefaultDocumentLimit is the number of characters of document text injected as
// chat context.
const DefaultDocumentLimit = 500

var (
	ErrEmptyInput = errors.New("message is empty")
	ErrBusy       = errors.New("a response is still pending")

	errEmptyStream = errors.New("empty streamed response")
)

// State is the controller state.
type State int

const (
	Idle State = iota
	AwaitingResponse
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingResponse:
		return "awaiting_response"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Completer is the part of completion.Client the controller needs.
type Completer interface {
	Complete(ctx context.Context, req completion.Request) (string, error)
	Stream(ctx context.Context, req completion.Request) iter.Seq2[string, error]
}

// Reply is the outcome of a submission.
type Reply struct {
	// Message is the appended assistant message. Empty when Discarded.
	Message legal.Message
	// Failed is set when the backend failed and Message carries FallbackReply.
	Failed bool
	// Discarded is set when the transcript was cleared while the request was
	// in flight; nothing was appended.
	Discarded bool
}

// Controller orchestrates one conversation.
type Controller struct {
	mu            sync.Mutex
	client        Completer
	prompts       *prompt.Set
	transcript    *transcript.Store
	logger        *zap.Logger
	state         State
	document      string
	documentLimit int
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the diagnostics logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithPrompts sets the template set used for the chat prompt.
func WithPrompts(set *prompt.Set) Option {
	return func(c *Controller) {
		if set != nil {
			c.prompts = set
		}
	}
}

// WithDocumentLimit sets how many characters of document text are injected.
func WithDocumentLimit(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.documentLimit = n
		}
	}
}

// New creates an idle controller with an empty transcript.
func New(client Completer, opts ...Option) *Controller {
	c := &Controller{
		client:        client,
		prompts:       prompt.Default(),
		transcript:    transcript.New(),
		logger:        zap.NewNop(),
		state:         Idle,
		documentLimit: DefaultDocumentLimit,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit appends text as a user message, waits for the completion and appends
// the assistant reply. It returns ErrEmptyInput or ErrBusy without touching the
// transcript; backend failures are reported through Reply.Failed.
func (c *Controller) Submit(ctx context.Context, text string) (Reply, error) {
	req, gen, err := c.begin(text)
	if err != nil {
		return Reply{}, err
	}

	content, err := c.client.Complete(ctx, req)
	return c.finish(gen, content, err), nil
}

// SubmitStream is Submit with incremental delivery: onChunk receives every chunk
// as it arrives and only the aggregate is appended to the transcript. Once the
// transcript is cleared no further chunks are delivered.
func (c *Controller) SubmitStream(ctx context.Context, text string, onChunk func(string)) (Reply, error) {
	req, gen, err := c.begin(text)
	if err != nil {
		return Reply{}, err
	}

	var sb strings.Builder
	var streamErr error
	for chunk, err := range c.client.Stream(ctx, req) {
		if err != nil {
			streamErr = err
			break
		}
		// Cleared mid-stream: the rest belongs to a conversation that is gone.
		if c.transcript.Generation() != gen {
			break
		}
		sb.WriteString(chunk)
		if onChunk != nil {
			onChunk(chunk)
		}
	}
	if streamErr == nil && strings.TrimSpace(sb.String()) == "" {
		streamErr = errEmptyStream
	}

	return c.finish(gen, sb.String(), streamErr), nil
}

func (c *Controller) begin(text string) (completion.Request, uint64, error) {
	query := strings.TrimSpace(text)
	if query == "" {
		return completion.Request{}, 0, ErrEmptyInput
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == AwaitingResponse {
		c.logger.Debug("rejecting submission while awaiting response")
		return completion.Request{}, 0, ErrBusy
	}

	history := c.history()
	c.transcript.Add(legal.RoleUser, query)
	c.state = AwaitingResponse

	preamble, userPrompt := c.prompts.Chat(query)
	req := completion.Request{
		Preamble: preamble,
		History:  history,
		Prompt:   userPrompt,
	}
	return req, c.transcript.Generation(), nil
}

func (c *Controller) finish(gen uint64, content string, err error) Reply {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = Idle

	if gen != c.transcript.Generation() {
		c.logger.Info("discarding response for cleared transcript",
			zap.Uint64("request_generation", gen),
			zap.Uint64("current_generation", c.transcript.Generation()),
			zap.Bool("failed", err != nil))
		return Reply{Discarded: true, Failed: err != nil}
	}

	if err != nil {
		c.logger.Error("chat completion failed", zap.Error(err))
		return Reply{Message: c.transcript.Add(legal.RoleAssistant, FallbackReply), Failed: true}
	}

	return Reply{Message: c.transcript.Add(legal.RoleAssistant, content)}
}

// history returns the document context followed by the prior transcript.
// Callers hold c.mu.
func (c *Controller) history() []legal.Message {
	prior := c.transcript.Snapshot()
	if c.document == "" {
		return prior
	}

	history := make([]legal.Message, 0, len(prior)+1)
	history = append(history, legal.Message{
		Role:    legal.RoleSystem,
		Content: documentContext(c.document, c.documentLimit),
	})
	return append(history, prior...)
}

// SetDocument attaches document text as context for later submissions. An empty
// string removes it.
func (c *Controller) SetDocument(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.document = strings.TrimSpace(text)
}

// Document returns the attached document text.
func (c *Controller) Document() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.document
}

// Clear empties the transcript. An in-flight request is not cancelled, but its
// result will be discarded.
func (c *Controller) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	gen := c.transcript.Clear()
	c.logger.Debug("transcript cleared",
		zap.Uint64("generation", gen),
		zap.Stringer("state", c.state))
}

// Snapshot returns the transcript, oldest first.
func (c *Controller) Snapshot() []legal.Message {
	return c.transcript.Snapshot()
}

// State returns the current controller state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LastReply returns the most recent assistant text.
func (c *Controller) LastReply() (string, bool) {
	msg, ok := c.transcript.Last(legal.RoleAssistant)
	return msg.Content, ok
}

func documentContext(document string, limit int) string {
	excerpt := document
	if runes := []rune(document); len(runes) > limit {
		excerpt = string(runes[:limit]) + "..."
	}
	return fmt.Sprintf("Context: The user has uploaded a document with the following text:\n%s\n", excerpt)
}

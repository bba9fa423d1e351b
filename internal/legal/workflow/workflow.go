// Package workflow implements the one-shot document controllers: analysis, risk
// assessment, document generation and precedent research. Each validates its
// fields, renders one prompt, makes one completion call and keeps the result.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/longkey1/legalc/internal/legal/completion"
	"github.com/longkey1/legalc/internal/legal/prompt"
)

// ErrBusy is returned when a workflow is asked to run while a call is pending.
var ErrBusy = errors.New("workflow is already running")

// Completer is the part of completion.Client the workflows need.
type Completer interface {
	Complete(ctx context.Context, req completion.Request) (string, error)
}

// InputError reports a missing or invalid field. No request is issued.
type InputError struct {
	Field       string
	Title       string
	Description string
}

func (e *InputError) Error() string {
	if e.Field == "" {
		return e.Description
	}
	return fmt.Sprintf("%s (%s)", e.Description, e.Field)
}

// Notice is the user-facing message for a failed backend call. The cause is
// available through Unwrap and is logged, never displayed.
type Notice struct {
	Title       string
	Description string
	Err         error
}

func (n *Notice) Error() string {
	return n.Title + ": " + n.Description
}

func (n *Notice) Unwrap() error {
	return n.Err
}

// Option configures a workflow.
type Option func(*base)

// WithLogger sets the diagnostics logger.
func WithLogger(logger *zap.Logger) Option {
	return func(b *base) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithPrompts sets the template set.
func WithPrompts(set *prompt.Set) Option {
	return func(b *base) {
		if set != nil {
			b.prompts = set
		}
	}
}

type base struct {
	name    string
	client  Completer
	prompts *prompt.Set
	logger  *zap.Logger

	mu      sync.Mutex
	running bool
	result  string
}

func (b *base) init(name string, client Completer, opts []Option) {
	b.name = name
	b.client = client
	b.prompts = prompt.Default()
	b.logger = zap.NewNop()
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.With(zap.String("workflow", name))
}

// run issues the single completion call and stores its text. On failure the
// previous result is kept and a Notice carrying failTitle/failDesc is returned.
func (b *base) run(ctx context.Context, text, failTitle, failDesc string) (string, error) {
	b.mu.Lock()
	if b.running {
		b.mu.Unlock()
		return "", ErrBusy
	}
	b.running = true
	b.mu.Unlock()

	out, err := b.client.Complete(ctx, completion.Request{Prompt: text})

	b.mu.Lock()
	defer b.mu.Unlock()
	b.running = false

	if err != nil {
		b.logger.Error("workflow completion failed", zap.Error(err))
		return "", &Notice{Title: failTitle, Description: failDesc, Err: err}
	}
	b.result = out
	b.logger.Debug("workflow completed", zap.Int("result_length", len(out)))
	return out, nil
}

// Result returns the last successful result text.
func (b *base) Result() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.result
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Analyzer produces a general analysis of a legal document.
type Analyzer struct {
	base
}

// NewAnalyzer creates an Analyzer.
func NewAnalyzer(client Completer, opts ...Option) *Analyzer {
	a := &Analyzer{}
	a.init("analysis", client, opts)
	return a
}

// Analyze sends the analysis prompt for document.
func (a *Analyzer) Analyze(ctx context.Context, document string) (string, error) {
	if blank(document) {
		return "", &InputError{
			Field:       "document",
			Title:       "No document text",
			Description: "Please upload a document or enter text to analyze.",
		}
	}
	return a.run(ctx, a.prompts.Analysis(document),
		"Error analyzing document",
		"There was an error analyzing your document. Please try again.")
}

// Package completion wraps a legal.Provider with the single call contract used by
// every controller: compose the prompt, attach history, make exactly one outbound
// call, and fold every failure into a BackendError.
package completion

import (
	"context"
	"errors"
	"iter"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/longkey1/legalc/internal/legal"
)

// DefaultTimeout bounds a single completion call.
const DefaultTimeout = 60 * time.Second

var (
	errEmptyResponse  = errors.New("empty response from backend")
	ErrStreamConsumed = errors.New("completion stream already consumed")
)

// Request is one completion call. Prompt is composed by the caller; History is
// serialized and placed before it.
type Request struct {
	Preamble string
	History  []legal.Message
	Prompt   string
}

// Client issues completion requests against a provider.
type Client struct {
	provider legal.Provider
	name     string
	timeout  time.Duration
	limiter  *rate.Limiter
	logger   *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-call timeout. Zero or negative disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithRateLimit caps outbound calls per minute. Zero disables limiting.
func WithRateLimit(perMinute int) Option {
	return func(c *Client) {
		if perMinute <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithProviderName labels errors and log entries.
func WithProviderName(name string) Option {
	return func(c *Client) {
		c.name = name
	}
}

// NewClient creates a client for provider.
func NewClient(provider legal.Provider, opts ...Option) *Client {
	c := &Client{
		provider: provider,
		name:     "backend",
		timeout:  DefaultTimeout,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Complete sends req and waits for the whole response.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	prompt := Compose(req)

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	if err := c.wait(ctx); err != nil {
		return "", c.fail(err)
	}

	start := time.Now()
	text, err := c.provider.Generate(ctx, prompt)
	if err != nil {
		return "", c.fail(err)
	}
	if strings.TrimSpace(text) == "" {
		return "", c.fail(errEmptyResponse)
	}

	c.logger.Debug("completion finished",
		zap.String("provider", c.name),
		zap.Int("history", len(req.History)),
		zap.Int("prompt_chars", len(prompt)),
		zap.Duration("elapsed", time.Since(start)))

	return text, nil
}

// Stream sends req and yields the response incrementally. Providers that cannot
// stream yield the whole response as a single chunk. The returned sequence can
// be ranged over only once.
func (c *Client) Stream(ctx context.Context, req Request) iter.Seq2[string, error] {
	prompt := Compose(req)
	var used atomic.Bool

	return func(yield func(string, error) bool) {
		if used.Swap(true) {
			yield("", ErrStreamConsumed)
			return
		}

		ctx, cancel := c.withTimeout(ctx)
		defer cancel()

		if err := c.wait(ctx); err != nil {
			yield("", c.fail(err))
			return
		}

		sp, ok := c.provider.(legal.StreamingProvider)
		if !ok {
			text, err := c.provider.Generate(ctx, prompt)
			if err != nil {
				yield("", c.fail(err))
				return
			}
			yield(text, nil)
			return
		}

		for chunk, err := range sp.GenerateStream(ctx, prompt) {
			if err != nil {
				yield("", c.fail(err))
				return
			}
			if !yield(chunk, nil) {
				return
			}
		}
	}
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

func (c *Client) fail(err error) error {
	be := &BackendError{Provider: c.name, Err: err}
	c.logger.Warn("completion failed",
		zap.String("provider", c.name),
		zap.Bool("timeout", be.Timeout()),
		zap.Error(err))
	return be
}

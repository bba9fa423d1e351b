// Package server exposes the conversation and document workflows over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/longkey1/legalc/internal/legal/conversation"
	"github.com/longkey1/legalc/internal/legal/extract"
	"github.com/longkey1/legalc/internal/legal/prompt"
	"github.com/longkey1/legalc/internal/legal/workflow"
)

// Config wires the server to its collaborators.
type Config struct {
	Client        conversation.Completer
	Prompts       *prompt.Set
	Extractor     *extract.Extractor
	Logger        *zap.Logger
	DocumentLimit int
}

// Server is the HTTP API.
type Server struct {
	router    *gin.Engine
	registry  *Registry
	client    conversation.Completer
	prompts   *prompt.Set
	extractor *extract.Extractor
	logger    *zap.Logger
}

// New builds the router and an empty conversation registry.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Prompts == nil {
		cfg.Prompts = prompt.Default()
	}
	if cfg.Extractor == nil {
		cfg.Extractor = extract.New(extract.WithLogger(cfg.Logger))
	}

	s := &Server{
		client:    cfg.Client,
		prompts:   cfg.Prompts,
		extractor: cfg.Extractor,
		logger:    cfg.Logger,
	}
	s.registry = NewRegistry(func() *conversation.Controller {
		return conversation.New(cfg.Client,
			conversation.WithLogger(cfg.Logger),
			conversation.WithPrompts(cfg.Prompts),
			conversation.WithDocumentLimit(cfg.DocumentLimit))
	})
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Registry returns the conversation registry.
func (s *Server) Registry() *Registry {
	return s.registry
}

func (s *Server) routes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())
	router.MaxMultipartMemory = s.extractor.MaxBytes() + 1<<20

	// Enable CORS for the browser front end
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	api := router.Group("/api")
	{
		// Conversation routes
		api.POST("/conversations", s.createConversation)
		api.GET("/conversations", s.listConversations)
		api.GET("/conversations/:id", s.getConversation)
		api.DELETE("/conversations/:id", s.deleteConversation)

		// Message routes
		api.POST("/conversations/:id/messages", s.sendMessage)
		api.POST("/conversations/:id/stream", s.streamMessage)
		api.DELETE("/conversations/:id/messages", s.clearMessages)
		api.PUT("/conversations/:id/document", s.setDocument)
		api.GET("/conversations/:id/last-reply", s.lastReply)

		// Document workflows
		api.POST("/analyze", s.analyze)
		api.POST("/risk", s.assessRisk)
		api.POST("/generate", s.generate)
		api.POST("/research", s.research)
		api.POST("/extract", s.extractFile)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	return router
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:        addr,
		Handler:     s.router,
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
		// no WriteTimeout: SSE responses stay open while the model streams
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

func (s *Server) workflowOptions() []workflow.Option {
	return []workflow.Option{
		workflow.WithLogger(s.logger),
		workflow.WithPrompts(s.prompts),
	}
}

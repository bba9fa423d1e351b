/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/longkey1/legalc/internal/legal/extract"
	"github.com/longkey1/legalc/internal/server"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the legal assistant over HTTP",
	Long: `Start the HTTP API used by the browser front end.

Conversations are kept in memory and are lost when the server stops.

Routes:
  POST   /api/conversations                    start a conversation
  GET    /api/conversations/:id                transcript and state
  POST   /api/conversations/:id/messages       ask a question
  POST   /api/conversations/:id/stream         ask a question (server-sent events)
  DELETE /api/conversations/:id/messages       clear the chat
  PUT    /api/conversations/:id/document       set the document context
  GET    /api/conversations/:id/last-reply     latest answer, for speech output
  POST   /api/analyze | /api/risk | /api/generate | /api/research
  POST   /api/extract                          upload a file and get its text
  GET    /health`,
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := newBackend(cmd)
		if err != nil {
			return err
		}
		defer b.close()

		if !verbose {
			gin.SetMode(gin.ReleaseMode)
		}

		addr := b.cfg.ServerAddr
		if cmd.Flags().Changed("addr") {
			addr = serveAddr
		}

		srv := server.New(server.Config{
			Client:        b.client,
			Prompts:       b.prompts,
			Extractor:     extract.New(extract.WithMaxBytes(b.cfg.MaxUploadBytes()), extract.WithLogger(b.logger)),
			Logger:        b.logger,
			DocumentLimit: b.cfg.DocumentContextLimit,
		})

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Fprintf(os.Stderr, "Serving on %s (model %s)\n", addr, b.cfg.Model)
		if err := srv.Run(ctx, addr); err != nil {
			b.logger.Error("server failed", zap.Error(err))
			return fmt.Errorf("server: %w", err)
		}
		if ctx.Err() == context.Canceled {
			fmt.Fprintln(os.Stderr, "Server stopped")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("model", "m", "", "Model to use (format: provider:model, e.g., gemini:gemini-2.0-flash)")
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from server_addr, :8080)")
}

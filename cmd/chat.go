/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/longkey1/legalc/internal/legal/conversation"
	"github.com/longkey1/legalc/internal/legal/export"
)

var (
	interactive  bool
	documentFile string
	stream       bool
	saveChat     bool
	chatEditor   bool
)

var errChatFailed = errors.New("chat request failed. Use --verbose for details")

// chatCmd represents the chat command
var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Ask the legal assistant a question",
	Long: `Ask the legal assistant a question and print the answer.

Without --interactive this performs a single question and answer. If no
message is provided as an argument, it reads from stdin. If --editor flag is
set, it opens the default editor (from EDITOR environment variable) to compose
the message.

With --interactive a multi-turn conversation is started; earlier turns are sent
as context with every question. Commands available in the conversation:
  /clear            forget the conversation so far
  /document <file>  use a document as context for the following questions
  /save [name]      save the transcript to the export directory
  /info             show the model, document and number of messages
  /help             show this list
  /exit             leave (Ctrl+D works too)

Example:
  legalc chat "What is a force majeure clause?"
  legalc chat --document nda.txt "How long does the confidentiality last?"
  legalc chat -i --stream`,
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := newBackend(cmd)
		if err != nil {
			return err
		}
		defer b.close()

		ctrl := conversation.New(b.client,
			conversation.WithLogger(b.logger),
			conversation.WithPrompts(b.prompts),
			conversation.WithDocumentLimit(b.cfg.DocumentContextLimit))

		if documentFile != "" {
			text, err := readDocumentFile(cmd.Context(), b.cfg, documentFile)
			if err != nil {
				return err
			}
			ctrl.SetDocument(text)
		}

		if interactive {
			if err := runInteractiveChat(cmd.Context(), b, ctrl); err != nil {
				return err
			}
			if saveChat {
				return saveTranscript(b, ctrl, "")
			}
			return nil
		}

		// Get message from arguments, editor, or stdin
		var message string
		switch {
		case chatEditor:
			message, err = getMessageFromEditor()
			if err != nil {
				return fmt.Errorf("getting message from editor: %w", err)
			}
		case len(args) > 0:
			message = strings.Join(args, " ")
		default:
			input, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("reading from stdin: %w", err)
			}
			message = string(input)
		}

		reply, err := ask(cmd.Context(), ctrl, message)
		if err != nil {
			return err
		}
		if saveChat {
			if err := saveTranscript(b, ctrl, ""); err != nil {
				return err
			}
		}
		if reply.Failed {
			return errChatFailed
		}
		return nil
	},
}

// ask submits one message and prints the reply
func ask(ctx context.Context, ctrl *conversation.Controller, message string) (conversation.Reply, error) {
	var (
		reply conversation.Reply
		err   error
	)
	if stream {
		reply, err = ctrl.SubmitStream(ctx, message, func(chunk string) {
			fmt.Print(chunk)
		})
		if err == nil {
			fmt.Println()
			if reply.Failed {
				fmt.Println(reply.Message.Content)
			}
		}
	} else {
		reply, err = ctrl.Submit(ctx, message)
		if err == nil && !reply.Discarded {
			fmt.Println(reply.Message.Content)
		}
	}

	if errors.Is(err, conversation.ErrEmptyInput) {
		return reply, fmt.Errorf("message is empty")
	}
	return reply, err
}

func saveTranscript(b *backend, ctrl *conversation.Controller, filename string) error {
	messages := ctrl.Snapshot()
	if len(messages) == 0 {
		fmt.Fprintln(os.Stderr, "Nothing to save.")
		return nil
	}
	if filename == "" {
		filename = export.TranscriptFilename
	}
	path, err := saveExport(b.cfg, filename, export.FormatTranscript(messages))
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Transcript saved to: %s\n", path)
	return nil
}

// chatLine provides input history and line editing for interactive chat
type chatLine struct {
	line        *liner.State
	historyFile string
}

func newChatLine() *chatLine {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	c := &chatLine{
		line:        line,
		historyFile: filepath.Join(userConfigDir(), "chat_history"),
	}
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
	return c
}

func (c *chatLine) read(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

func (c *chatLine) close() {
	if err := os.MkdirAll(filepath.Dir(c.historyFile), 0755); err == nil {
		if f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			c.line.WriteHistory(f)
			f.Close()
		}
	}
	c.line.Close()
}

func runInteractiveChat(ctx context.Context, b *backend, ctrl *conversation.Controller) error {
	fmt.Printf("legalc interactive chat (%s)\n", b.cfg.Model)
	fmt.Println("Type /help for commands, /exit to quit.")
	fmt.Println()

	line := newChatLine()
	defer line.close()

	for {
		input, err := line.read("legalc> ")
		if err != nil {
			// Ctrl+C, Ctrl+D or a closed terminal all end the conversation
			if !errors.Is(err, liner.ErrPromptAborted) && !errors.Is(err, io.EOF) {
				b.logger.Debug("prompt closed", zap.Error(err))
			}
			fmt.Println()
			return nil
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			quit, err := handleSlashCommand(ctx, b, ctrl, input)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
			if quit {
				return nil
			}
			continue
		}

		if _, err := ask(ctx, ctrl, input); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		fmt.Println()
	}
}

// handleSlashCommand runs a conversation command and reports whether to quit
func handleSlashCommand(ctx context.Context, b *backend, ctrl *conversation.Controller, input string) (bool, error) {
	name, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(name) {
	case "/exit", "/quit":
		return true, nil
	case "/clear":
		ctrl.Clear()
		fmt.Println("Chat cleared.")
	case "/document":
		if arg == "" {
			ctrl.SetDocument("")
			fmt.Println("Document context removed.")
			return false, nil
		}
		text, err := readDocumentFile(ctx, b.cfg, arg)
		if err != nil {
			return false, err
		}
		ctrl.SetDocument(text)
		fmt.Printf("Using %s as context (%d characters).\n", arg, len([]rune(ctrl.Document())))
	case "/save":
		return false, saveTranscript(b, ctrl, arg)
	case "/info":
		fmt.Printf("Model:    %s\n", b.cfg.Model)
		fmt.Printf("Messages: %d\n", len(ctrl.Snapshot()))
		if doc := ctrl.Document(); doc != "" {
			fmt.Printf("Document: %d characters\n", len([]rune(doc)))
		} else {
			fmt.Println("Document: none")
		}
	case "/help":
		fmt.Println("Commands:")
		fmt.Println("  /clear            forget the conversation so far")
		fmt.Println("  /document <file>  use a document as context (no argument removes it)")
		fmt.Println("  /save [name]      save the transcript")
		fmt.Println("  /info             show conversation details")
		fmt.Println("  /exit             leave")
	default:
		return false, fmt.Errorf("unknown command: %s (type /help for the list)", name)
	}
	return false, nil
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringP("model", "m", "", "Model to use (format: provider:model, e.g., gemini:gemini-2.0-flash)")
	chatCmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Start a multi-turn conversation")
	chatCmd.Flags().StringVarP(&documentFile, "document", "d", "", "Document to use as context")
	chatCmd.Flags().BoolVar(&stream, "stream", false, "Print the answer as it is generated")
	chatCmd.Flags().BoolVar(&saveChat, "save", false, "Save the transcript to the export directory")
	chatCmd.Flags().BoolVarP(&chatEditor, "editor", "e", false, "Use default editor (from EDITOR environment variable) to compose message")
}

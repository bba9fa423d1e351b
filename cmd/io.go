package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/longkey1/legalc/internal/legal/config"
	"github.com/longkey1/legalc/internal/legal/export"
	"github.com/longkey1/legalc/internal/legal/extract"
)

// inputFlags select where a command reads its document from
type inputFlags struct {
	text      string
	useEditor bool
}

func (f *inputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.text, "text", "", "Document text (instead of a file or stdin)")
	cmd.Flags().BoolVarP(&f.useEditor, "editor", "e", false, "Use default editor (from EDITOR environment variable) to compose the text")
}

// read returns the document text from --text, the editor, a file argument or
// stdin, in that order.
func (f *inputFlags) read(ctx context.Context, cfg *config.Config, args []string) (string, error) {
	switch {
	case f.text != "":
		return f.text, nil
	case f.useEditor:
		text, err := getMessageFromEditor()
		if err != nil {
			return "", fmt.Errorf("getting text from editor: %w", err)
		}
		return text, nil
	case len(args) > 0:
		return readDocumentFile(ctx, cfg, args[0])
	default:
		input, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading from stdin: %w", err)
		}
		return string(input), nil
	}
}

// readDocumentFile loads a file through the same checks as an upload
func readDocumentFile(ctx context.Context, cfg *config.Config, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading document: %w", err)
	}

	extractor := extract.New(extract.WithMaxBytes(cfg.MaxUploadBytes()))
	res, err := extractor.Extract(ctx, extract.File{Name: filepath.Base(path), Data: data})
	if err != nil {
		if errors.Is(err, extract.ErrNoConverter) {
			return "", fmt.Errorf("%s: no text converter is configured for %s files; pass the text with --text instead", path, filepath.Ext(path))
		}
		return "", fmt.Errorf("%s: %w", path, err)
	}
	return res.Text, nil
}

// getMessageFromEditor opens the default editor and returns the edited text
func getMessageFromEditor() (string, error) {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		return "", fmt.Errorf("EDITOR environment variable is not set")
	}

	tmpFile, err := os.CreateTemp("", "legalc-*.txt")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpFile.Close()
	defer os.Remove(tmpFile.Name())

	cmd := exec.Command(editor, tmpFile.Name())
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("failed to open editor: %w", err)
	}

	content, err := os.ReadFile(tmpFile.Name())
	if err != nil {
		return "", fmt.Errorf("failed to read edited content: %w", err)
	}

	return strings.TrimSpace(string(content)), nil
}

// outputFlags control what happens with a result besides printing it
type outputFlags struct {
	save   bool
	output string
	copy   bool
}

func (f *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.save, "save", false, "Save the result to the export directory")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "File name for the saved result (implies --save)")
	cmd.Flags().BoolVar(&f.copy, "copy", false, "Copy the result to the clipboard")
}

// emit prints result and applies --save/--output and --copy
func (f *outputFlags) emit(cfg *config.Config, result, defaultFilename string) error {
	fmt.Println(result)

	if f.save || f.output != "" {
		filename := defaultFilename
		if f.output != "" {
			filename = f.output
		}
		path, err := saveExport(cfg, filename, result)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "\nSaved to: %s\n", path)
	}

	if f.copy {
		if err := clipboard.WriteAll(result); err != nil {
			return fmt.Errorf("copying to clipboard: %w", err)
		}
		fmt.Fprintln(os.Stderr, "Copied to clipboard")
	}
	return nil
}

func saveExport(cfg *config.Config, filename, content string) (string, error) {
	dir, err := export.GetExportDir(viper.GetViper(), cfg.ExportDir)
	if err != nil {
		return "", fmt.Errorf("getting export directory: %w", err)
	}
	exporter := export.New(dir)
	path, err := exporter.Save(filename, content)
	if err != nil {
		return "", fmt.Errorf("saving result to %s: %w", exporter.Dir(), err)
	}
	return path, nil
}

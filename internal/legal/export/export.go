// Package export writes results and transcripts to plain text files.
package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/longkey1/legalc/internal/legal"
)

// Default file names, one per workflow.
const (
	AnalysisFilename   = "document_analysis.txt"
	RiskFilename       = "risk_assessment.txt"
	ResearchFilename   = "legal_research.txt"
	TranscriptFilename = "chat_transcript.txt"
)

var errBadFilename = errors.New("invalid export file name")

// GetExportDir returns the directory where exports are written.
// A configured directory wins. Otherwise exports are stored next to the config
// file, falling back to $HOME/.config/legalc/exports
func GetExportDir(v *viper.Viper, configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}

	configFile := v.ConfigFileUsed()
	if configFile != "" {
		configDir := filepath.Dir(configFile)

		// Make the path absolute if it's relative
		if !filepath.IsAbs(configDir) {
			cwd, err := os.Getwd()
			if err != nil {
				return "", fmt.Errorf("failed to get current working directory: %w", err)
			}
			configDir = filepath.Join(cwd, configDir)
		}

		return filepath.Join(configDir, "exports"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, ".config", "legalc", "exports"), nil
}

// Exporter saves text files into one directory.
type Exporter struct {
	dir string
}

// New returns an Exporter writing into dir.
func New(dir string) *Exporter {
	return &Exporter{dir: dir}
}

// Dir returns the export directory.
func (e *Exporter) Dir() string {
	return e.dir
}

// Save writes content to filename inside the export directory and returns the
// written path. Only the base name of filename is used.
func (e *Exporter) Save(filename, content string) (string, error) {
	name := filepath.Base(filepath.Clean(filename))
	if name == "." || name == ".." || name == string(filepath.Separator) || strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("%w: %q", errBadFilename, filename)
	}

	if err := os.MkdirAll(e.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	path := filepath.Join(e.dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return path, nil
}

// FormatTranscript renders messages for download, oldest first.
func FormatTranscript(messages []legal.Message) string {
	var sb strings.Builder
	for i, msg := range messages {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "[%s] %s:\n%s\n",
			msg.Timestamp.Format("2006-01-02 15:04:05"),
			roleLabel(msg.Role),
			msg.Content)
	}
	return sb.String()
}

func roleLabel(role legal.Role) string {
	switch role {
	case legal.RoleUser:
		return "User"
	case legal.RoleAssistant:
		return "Assistant"
	case legal.RoleSystem:
		return "System"
	default:
		return string(role)
	}
}

/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/longkey1/legalc/internal/legal/workflow"
)

var (
	fieldFlags     []string
	generateOutput outputFlags
)

// generateCmd represents the generate command
var generateCmd = &cobra.Command{
	Use:   "generate <type>",
	Short: "Draft a legal document",
	Long: `Draft a legal document from a handful of parameters.

Document types and their fields (* = required):
` + documentTypeHelp() + `
Blank fields are left to the model, except duration (2 years) and salary (50000).
Fields are passed with --field key=value and may be repeated.

Example:
  legalc generate nda --field disclosingParty="Acme Corp" --field receivingParty="Beta LLC"
  legalc generate custom --field requirements="A simple software license" --save`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: documentTypeNames(),
	RunE: func(cmd *cobra.Command, args []string) error {
		docType, err := workflow.ParseDocumentType(args[0])
		if err != nil {
			return err
		}

		fields, err := parseFields(fieldFlags)
		if err != nil {
			return err
		}
		if err := checkFields(docType, fields); err != nil {
			return err
		}

		b, err := newBackend(cmd)
		if err != nil {
			return err
		}
		defer b.close()

		generator := workflow.NewGenerator(b.client, workflow.WithLogger(b.logger), workflow.WithPrompts(b.prompts))
		doc, err := generator.Generate(cmd.Context(), docType, fields)
		if err != nil {
			return err
		}
		return generateOutput.emit(b.cfg, doc.Text, doc.Filename())
	},
}

// parseFields turns key=value flags into a field map
func parseFields(pairs []string) (map[string]string, error) {
	fields := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid field format: %s (expected key=value)", pair)
		}
		fields[key] = value
	}
	return fields, nil
}

// checkFields rejects keys the document type does not read
func checkFields(t workflow.DocumentType, fields map[string]string) error {
	known := t.Fields()
	for key := range fields {
		if !slices.Contains(known, key) {
			return fmt.Errorf("unknown field %q for %s\nFields: %s", key, t, strings.Join(known, ", "))
		}
	}
	return nil
}

// documentTypeHelp lists every document type with its fields, marking the
// required ones with *
func documentTypeHelp() string {
	var sb strings.Builder
	for _, t := range workflow.DocumentTypes {
		required := t.Required()
		fields := t.Fields()
		for i, f := range fields {
			if slices.Contains(required, f) {
				fields[i] = f + "*"
			}
		}
		fmt.Fprintf(&sb, "  %-11s %s\n", t, strings.Join(fields, ", "))
	}
	return sb.String()
}

func documentTypeNames() []string {
	names := make([]string, 0, len(workflow.DocumentTypes))
	for _, t := range workflow.DocumentTypes {
		names = append(names, string(t))
	}
	return names
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringP("model", "m", "", "Model to use (format: provider:model, e.g., gemini:gemini-2.0-flash)")
	generateCmd.Flags().StringArrayVarP(&fieldFlags, "field", "f", []string{}, "Document field (format: key=value)")
	generateOutput.register(generateCmd)
}

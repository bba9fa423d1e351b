/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/longkey1/legalc/internal/legal/export"
	"github.com/longkey1/legalc/internal/legal/workflow"
)

var (
	analyzeInput  inputFlags
	analyzeOutput outputFlags
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze [file]",
	Short: "Analyze a legal document",
	Long: `Analyze a legal document and summarize its parties, obligations,
notable clauses and potential issues.

The document is read from the file argument (.txt, or .pdf/.png/.jpg/.jpeg
when a converter is available), from --text, from the editor with --editor,
or from stdin.

Example:
  legalc analyze contract.txt
  legalc analyze contract.txt --save
  cat contract.txt | legalc analyze --copy`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := newBackend(cmd)
		if err != nil {
			return err
		}
		defer b.close()

		document, err := analyzeInput.read(cmd.Context(), b.cfg, args)
		if err != nil {
			return err
		}

		analyzer := workflow.NewAnalyzer(b.client, workflow.WithLogger(b.logger), workflow.WithPrompts(b.prompts))
		result, err := analyzer.Analyze(cmd.Context(), document)
		if err != nil {
			return err
		}
		return analyzeOutput.emit(b.cfg, result, export.AnalysisFilename)
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringP("model", "m", "", "Model to use (format: provider:model, e.g., gemini:gemini-2.0-flash)")
	analyzeInput.register(analyzeCmd)
	analyzeOutput.register(analyzeCmd)
}

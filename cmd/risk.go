/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/longkey1/legalc/internal/legal/export"
	"github.com/longkey1/legalc/internal/legal/workflow"
)

var (
	riskInput  inputFlags
	riskOutput outputFlags
	scoreOnly  bool
)

// riskCmd represents the risk command
var riskCmd = &cobra.Command{
	Use:   "risk [file]",
	Short: "Assess the risks of a legal document",
	Long: `Assess the legal risks of a document. The assessment ends with a
"Risk Score: N/10" line; the extracted score is reported on stderr together
with its level (low 1-3, medium 4-6, high 7-10).

When the model does not produce a parsable score the result is still printed
and the score is reported as unscored.

Example:
  legalc risk lease.txt
  legalc risk lease.txt --score-only`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := newBackend(cmd)
		if err != nil {
			return err
		}
		defer b.close()

		document, err := riskInput.read(cmd.Context(), b.cfg, args)
		if err != nil {
			return err
		}

		assessor := workflow.NewRiskAssessor(b.client, workflow.WithLogger(b.logger), workflow.WithPrompts(b.prompts))
		res, err := assessor.Assess(cmd.Context(), document)
		if err != nil {
			return err
		}

		if scoreOnly {
			fmt.Println(res.Score)
			return nil
		}

		if err := riskOutput.emit(b.cfg, res.Text, export.RiskFilename); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "\nRisk score: %s (%s)\n", res.Score, res.Score.Level())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(riskCmd)

	riskCmd.Flags().StringP("model", "m", "", "Model to use (format: provider:model, e.g., gemini:gemini-2.0-flash)")
	riskCmd.Flags().BoolVar(&scoreOnly, "score-only", false, "Print only the extracted risk score")
	riskInput.register(riskCmd)
	riskOutput.register(riskCmd)
}

/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/longkey1/legalc/internal/legal/export"
	"github.com/longkey1/legalc/internal/legal/workflow"
)

var (
	jurisdiction   string
	state          string
	timeframe      string
	researchOutput outputFlags
)

// researchCmd represents the research command
var researchCmd = &cobra.Command{
	Use:   "research <query>",
	Short: "Research legal precedents",
	Long: `Research precedents, statutes and case law for a query.

Jurisdictions: us-federal, us-state, eu, uk, canada, australia, international, india
  (us-state and india take --state)
Timeframes: all, 5, 10, 20 (years)

Example:
  legalc research "tenant eviction notice period" --state Karnataka
  legalc research "non-compete enforceability" --jurisdiction us-state --state California --timeframe 10`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := newBackend(cmd)
		if err != nil {
			return err
		}
		defer b.close()

		researcher := workflow.NewResearcher(b.client, workflow.WithLogger(b.logger), workflow.WithPrompts(b.prompts))
		result, err := researcher.Research(cmd.Context(), workflow.ResearchQuery{
			Query:        strings.Join(args, " "),
			Jurisdiction: jurisdiction,
			State:        state,
			Timeframe:    timeframe,
		})
		if err != nil {
			return err
		}
		return researchOutput.emit(b.cfg, result, export.ResearchFilename)
	},
}

func init() {
	rootCmd.AddCommand(researchCmd)

	researchCmd.Flags().StringP("model", "m", "", "Model to use (format: provider:model, e.g., gemini:gemini-2.0-flash)")
	researchCmd.Flags().StringVarP(&jurisdiction, "jurisdiction", "j", workflow.DefaultJurisdiction, "Jurisdiction code")
	researchCmd.Flags().StringVar(&state, "state", "", "State for us-state and india jurisdictions")
	researchCmd.Flags().StringVarP(&timeframe, "timeframe", "t", workflow.DefaultTimeframe, "Timeframe in years (all, 5, 10, 20)")
	researchOutput.register(researchCmd)
}

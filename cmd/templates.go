/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/longkey1/legalc/internal/legal/config"
	"github.com/longkey1/legalc/internal/legal/prompt"
)

var showTemplate bool

// templatesCmd represents the templates command
var templatesCmd = &cobra.Command{
	Use:   "templates [name]",
	Short: "List the prompt templates",
	Long: `List the prompt templates used by chat, analyze, risk, generate and research,
together with where each one comes from.

Every template is built in and can be overridden by a file named <name>.toml in
one of the prompt directories. Later directories take precedence over earlier
ones. The file has the following structure:
system = "System prompt"
user = "User prompt with {{placeholder}} values"

Placeholders per template:
  chat      {{input}}
  analysis  {{document}}
  risk      {{document}}
  generate  {{type}} {{parameters}}
  research  {{query}} {{jurisdiction}} {{timeframe}}

With a name and --show the effective template text is printed.`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: prompt.Names,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(viper.GetViper())
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		if verbose {
			fmt.Fprintf(os.Stderr, "Prompt directories: %v\n", cfg.PromptDirs)
		}

		set, err := loadPrompts(cfg)
		if err != nil {
			return err
		}

		if len(args) == 1 {
			tmpl, ok := set.Get(args[0])
			if !ok {
				return fmt.Errorf("unknown template: %s", args[0])
			}
			if showTemplate {
				fmt.Printf("[system]\n%s\n\n[user]\n%s\n", tmpl.System, tmpl.User)
				return nil
			}
		}

		for _, entry := range set.List() {
			if len(args) == 1 && entry.Name != args[0] {
				continue
			}
			fmt.Printf("%-10s %s\n", entry.Name, entry.Source)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(templatesCmd)

	templatesCmd.Flags().BoolVar(&showTemplate, "show", false, "Print the effective template text")
}

/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/longkey1/legalc/internal/legal"
	"github.com/longkey1/legalc/internal/legal/config"
)

// modelsCmd represents the models command
var modelsCmd = &cobra.Command{
	Use:   "models [provider]",
	Short: "List available models for the specified provider(s)",
	Long: `List all available models for the specified provider.
Fetches the latest model information directly from the provider's API.

Supported providers: gemini, openai, anthropic, ollama

If no provider is specified, lists models from all providers. Providers that
cannot be reached (missing token, local server not running) are skipped with a
warning.

Example:
  legalc models           # List models from all providers
  legalc models gemini    # List Gemini models
  legalc models ollama    # List models pulled into the local Ollama server`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(viper.GetViper())
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		logger, err := newLogger()
		if err != nil {
			return fmt.Errorf("creating logger: %w", err)
		}
		defer logger.Sync()

		providers := supportedProviders
		if len(args) == 1 {
			if !slices.Contains(supportedProviders, args[0]) {
				return fmt.Errorf("unsupported provider '%s'\nSupported providers: %s", args[0], strings.Join(supportedProviders, ", "))
			}
			providers = []string{args[0]}
		}

		type providerResult struct {
			provider string
			models   []legal.ModelInfo
			err      error
		}

		var results []providerResult
		for _, name := range providers {
			result := providerResult{provider: name}

			if verbose {
				fmt.Fprintf(os.Stderr, "Listing models for provider: %s\n", name)
			}

			provider, err := providerByName(name, cfg, logger)
			if err != nil {
				result.err = err
				results = append(results, result)
				continue
			}

			models, err := provider.ListModels(cmd.Context())
			switch {
			case err != nil:
				result.err = fmt.Errorf("failed to list models: %w", err)
			case len(models) == 0:
				result.err = fmt.Errorf("no models returned from API")
			default:
				for i := range models {
					models[i].IsDefault = legal.FormatModelString(name, models[i].ID) == cfg.Model
				}
				result.models = models
			}
			results = append(results, result)
		}

		// Display successful results first
		successCount := 0
		for _, result := range results {
			if result.err != nil {
				continue
			}
			if successCount > 0 {
				fmt.Println()
			}
			successCount++
			printModels(result.provider, result.models)
		}

		// Display errors at the end
		errorCount := 0
		for _, result := range results {
			if result.err == nil {
				continue
			}
			if errorCount == 0 && successCount > 0 {
				fmt.Println()
			}
			errorCount++
			fmt.Fprintf(os.Stderr, "Warning: Skipping %s - %v\n", result.provider, result.err)
		}

		if successCount == 0 {
			return fmt.Errorf("no provider returned models")
		}
		return nil
	},
}

func printModels(provider string, models []legal.ModelInfo) {
	fmt.Printf("Available models for %s:\n\n", provider)

	// Calculate column widths
	maxModelWidth := 15
	for _, model := range models {
		if n := len(legal.FormatModelString(provider, model.ID)); n > maxModelWidth {
			maxModelWidth = n
		}
	}

	fmt.Printf("%-*s  %-7s  %s\n", maxModelWidth, "MODEL", "DEFAULT", "DESCRIPTION")
	fmt.Printf("%s  %s  %s\n", strings.Repeat("-", maxModelWidth), strings.Repeat("-", 7), strings.Repeat("-", 50))

	for _, model := range models {
		defaultMark := ""
		if model.IsDefault {
			defaultMark = "Yes"
		}
		fmt.Printf("%-*s  %-7s  %s\n", maxModelWidth, legal.FormatModelString(provider, model.ID), defaultMark, model.Description)
	}

	fmt.Printf("\nUse a model with: legalc chat --model <model> [message]\n")
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/longkey1/legalc/internal/legal/config"
	"github.com/longkey1/legalc/internal/legal/export"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config [field]",
	Short: "Display current configuration",
	Long: `Display the current configuration values.
This command shows all configuration values loaded from the config file and environment variables.
Tokens are masked.

If a field name is specified, only that field's value is displayed.
Available fields: configfile, ` + strings.Join(config.Keys, ", ") + `

Examples:
  legalc config                  # Show all configuration
  legalc config model            # Show only model
  legalc config gemini_token     # Show only Gemini token (masked)
  legalc config export_dir       # Show where results are saved`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(viper.GetViper())
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		exportDir, err := export.GetExportDir(viper.GetViper(), cfg.ExportDir)
		if err != nil {
			return err
		}

		values := map[string]string{
			"configfile":              viper.ConfigFileUsed(),
			"model":                   cfg.Model,
			"gemini_base_url":         cfg.GeminiBaseURL,
			"gemini_token":            config.MaskToken(cfg.GeminiToken),
			"openai_base_url":         cfg.OpenAIBaseURL,
			"openai_token":            config.MaskToken(cfg.OpenAIToken),
			"anthropic_base_url":      cfg.AnthropicBaseURL,
			"anthropic_token":         config.MaskToken(cfg.AnthropicToken),
			"ollama_base_url":         cfg.OllamaBaseURL,
			"ollama_token":            config.MaskToken(cfg.OllamaToken),
			"prompt_dirs":             strings.Join(cfg.PromptDirs, ","),
			"request_timeout_seconds": fmt.Sprint(cfg.RequestTimeoutSeconds),
			"requests_per_minute":     fmt.Sprint(cfg.RequestsPerMinute),
			"document_context_limit":  fmt.Sprint(cfg.DocumentContextLimit),
			"max_upload_mb":           fmt.Sprint(cfg.MaxUploadMB),
			"export_dir":              exportDir,
			"server_addr":             cfg.ServerAddr,
		}

		// If a field is specified, show only that field
		if len(args) > 0 {
			field := strings.ToLower(args[0])
			value, ok := values[field]
			if !ok {
				return fmt.Errorf("unknown field: %s\nAvailable fields: configfile, %s", args[0], strings.Join(config.Keys, ", "))
			}
			fmt.Println(value)
			return nil
		}

		fmt.Printf("%s: %s\n", "configfile", values["configfile"])
		for _, key := range config.Keys {
			fmt.Printf("%s: %s\n", key, values[key])
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}

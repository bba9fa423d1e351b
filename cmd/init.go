package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/longkey1/legalc/internal/legal/config"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the configuration file",
	Long: `Initialize the configuration file with default settings.
The config file will be created at $HOME/.config/legalc/config.toml by default.
You can specify a different location using the --config option.

Tokens are written as environment variable references ($GEMINI_API_KEY,
$OPENAI_API_KEY, $ANTHROPIC_API_KEY) and expanded when the file is loaded,
so the file itself never holds a credential.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configFile := filepath.Join(userConfigDir(), "config.toml")
		if cfgFile != "" {
			configFile = cfgFile
		}

		// Create config directory
		configDir := filepath.Dir(configFile)
		if err := os.MkdirAll(configDir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}

		// Check if config file already exists
		if _, err := os.Stat(configFile); err == nil {
			return fmt.Errorf("config file already exists at: %s", configFile)
		}

		promptsDir := filepath.Join(configDir, "prompts")
		exportsDir := filepath.Join(configDir, "exports")
		cfg := config.NewDefaultConfig(promptsDir, exportsDir)

		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
		defer f.Close()

		if err := toml.NewEncoder(f).Encode(cfg); err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}

		for _, dir := range []string{promptsDir, exportsDir} {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", dir, err)
			}
		}

		fmt.Printf("Configuration file created at: %s\n", configFile)
		fmt.Printf("Prompts directory created at: %s\n", promptsDir)
		fmt.Printf("Exports directory created at: %s\n", exportsDir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}

/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/longkey1/legalc/internal/legal"
	"github.com/longkey1/legalc/internal/legal/config"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "legalc",
	Short: "A legal assistant for the command line",
	Long: `legalc is a legal assistant backed by a language model.
It answers legal questions in a multi-turn chat, analyzes documents,
assesses their risks, drafts standard agreements and researches precedents.

Every command runs against the provider selected with the model setting
(gemini, openai, anthropic or ollama). You can configure the tool using a
TOML configuration file, and 'legalc serve' exposes the same features over HTTP.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/legalc/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// userConfigDir returns $HOME/.config/legalc
func userConfigDir() string {
	home, err := os.UserHomeDir()
	cobra.CheckErr(err)
	return filepath.Join(home, ".config", "legalc")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// Secrets may live in a local .env file; real environment variables win
	if err := godotenv.Load(); err == nil && verbose {
		fmt.Fprintln(os.Stderr, "Loaded environment from .env")
	}

	viper.SetEnvPrefix("LEGALC")
	viper.AutomaticEnv()

	userDir := userConfigDir()

	// Later directories in the array take precedence over earlier ones
	defaultPromptDirs := []string{
		"/usr/share/legalc/prompts",
		"/usr/local/share/legalc/prompts",
		filepath.Join(userDir, "prompts"),
	}
	defaultConfig := config.NewDefaultConfig(filepath.Join(userDir, "prompts"), "")
	defaultConfig.PromptDirs = defaultPromptDirs
	config.SetDefaults(viper.GetViper(), defaultConfig)

	for _, key := range config.Keys {
		viper.BindEnv(key, "LEGALC_"+strings.ToUpper(key))
	}

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
		}
	} else {
		// Load system-wide config first (lower priority)
		for _, path := range []string{"/etc/legalc", "/usr/local/etc/legalc"} {
			viper.AddConfigPath(path)
		}
		viper.SetConfigType("toml")
		viper.SetConfigName("config")

		systemConfigLoaded := false
		if err := viper.ReadInConfig(); err == nil {
			systemConfigLoaded = true
			if verbose {
				fmt.Fprintln(os.Stderr, "Loaded system-wide config:", viper.ConfigFileUsed())
			}
		}

		// Load user config (higher priority) - merge with system config
		viper.AddConfigPath(userDir)
		if systemConfigLoaded {
			if err := viper.MergeInConfig(); err != nil {
				if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
					fmt.Fprintf(os.Stderr, "Error merging user config file: %v\n", err)
				}
			} else if verbose {
				fmt.Fprintln(os.Stderr, "Merged user config:", viper.ConfigFileUsed())
			}
		} else if err := viper.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
			}
		}
	}

	if verbose {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		fmt.Fprintln(os.Stderr, "  LEGALC_MODEL:", viper.GetString("model"))
		fmt.Fprintln(os.Stderr, "  LEGALC_PROMPT_DIRS:", viper.GetStringSlice("prompt_dirs"))
		fmt.Fprintln(os.Stderr, "  LEGALC_EXPORT_DIR:", viper.GetString("export_dir"))
	}
}

// loadConfig returns the effective configuration, applying a --model flag
// when one was given.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(viper.GetViper())
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if f := cmd.Flags().Lookup("model"); f != nil && f.Changed {
		if _, _, err := legal.ParseModelString(f.Value.String()); err != nil {
			return nil, fmt.Errorf("invalid model from flag: %w", err)
		}
		cfg.Model = f.Value.String()
	}
	return cfg, nil
}

// newLogger builds the diagnostics logger. Logs go to stderr so command
// output stays pipeable.
func newLogger() (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}

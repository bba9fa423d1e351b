/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/longkey1/legalc/internal/version"
)

var shortVersion bool

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the legalc version",
	Long: `Print which legalc build is running: the release version, the commit it
was built from and when, plus the Go version and platform.

Include this output when reporting a problem with an answer or a provider.

Example:
  legalc version
  legalc version --short   # just the release, e.g. v0.3.0`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if shortVersion {
			fmt.Println(version.Short())
			return
		}
		fmt.Println(version.Info())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)

	versionCmd.Flags().BoolVarP(&shortVersion, "short", "s", false, "Print only the release version")
}

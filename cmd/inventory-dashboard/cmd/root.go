// Package cmd implements the CLI commands for the inventory dashboard server.
package cmd

import (
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "inventory-dashboard",
	Short: "Serve a Lightspeed POS inventory dashboard",
	Long: "An API-first service that loads the product catalog from a Lightspeed\n" +
		"R-Series or X-Series store, normalizes it into one inventory model, and\n" +
		"serves filtering, statistics, and credential management over HTTP.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(loadCmd())
	rootCmd.AddCommand(versionCommand())
}

// Root returns the root cobra command for documentation generation.
func Root() *cobra.Command {
	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

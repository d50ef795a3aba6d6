// Package main provides the brandos CLI: the HTTP API server plus terminal
// commands for brand analysis, AEO visibility checks and playbooks.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "brandos",
	Short: "BrandOS brand intelligence",
	Long: "BrandOS extracts a brand's DNA, personas and strategy from its website, " +
		"tracks its visibility in AI answer engines and drafts on-brand content.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output and debug logging")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

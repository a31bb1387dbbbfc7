// Package cmd implements the streamprefetch command-line interface.
package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "streamprefetch",
	Short: "Replay an address trace against the stream prefetcher engines.",
	Long: `streamprefetch replays an address trace file through the ` +
		`enhanced and transformer stream prefetcher engines, arbitrated ` +
		`by the set-dueling selector, and reports the resulting statistics.`,
}

// Execute loads any .env-based tuning overrides, then runs the CLI.
func Execute() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "streamprefetch: could not load .env: %v\n", err)
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "quotegate",
	Short: "Resilient market-data gateway",
	Long: `quotegate serves stock quotes from multiple upstream providers behind
a single API, with TTL/LRU caching, retry with exponential backoff,
region-aware provider routing with fallback, and rate-limit respecting
batch fetches.

B3-listed symbols (PETR4, VALE3) are routed to the BR-oriented primary
provider first; everything else goes to the global provider directly.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

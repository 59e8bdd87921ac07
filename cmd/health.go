package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	json "github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/quotegate/quotegate/pkg/config"
)

//nolint:gochecknoglobals // Cobra boilerplate
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Probe both upstream providers",
	Long: `Fetches one known-good BR symbol and one known-good US symbol through
the routing path and reports which providers answered. Exits non-zero
when neither provider is reachable.`,
	RunE: runHealth,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(healthCmd)
}

func runHealth(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := config.NewLogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	rtr, err := newRouter(cfg, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	br := rtr.GetQuote(ctx, "PETR4")
	us := rtr.GetQuote(ctx, "AAPL")

	report := map[string]any{
		"brapi":          br.Success && br.Source == rtr.PrimarySource(),
		"finnhub":        us.Success && us.Source == rtr.FallbackSource(),
		"primarySource":  rtr.PrimarySource(),
		"fallbackSource": rtr.FallbackSource(),
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	if !br.Success && !us.Success {
		return fmt.Errorf("no provider reachable")
	}

	return nil
}

package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/quotegate/quotegate/internal/classify"
	"github.com/quotegate/quotegate/internal/provider"
	"github.com/quotegate/quotegate/internal/quote"
	"github.com/quotegate/quotegate/internal/router"
	"github.com/quotegate/quotegate/pkg/config"
	"github.com/quotegate/quotegate/pkg/errlog"
	"github.com/quotegate/quotegate/pkg/retry"
)

//nolint:gochecknoglobals // Cobra boilerplate
var quoteCmd = &cobra.Command{
	Use:   "quote SYMBOL [SYMBOL...]",
	Short: "Fetch quotes for one or more symbols",
	Long: `Fetches quotes through the same routing and retry path the server
uses and prints them as JSON, one object per symbol. Useful for checking
provider credentials and symbol routing from the command line.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuote,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(quoteCmd)
	quoteCmd.Flags().Bool("classify-only", false, "Only print the symbol classification, no provider calls")
}

func runQuote(cmd *cobra.Command, args []string) error {
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

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	classifyOnly, _ := cmd.Flags().GetBool("classify-only")
	if classifyOnly {
		for _, arg := range args {
			if err := enc.Encode(classify.Classify(strings.ToUpper(arg))); err != nil {
				return fmt.Errorf("encode classification: %w", err)
			}
		}
		return nil
	}

	rtr, err := newRouter(cfg, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	for _, arg := range args {
		symbol := strings.ToUpper(arg)
		res := rtr.GetQuote(ctx, symbol)
		if !res.Success {
			fmt.Fprintf(os.Stderr, "%s: %v\n", symbol, res.Err)
			continue
		}
		if err := enc.Encode(res.Data); err != nil {
			return fmt.Errorf("encode quote: %w", err)
		}
	}

	return nil
}

// newRouter builds the provider routing stack for one-shot commands.
func newRouter(cfg *config.Config, logger *zap.Logger) (*router.Router, error) {
	executor := retry.New(retry.Config{
		Policy: retry.Policy{
			MaxRetries: cfg.RetryMaxRetries,
			BaseDelay:  cfg.RetryBaseDelay,
		},
		Logger:    logger.Named("retry"),
		Sink:      errlog.NewRing(),
		Retryable: quote.Retryable,
	})

	rtr, err := router.New(router.Config{
		Primary:   provider.NewBrapi(cfg.BrapiBaseURL, cfg.BrapiToken, logger.Named("brapi")),
		Secondary: provider.NewFinnhub(cfg.FinnhubBaseURL, cfg.FinnhubToken, logger.Named("finnhub")),
		Executor:  executor,
		Logger:    logger.Named("router"),
	})
	if err != nil {
		return nil, fmt.Errorf("create router: %w", err)
	}

	return rtr, nil
}

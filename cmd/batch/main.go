// Command batch replays a CSV of questions against the chat endpoint and
// writes the accumulated results after every question.
//
// Usage:
//
//	batch --endpoint http://127.0.0.1:5001/chat --input questions.csv --output batch_results.json
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"safety-insight/internal/batch"
	"safety-insight/internal/config"
	"safety-insight/internal/contextutil"
	"safety-insight/internal/logging"
)

func main() {
	logger, closer := logging.New(logging.Options{Level: slog.LevelInfo})
	defer func() {
		_ = closer.Close()
	}()
	slog.SetDefault(logger)

	if err := buildRootCmd().Execute(); err != nil {
		slog.Error("batch failed", "error", err)
		_ = closer.Close()
		os.Exit(1)
	}
}

// buildRootCmd creates the batch command. Flag defaults come from the
// BATCH_* environment variables.
func buildRootCmd() *cobra.Command {
	defaults, err := config.LoadBatch()
	if err != nil {
		slog.Warn("ignoring invalid batch environment", "error", err)
		defaults = config.DefaultBatchConfig()
	}

	runner := &batch.Runner{}
	cmd := &cobra.Command{
		Use:          "batch",
		Short:        "Send each question in a CSV file to the chat endpoint",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if runner.Delay < 0 || runner.Timeout < 0 {
				return fmt.Errorf("--delay and --timeout must not be negative")
			}
			runner.Client = &http.Client{}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			ctx = contextutil.WithLogger(ctx, slog.Default())

			results, err := runner.Run(ctx)
			if err != nil {
				return err
			}
			failed := 0
			for _, r := range results {
				if r.Error != "" {
					failed++
				}
			}
			slog.Info("results written", "output", runner.Output, "total", len(results), "failed", failed)
			return nil
		},
	}

	cmd.Flags().StringVar(&runner.Endpoint, "endpoint", defaults.Endpoint, "Chat endpoint URL")
	cmd.Flags().StringVar(&runner.Input, "input", defaults.Input, "CSV file with one question per row")
	cmd.Flags().StringVar(&runner.Output, "output", defaults.Output, "JSON results file, rewritten after every question")
	cmd.Flags().DurationVar(&runner.Delay, "delay", defaults.Delay, "Pause between requests")
	cmd.Flags().DurationVar(&runner.Timeout, "timeout", defaults.Timeout, "Timeout for each request")

	cmd.SetContext(context.Background())
	return cmd
}

package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DRSN-tech/catalog-recommender/internal/app"
	config "github.com/DRSN-tech/catalog-recommender/internal/cfg"
	"github.com/DRSN-tech/catalog-recommender/internal/usecase"
	"github.com/spf13/cobra"
)

const defaultBatchSize = 50

func NewReindexCmd() *cobra.Command {
	var batchSize int

	cmd := &cobra.Command{
		Use:   "reindex",
		Short: "Generate embeddings for products that have none",
		Long: `Walk the catalog in batches and generate document embeddings for products
stored without one. A batch with failures stops the run, the next run picks up the rest.`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return validateBatchSize(batchSize)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger()

			cfg, err := config.Load(log)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			application, err := app.NewApp(cfg, log)
			if err != nil {
				return fmt.Errorf("init app: %w", err)
			}
			defer func() {
				closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := application.Close(closeCtx); err != nil {
					log.Warnf("%v", err)
				}
			}()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			res, err := application.Reindex(ctx, batchSize)
			if res != nil {
				printReindexResult(cmd, res)
			}
			return err
		},
	}

	cmd.Flags().IntVarP(&batchSize, "batch-size", "b", defaultBatchSize, "products per batch (1-100)")

	return cmd
}

func validateBatchSize(n int) error {
	if n <= 0 || n > usecase.MaxLimit {
		return fmt.Errorf("batch-size must be between 1 and %d, got %d", usecase.MaxLimit, n)
	}
	return nil
}

func printReindexResult(cmd *cobra.Command, res *usecase.ReindexRes) {
	fmt.Fprintf(cmd.OutOrStdout(), "processed: %d\n", res.Processed)
	fmt.Fprintf(cmd.OutOrStdout(), "failed:    %d\n", res.Failed)
}

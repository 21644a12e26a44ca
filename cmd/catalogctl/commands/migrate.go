package commands

import (
	"fmt"

	config "github.com/DRSN-tech/catalog-recommender/internal/cfg"
	"github.com/DRSN-tech/catalog-recommender/pkg/postgres"
	"github.com/spf13/cobra"
)

func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Long:  `Apply pending migrations from MIGRATIONS_URL to the catalog database and exit.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger()

			cfg, err := config.Load(log)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			return postgres.RunMigrations(cfg.Db, log)
		},
	}
}

// Package commands содержит служебные команды каталога: миграции и дозаполнение эмбеддингов.
package commands

import (
	"github.com/DRSN-tech/catalog-recommender/pkg/logger"
	"github.com/spf13/cobra"
)

// NewRootCmd собирает дерево команд catalogctl.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "catalogctl",
		Short:         "Maintenance tool for the catalog recommender",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		NewMigrateCmd(),
		NewReindexCmd(),
		NewVersionCmd(),
	)

	return root
}

func Execute() error {
	return NewRootCmd().Execute()
}

func newLogger() logger.Logger {
	return logger.NewZerologLogger()
}

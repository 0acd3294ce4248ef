package cmd

import (
	"github.com/spf13/cobra"

	"github.com/jobradar/crawler/internal/store"
)

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database administration",
	}
	cmd.AddCommand(newDBInitCmd())
	return cmd
}

func newDBInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the crawler tables and indexes",
		Long:  "Applies the schema idempotently; existing tables are left untouched.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer flushLogger(logger)

			repo, err := store.New(cmd.Context(), cfg.DB.StoreConfig(), logger.Named("store"))
			if err != nil {
				return err
			}
			defer repo.Close()

			if err := repo.InitSchema(cmd.Context()); err != nil {
				return err
			}
			logger.Info("schema applied")
			return nil
		},
	}
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quillpress/blog-api/internal/infrastructure/config"
	pgstore "github.com/quillpress/blog-api/internal/infrastructure/db/postgres"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending Postgres migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, log, err := loadConfig(ctx)
			if err != nil {
				return err
			}
			if cfg.Store.Driver != config.DriverPostgres {
				return fmt.Errorf("migrate requires STORE_DRIVER=%s, got %q", config.DriverPostgres, cfg.Store.Driver)
			}

			db, err := openPostgres(ctx, cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := pgstore.Migrate(ctx, db); err != nil {
				return err
			}
			log.Info().Msg("migrations applied")
			return nil
		},
	}
}

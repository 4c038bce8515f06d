package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/somahq/soma/internal/observability/logger"
	"github.com/somahq/soma/internal/store"
	"github.com/somahq/soma/internal/store/adapters/pg"
	migrations "github.com/somahq/soma/migrations/postgres"
)

func newMigrateCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Aplica las migraciones embebidas (solo storage.driver=postgres)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.cfg.Storage.Driver != "postgres" {
				return fmt.Errorf("migrate: storage.driver is %q, nothing to migrate", c.cfg.Storage.Driver)
			}
			ctx := cmd.Context()

			m := store.NewManager(storeConfig(c))
			defer m.Close()
			ds, err := m.Store(ctx)
			if err != nil {
				return err
			}
			pgs, ok := ds.(*pg.Store)
			if !ok {
				return fmt.Errorf("migrate: unexpected store %T", ds)
			}

			res, err := pg.NewMigrator(migrations.FS, migrations.Dir).Run(ctx, pgs.Pool())
			if err != nil {
				return err
			}
			logger.L().Info("migrations done",
				logger.Int("applied", len(res.Applied)),
				logger.Int("skipped", len(res.Skipped)),
				logger.DurationMs(res.Duration),
			)
			return nil
		},
	}
}

func storeConfig(c *cli) store.Config {
	return store.Config{
		Driver:          c.cfg.Storage.Driver,
		DSN:             c.cfg.Storage.Postgres.DSN,
		MaxConns:        c.cfg.Storage.Postgres.MaxConns,
		MinConns:        c.cfg.Storage.Postgres.MinConns,
		ProjectID:       c.cfg.Storage.Firestore.ProjectID,
		CredentialsFile: c.cfg.Storage.Firestore.CredentialsFile,
	}
}

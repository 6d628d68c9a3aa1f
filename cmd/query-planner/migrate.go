// cmd/query-planner/migrate.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"query-planner/internal/audit"
	"query-planner/internal/common/database"
)

func migrateCmd(load configLoader) *cobra.Command {
	var (
		direction string
		steps     int
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run query log database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if !cfg.Database.Postgres.Enabled() {
				return fmt.Errorf("database.postgres.host is not set")
			}

			pg, err := database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			defer pg.Close()

			if err := audit.Migrate(pg.DB, direction, steps); err != nil {
				return fmt.Errorf("migrate %s: %w", direction, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrations applied (%s)\n", direction)
			return nil
		},
	}
	cmd.Flags().StringVar(&direction, "direction", "up", "up or down")
	cmd.Flags().IntVar(&steps, "steps", 0, "number of steps (0 = all)")
	return cmd
}

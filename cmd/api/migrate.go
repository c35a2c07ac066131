package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/njprem/web-starter-api/internal/repository/postgres"
)

func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
		Long:  `Apply, roll back or inspect the embedded PostgreSQL migrations.`,
	}

	var steps int
	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, func(m *postgres.Migrator) error {
				if steps > 0 {
					return m.Steps(steps)
				}
				return m.Up()
			})
		},
	}
	upCmd.Flags().IntVar(&steps, "steps", 0, "apply at most n migrations (0 applies all)")

	var all bool
	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back the last migration, or all with --all",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, func(m *postgres.Migrator) error {
				if all {
					return m.Down()
				}
				return m.Steps(-1)
			})
		},
	}
	downCmd.Flags().BoolVar(&all, "all", false, "roll back every migration; drops all data")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, func(m *postgres.Migrator) error {
				v, dirty, err := m.Version()
				if err != nil {
					return err
				}
				cmd.Printf("version %d (dirty: %t)\n", v, dirty)
				return nil
			})
		},
	}

	cmd.AddCommand(upCmd, downCmd, versionCmd)
	return cmd
}

func withMigrator(cmd *cobra.Command, fn func(m *postgres.Migrator) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	m, err := postgres.NewMigrator(cfg.DatabaseURL)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "open migrator").Wrap(err)
	}
	defer m.Close()

	if err := fn(m); err != nil {
		return err
	}
	cmd.Println("migrate: done")
	return nil
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cusspwk/cuss/pkg/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply or roll back the PostgreSQL schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := db.NewMigrator(cfg.Postgres.MigrateURL(), log)
		if err != nil {
			return err
		}
		defer m.Close()
		return m.Up()
	},
}

var migrateDownSteps int

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back migrations (one step by default, --steps 0 for all)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := db.NewMigrator(cfg.Postgres.MigrateURL(), log)
		if err != nil {
			return err
		}
		defer m.Close()
		return m.Down(migrateDownSteps)
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current schema version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := db.NewMigrator(cfg.Postgres.MigrateURL(), log)
		if err != nil {
			return err
		}
		defer m.Close()

		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		if dirty {
			fmt.Printf("%d (dirty)\n", version)
			return nil
		}
		fmt.Println(version)
		return nil
	},
}

func init() {
	migrateDownCmd.Flags().IntVar(&migrateDownSteps, "steps", 1, "number of migrations to roll back; 0 rolls back all")

	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
	migrateCmd.AddCommand(migrateVersionCmd)
}

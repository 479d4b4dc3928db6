package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cusspwk/cuss/internal/form"
	"github.com/cusspwk/cuss/internal/repository"
	"github.com/cusspwk/cuss/internal/service"
	"github.com/cusspwk/cuss/pkg/db"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert default data; existing rows are left alone",
}

var seedFormCmd = &cobra.Command{
	Use:   "form",
	Short: "Insert the default booking form fields",
	Long: `Insert the default booking form fields.

Fields whose name is already active are skipped. Running servers pick up
the new fields after the form cache expires.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		pool, err := db.NewPostgresPool(ctx, cfg.Postgres, log)
		if err != nil {
			return err
		}
		defer pool.Close()

		created, err := service.SeedFields(ctx, repository.NewFieldRepository(pool), form.DefaultFields())
		printCreated("fields", created)
		return err
	},
}

var seedServicesCmd = &cobra.Command{
	Use:   "services",
	Short: "Insert the default services shown on the site",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		pool, err := db.NewPostgresPool(ctx, cfg.Postgres, log)
		if err != nil {
			return err
		}
		defer pool.Close()

		created, err := service.SeedServices(ctx, repository.NewServiceRepository(pool), service.DefaultServices())
		printCreated("services", created)
		return err
	},
}

func printCreated(what string, names []string) {
	if len(names) == 0 {
		fmt.Printf("No new %s.\n", what)
		return
	}
	fmt.Printf("Created %d %s: %s\n", len(names), what, strings.Join(names, ", "))
}

func init() {
	seedCmd.AddCommand(seedFormCmd)
	seedCmd.AddCommand(seedServicesCmd)
}

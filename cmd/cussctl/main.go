// Command cussctl runs maintenance tasks against the booking backend's
// databases: schema migrations, admin accounts and seed data.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cusspwk/cuss/config"
	"github.com/cusspwk/cuss/pkg/logger"
)

var (
	cfg *config.Config
	log *zap.Logger

	verbose bool
)

var rootCmd = &cobra.Command{
	Use:           "cussctl <command>",
	Short:         "Maintenance CLI for the CUSS booking backend",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = c

		level := "info"
		if verbose {
			level = "debug"
		}
		log = logger.New(logger.Config{Level: level, Format: "console"})
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(adminCmd)
	rootCmd.AddCommand(seedCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

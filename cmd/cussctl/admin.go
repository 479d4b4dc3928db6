package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cusspwk/cuss/internal/auth"
	"github.com/cusspwk/cuss/internal/repository"
	"github.com/cusspwk/cuss/internal/service"
	"github.com/cusspwk/cuss/pkg/db"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage back-office accounts",
}

var (
	adminUsername string
	adminPassword string
)

var adminCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an admin account",
	Long: `Create an admin account.

The password is read from --password or, when omitted, from the
CUSS_ADMIN_PASSWORD environment variable.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		password := adminPassword
		if password == "" {
			password = os.Getenv("CUSS_ADMIN_PASSWORD")
		}
		if password == "" {
			return errors.New("a password is required (--password or CUSS_ADMIN_PASSWORD)")
		}

		ctx := context.Background()
		pool, err := db.NewPostgresPool(ctx, cfg.Postgres, log)
		if err != nil {
			return err
		}
		defer pool.Close()

		// Token settings are unused here; the service only hashes and stores.
		svc := service.NewAuthService(repository.NewAdminRepository(pool), auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Auth.Issuer))
		a, err := svc.CreateAdmin(ctx, adminUsername, password)
		if errors.Is(err, repository.ErrDuplicate) {
			return fmt.Errorf("admin %q already exists", adminUsername)
		}
		if err != nil {
			return err
		}
		log.Info("admin created", zap.String("id", a.ID), zap.String("username", a.Username))
		return nil
	},
}

func init() {
	adminCreateCmd.Flags().StringVar(&adminUsername, "username", "", "login name")
	adminCreateCmd.Flags().StringVar(&adminPassword, "password", "", "password (at least 8 characters)")
	_ = adminCreateCmd.MarkFlagRequired("username")

	adminCmd.AddCommand(adminCreateCmd)
}

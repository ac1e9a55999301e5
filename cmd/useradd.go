package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/okian/delhihouse/internal/adapters/auth"
	"github.com/okian/delhihouse/internal/adapters/repository"
	"github.com/okian/delhihouse/pkg/logger"
)

const passwordEnv = "DHC_ADMIN_PASSWORD"

var (
	userEmail    string
	userPassword string
)

var userAddCmd = &cobra.Command{
	Use:   "useradd",
	Short: "Create or reset an admin account",
	Long: `Stores an admin account in the SQLite database, replacing the password
of an existing account with the same e-mail.

The password is read from --password or, when omitted, from DHC_ADMIN_PASSWORD.

Example:
  DHC_ADMIN_PASSWORD=... delhihouse useradd --email owner@delhihouse.co.uk`,
	Args: cobra.NoArgs,
	RunE: runUserAdd,
}

func init() {
	userAddCmd.Flags().StringVar(&userEmail, "email", "", "admin e-mail address")
	userAddCmd.Flags().StringVar(&userPassword, "password", "", "admin password (at least 8 characters)")
	_ = userAddCmd.MarkFlagRequired("email")
}

func runUserAdd(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	password := userPassword
	if password == "" {
		password = os.Getenv(passwordEnv)
	}
	if password == "" {
		return errors.New("a password is required (--password or " + passwordEnv + ")")
	}
	if cfg.DBPath == repository.MemoryPath {
		return errors.New("useradd needs a file database; set db_path or --db")
	}

	store, err := repository.OpenSQLite(ctx, cfg.DBPath, repository.WithMkdirAll())
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Get().Error(ctx, "failed to close database", logger.Error(err))
		}
	}()

	if err := auth.CreateUser(ctx, store, userEmail, password); err != nil {
		return fmt.Errorf("failed to store user: %w", err)
	}
	logger.Get().Info(ctx, "admin account saved", logger.String("email", userEmail), logger.String("db", cfg.DBPath))
	return nil
}

package main

import (
	"context"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/wishlist-service/internal/config"
	"github.com/wishlist-service/internal/logging"
	"github.com/wishlist-service/internal/repository"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		RunE:  runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configFile, configRequired(cmd))
	if err != nil {
		return oops.Code("CONFIG_INVALID").With("operation", "load config").Wrap(err)
	}

	log, err := logging.New(cfg.Log)
	if err != nil {
		return oops.Code("CONFIG_INVALID").With("operation", "build logger").Wrap(err)
	}
	defer func() { _ = log.Sync() }()

	ctx := context.Background()
	db, err := repository.Open(ctx, cfg.Database, cfg.Server.Mode, log)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer func() { _ = sqlDB.Close() }()

	cmd.Println("Running migrations...")
	if err := repository.Migrate(db); err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
	}

	cmd.Println("Migrations completed successfully")
	return nil
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nurpe/contractor-ledger/internal/config"
	"github.com/nurpe/contractor-ledger/internal/db"
	"github.com/nurpe/contractor-ledger/internal/logger"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the bootstrap schema and exit",
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg.Environment)

	database, err := db.New(cfg, log)
	if err != nil {
		return err
	}
	sqlDB, err := database.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	return db.Migrate(database, log)
}

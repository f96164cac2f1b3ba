package main

import (
	"fmt"
	"log"

	accessinfra "public-audio-gateway/access/infra"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the accounts, assets and api_keys tables",
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("config error: %w", err)
		}

		db, err := accessinfra.OpenDB(cfg.Database.Driver, cfg.Database.DSN)
		if err != nil {
			return err
		}
		if sqlDB, err := db.DB(); err == nil {
			defer func() { _ = sqlDB.Close() }()
		}

		if err := accessinfra.Migrate(db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		log.Printf("migrations applied driver=%s", cfg.Database.Driver)
		return nil
	},
}

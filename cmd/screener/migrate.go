package main

import (
	"context"
	"fmt"

	"github.com/jonathan/interview-screener/internal/config"
	"github.com/jonathan/interview-screener/internal/db"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or upgrade the database schema",
	Long:  "Apply the candidate and answer schema to the configured store. Safe to run repeatedly.",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	store, err := db.Open(context.Background(), cfg.Store.Driver, cfg.Store.DSN)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	store.Close()

	fmt.Fprintf(cmd.OutOrStdout(), "Schema is up to date (%s)\n", driverName(cfg.Store.Driver))
	return nil
}

func driverName(driver string) string {
	if driver == "" {
		return db.DriverSQLite
	}
	return driver
}

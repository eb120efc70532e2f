package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zulandar/incidentdesk/internal/config"
	"github.com/zulandar/incidentdesk/internal/db"
)

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database management commands",
	}

	cmd.AddCommand(newDBInitCmd())
	return cmd
}

func newDBInitCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the incidentdesk database",
		Long:  "Creates the database if needed, migrates all tables and seeds the contact directory from the config file.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBInit(cmd, configPath)
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}

func runDBInit(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	fmt.Fprintf(out, "Loaded config from %s\n", configPath)

	if err := db.CreateDatabase(cfg.Database); err != nil {
		return err
	}

	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Connected to %s database %s\n", cfg.Database.Driver, databaseName(cfg.Database))

	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}
	fmt.Fprintf(out, "Migrated %d tables\n", len(db.AllModels()))

	if err := db.SeedContacts(gormDB, cfg.Contacts); err != nil {
		return err
	}
	fmt.Fprintf(out, "Seeded %d contacts\n", len(cfg.Contacts))
	return nil
}

func databaseName(cfg config.DatabaseConfig) string {
	if cfg.Driver == "mysql" {
		return fmt.Sprintf("%s@%s:%d", cfg.Name, cfg.Host, cfg.Port)
	}
	return cfg.Path
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zulandar/incidentdesk/internal/config"
	"github.com/zulandar/incidentdesk/internal/dashboard"
	"github.com/zulandar/incidentdesk/internal/db"
	"github.com/zulandar/incidentdesk/internal/dispatch"
	"github.com/zulandar/incidentdesk/internal/logging"
	"github.com/zulandar/incidentdesk/internal/store"
	"github.com/zulandar/incidentdesk/internal/taxonomy"
	"github.com/zulandar/incidentdesk/internal/verify"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// app is everything a command needs, wired from one config file.
type app struct {
	cfg       *config.Config
	db        *gorm.DB
	log       *zap.Logger
	stores    *store.Set
	taxonomy  *taxonomy.Taxonomy
	barangays *taxonomy.Barangays
	verify    *verify.Coordinator
	dispatch  *dispatch.Coordinator
	reporter  *dashboard.Reporter
}

func connectFromConfig(configPath string) (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	return cfg, gormDB, nil
}

func newApp(configPath string) (*app, error) {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	policy, err := verify.ParseCaptainPolicy(cfg.Verification.CaptainPolicy)
	if err != nil {
		return nil, err
	}
	stores, err := store.NewSet(gormDB)
	if err != nil {
		return nil, err
	}

	tax := taxonomy.Default()
	barangays := taxonomy.NewBarangays(cfg.Barangays)
	return &app{
		cfg:       cfg,
		db:        gormDB,
		log:       logger,
		stores:    stores,
		taxonomy:  tax,
		barangays: barangays,
		verify: verify.New(verify.Opts{
			Stores:   stores,
			Taxonomy: tax,
			Policy:   policy,
			Logger:   logger.Named("verify"),
		}),
		dispatch: dispatch.New(stores, logger.Named("dispatch")),
		reporter: dashboard.NewReporter(gormDB, tax, barangays),
	}, nil
}

func addConfigFlag(cmd *cobra.Command, configPath *string) {
	cmd.Flags().StringVarP(configPath, "config", "c", config.DefaultPath, "path to incidentdesk config file")
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/zulandar/incidentdesk/internal/api"
	"github.com/zulandar/incidentdesk/internal/reconcile"
	"go.uber.org/zap"
)

func newServeCmd() *cobra.Command {
	var (
		configPath    string
		port          int
		auditSchedule string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API",
		Long:  "Serves the incident records and verification workflow over HTTP until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath, port, auditSchedule)
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (overrides server.port)")
	cmd.Flags().StringVar(&auditSchedule, "audit-schedule", "", "cron expression for the orphan audit (overrides server.audit_schedule)")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string, port int, auditSchedule string) error {
	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	defer a.log.Sync()

	if port <= 0 {
		port = a.cfg.Server.Port
	}
	if auditSchedule == "" {
		auditSchedule = a.cfg.Server.AuditSchedule
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(cmd.OutOrStdout(), "\nReceived %s, shutting down...\n", sig)
		cancel()
	}()

	auditor := reconcile.NewAuditor(a.verify, a.log.Named("reconcile"))
	if auditSchedule != "" {
		if _, err := reconcile.ParseSchedule(auditSchedule); err != nil {
			return err
		}
		go func() {
			if err := auditor.Schedule(ctx, auditSchedule); err != nil {
				a.log.Error("audit schedule stopped", zap.Error(err))
			}
		}()
		a.log.Info("orphan audit scheduled", zap.String("schedule", auditSchedule))
	}

	return api.Start(ctx, api.StartOpts{
		Stores:       a.stores,
		Verify:       a.verify,
		Dispatch:     a.dispatch,
		Reporter:     a.reporter,
		Auditor:      auditor,
		Taxonomy:     a.taxonomy,
		Logger:       a.log.Named("api"),
		Port:         port,
		AllowOrigins: a.cfg.Server.AllowOrigins,
		Out:          cmd.OutOrStdout(),
	})
}

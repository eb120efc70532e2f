// Package reconcile audits the workflow tables for verification requests left
// behind by interrupted or racing writes. It reports; it never repairs.
package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/zulandar/incidentdesk/internal/metrics"
	"github.com/zulandar/incidentdesk/internal/verify"
	"go.uber.org/zap"
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month,
// dow) and descriptors such as @hourly, matching config validation.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// OrphanLister is the part of the verification coordinator the audit uses.
type OrphanLister interface {
	Orphans(ctx context.Context) ([]verify.Orphan, error)
}

// Auditor runs orphan audits.
type Auditor struct {
	source OrphanLister
	log    *zap.Logger
}

// NewAuditor returns an Auditor over source.
func NewAuditor(source OrphanLister, logger *zap.Logger) *Auditor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Auditor{source: source, log: logger}
}

// Run performs one audit, logs each orphan at warn level and publishes the
// count on the orphan gauge.
func (a *Auditor) Run(ctx context.Context) ([]verify.Orphan, error) {
	orphans, err := a.source.Orphans(ctx)
	if err != nil {
		return nil, fmt.Errorf("reconcile: audit: %w", err)
	}
	metrics.ReconciliationOrphans.Set(float64(len(orphans)))
	for _, o := range orphans {
		a.log.Warn("orphaned verification request",
			zap.String("request_id", o.Request.ID),
			zap.String("message_id", o.Request.MessageID),
			zap.String("message_status", string(o.MessageStatus)),
			zap.String("reason", o.Reason),
			zap.Time("created_at", o.Request.CreatedAt),
		)
	}
	a.log.Info("reconciliation audit complete", zap.Int("orphans", len(orphans)))
	return orphans, nil
}

// ParseSchedule validates a cron expression.
func ParseSchedule(expr string) (cron.Schedule, error) {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("reconcile: schedule %q: %w", expr, err)
	}
	return sched, nil
}

// Schedule runs the audit each time expr fires until ctx is cancelled.
func (a *Auditor) Schedule(ctx context.Context, expr string) error {
	sched, err := ParseSchedule(expr)
	if err != nil {
		return err
	}

	timer := time.NewTimer(time.Until(sched.Next(time.Now())))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
			if _, err := a.Run(ctx); err != nil {
				a.log.Error("reconciliation audit failed", zap.Error(err))
			}
			timer.Reset(time.Until(sched.Next(time.Now())))
		}
	}
}

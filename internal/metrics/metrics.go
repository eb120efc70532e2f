// Package metrics provides Prometheus metrics for incidentdesk.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WorkflowTransitions counts message status changes made by the coordinators.
	WorkflowTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "incidentdesk",
			Name:      "workflow_transitions_total",
			Help:      "Message status transitions by source and target status",
		},
		[]string{"from", "to"},
	)

	// Dispatches counts responder dispatch records created.
	Dispatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "incidentdesk",
			Name:      "dispatches_total",
			Help:      "Responder dispatches created by agency",
		},
		[]string{"agency"},
	)

	// ReconciliationErrors counts multi-step writes that stopped part way.
	ReconciliationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "incidentdesk",
			Name:      "reconciliation_errors_total",
			Help:      "Workflow operations that left records needing reconciliation",
		},
		[]string{"operation"},
	)

	// ReconciliationOrphans is the orphan count from the last audit run.
	ReconciliationOrphans = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "incidentdesk",
			Name:      "reconciliation_orphans",
			Help:      "Orphaned verification requests found by the last audit",
		},
	)

	// HTTPRequestDuration tracks REST request latency.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "incidentdesk",
			Name:      "http_request_duration_seconds",
			Help:      "Duration of REST requests in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "route", "status"},
	)
)

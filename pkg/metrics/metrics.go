// Package metrics provides Prometheus metrics for the sales assistant web shell.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GuardDecisionsTotal tracks route guard outcomes by final state and reason
	GuardDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sales_assistant",
			Subsystem: "guard",
			Name:      "decisions_total",
			Help:      "Total number of route guard decisions by state and reason",
		},
		[]string{"state", "reason"},
	)

	// GuardReloadsTotal tracks grace-period reloads of the identity record
	GuardReloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sales_assistant",
			Subsystem: "guard",
			Name:      "reloads_total",
			Help:      "Total number of grace-period session reloads by outcome",
		},
		[]string{"outcome"},
	)

	// CRMFetchesTotal tracks stored-highlight fetches
	CRMFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sales_assistant",
			Subsystem: "crm",
			Name:      "fetches_total",
			Help:      "Total number of stored highlight fetches by status",
		},
		[]string{"status"},
	)

	// CRMPersistsTotal tracks highlight and sentiment writes
	CRMPersistsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sales_assistant",
			Subsystem: "crm",
			Name:      "persists_total",
			Help:      "Total number of CRM writes by kind and status",
		},
		[]string{"kind", "status"},
	)

	// CRMReconcilersActive tracks open reconcilers
	CRMReconcilersActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "sales_assistant",
			Subsystem: "crm",
			Name:      "reconcilers_active",
			Help:      "Number of open CRM reconcilers",
		},
	)

	// AuthAttemptsTotal tracks sign-in and sign-up attempts
	AuthAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sales_assistant",
			Subsystem: "auth",
			Name:      "attempts_total",
			Help:      "Total number of authentication attempts by method and outcome",
		},
		[]string{"method", "outcome"},
	)

	// ProfileUpdatesTotal tracks profile writes by the store that accepted them
	ProfileUpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sales_assistant",
			Subsystem: "profile",
			Name:      "updates_total",
			Help:      "Total number of profile updates by target store and status",
		},
		[]string{"target", "status"},
	)

	// SessionStreamsActive tracks open auth-state event streams
	SessionStreamsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "sales_assistant",
			Subsystem: "session",
			Name:      "streams_active",
			Help:      "Number of open auth-state event streams",
		},
	)
)

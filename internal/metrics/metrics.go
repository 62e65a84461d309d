// Package metrics declares the Prometheus collectors of the dashboard.
// All collectors register with the default registry on package init.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "dashboard"

// SessionGateOutcomes counts session gate decisions.
// Label outcome: pass_through, redirect_sign_in, redirect_dashboard.
var SessionGateOutcomes = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_gate_outcomes_total",
		Help:      "Session gate decisions by outcome.",
	},
	[]string{"outcome"},
)

// SessionLookupFailures counts session lookups that failed and were treated as absent.
var SessionLookupFailures = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_lookup_failures_total",
		Help:      "Session lookups that failed and were treated as no session.",
	},
)

// RoleGateDecisions counts role gate results.
// Label state: authorized, denied, failed, loading (abandoned).
var RoleGateDecisions = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "role_gate_decisions_total",
		Help:      "Role gate decisions by resolved state.",
	},
	[]string{"state"},
)

// OperationRuns counts administrative operation runs.
var OperationRuns = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "operation_runs_total",
		Help:      "Administrative operation runs by kind and final status.",
	},
	[]string{"kind", "status"},
)

// HTTPRequestDuration measures request latency per route.
var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by method, route and status.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "route", "status"},
)

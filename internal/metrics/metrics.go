// Package metrics exposes the Prometheus instrumentation of the triage
// workflow.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RunsTotal counts completed triage runs by final status.
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kairos",
		Name:      "triage_runs_total",
		Help:      "Completed triage runs by final status.",
	}, []string{"status"})

	// TransitionsTotal counts workflow node transitions by node.
	TransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kairos",
		Name:      "workflow_transitions_total",
		Help:      "Workflow node transitions by node.",
	}, []string{"node"})

	// AgentExecutionsTotal counts agent node executions by agent and outcome.
	AgentExecutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kairos",
		Name:      "agent_executions_total",
		Help:      "Agent node executions by agent and outcome.",
	}, []string{"agent", "outcome"})

	// RunDuration observes end-to-end triage run duration.
	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "kairos",
		Name:      "triage_run_duration_seconds",
		Help:      "End-to-end triage run duration.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
	})
)

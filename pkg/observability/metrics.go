package observability

import (
	"context"
	"strconv"

	"github.com/aretw0/autopilot/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the engine collectors.
type Metrics struct {
	NodeExecutions    *prometheus.CounterVec
	ConditionOutcomes *prometheus.CounterVec
	GuardDeferrals    *prometheus.CounterVec
	Failures          *prometheus.CounterVec
	Running           prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		NodeExecutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "autopilot_node_executions_total",
				Help: "Total number of node bodies executed",
			},
			[]string{"task", "kind"},
		),
		ConditionOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "autopilot_condition_outcomes_total",
				Help: "Logic node results",
			},
			[]string{"task", "node", "result"},
		),
		GuardDeferrals: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "autopilot_guard_deferrals_total",
				Help: "Node starts deferred because the user was active",
			},
			[]string{"task"},
		),
		Failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "autopilot_failures_total",
				Help: "Failures caught while running a task",
			},
			[]string{"task", "kind"},
		),
		Running: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "autopilot_running",
			Help: "1 while a task is running",
		}),
	}
	reg.MustRegister(m.NodeExecutions, m.ConditionOutcomes, m.GuardDeferrals, m.Failures, m.Running)
	return m
}

// Hooks returns lifecycle hooks that record into the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTaskStart: func(context.Context, domain.EventBase) {
			m.Running.Set(1)
		},
		OnTaskStop: func(context.Context, domain.EventBase) {
			m.Running.Set(0)
		},
		OnNodeLeave: func(_ context.Context, e *domain.NodeEvent) {
			m.NodeExecutions.WithLabelValues(e.Task, string(e.Kind)).Inc()
			if e.Result != nil {
				m.ConditionOutcomes.WithLabelValues(e.Task, e.Node, strconv.FormatBool(*e.Result)).Inc()
			}
		},
		OnDeferred: func(_ context.Context, e *domain.NodeEvent) {
			m.GuardDeferrals.WithLabelValues(e.Task).Inc()
		},
		OnReport: func(_ context.Context, r *domain.Report) {
			m.Failures.WithLabelValues(r.Task, string(r.Kind)).Inc()
		},
	}
}

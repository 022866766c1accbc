package observability_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/aretw0/autopilot/pkg/domain"
	"github.com/aretw0/autopilot/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func value(t *testing.T, c prometheus.Collector) float64 {
	t.Helper()
	ch := make(chan prometheus.Metric, 1)
	c.Collect(ch)
	var pb dto.Metric
	require.NoError(t, (<-ch).Write(&pb))
	if pb.Counter != nil {
		return pb.Counter.GetValue()
	}
	return pb.Gauge.GetValue()
}

func TestMetrics_Hooks(t *testing.T) {
	m := observability.NewMetrics(prometheus.NewRegistry())
	hooks := m.Hooks()
	ctx := context.Background()
	yes := true

	hooks.OnTaskStart(ctx, domain.EventBase{Task: "t"})
	assert.Equal(t, 1.0, value(t, m.Running))

	hooks.OnNodeLeave(ctx, &domain.NodeEvent{EventBase: domain.EventBase{Task: "t"}, Node: "a", Kind: domain.KindAction})
	hooks.OnNodeLeave(ctx, &domain.NodeEvent{EventBase: domain.EventBase{Task: "t"}, Node: "c", Kind: domain.KindLogic, Result: &yes})
	hooks.OnDeferred(ctx, &domain.NodeEvent{EventBase: domain.EventBase{Task: "t"}, Node: "a"})
	hooks.OnReport(ctx, &domain.Report{Task: "t", Kind: domain.ReportCaptureFailure})

	assert.Equal(t, 1.0, value(t, m.NodeExecutions.WithLabelValues("t", "action")))
	assert.Equal(t, 1.0, value(t, m.NodeExecutions.WithLabelValues("t", "logic")))
	assert.Equal(t, 1.0, value(t, m.ConditionOutcomes.WithLabelValues("t", "c", "true")))
	assert.Equal(t, 1.0, value(t, m.GuardDeferrals.WithLabelValues("t")))
	assert.Equal(t, 1.0, value(t, m.Failures.WithLabelValues("t", "capture_failure")))

	hooks.OnTaskStop(ctx, domain.EventBase{Task: "t"})
	assert.Equal(t, 0.0, value(t, m.Running))
}

func TestReportLog_Ring(t *testing.T) {
	log := observability.NewReportLog(3)
	ctx := context.Background()
	assert.Empty(t, log.Recent())

	for i := range 5 {
		log.Report(ctx, domain.Report{Node: fmt.Sprint(i)})
	}

	var nodes []string
	for _, r := range log.Recent() {
		nodes = append(nodes, r.Node)
	}
	assert.Equal(t, []string{"2", "3", "4"}, nodes)
}

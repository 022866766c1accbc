package domain

import (
	"context"
	"time"
)

// EventType defines the category of an engine event.
type EventType string

const (
	EventTaskStart EventType = "task_start"
	EventTaskStop  EventType = "task_stop"
	EventNodeEnter EventType = "node_enter"
	EventNodeLeave EventType = "node_leave"
	EventDeferred  EventType = "node_deferred"
	EventScheduled EventType = "node_scheduled"
	EventOverlay   EventType = "overlay"
	EventReport    EventType = "report"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Task      string    `json:"task"`
	RunID     string    `json:"run_id,omitempty"`
}

// NodeEvent represents a node entering or leaving execution, or being deferred/scheduled.
type NodeEvent struct {
	EventBase
	Node string `json:"node"`
	Kind Kind   `json:"kind,omitempty"`
	// Result is set on leave for Logic nodes.
	Result *bool `json:"result,omitempty"`
	// Target and Delay are set on scheduling events.
	Target string        `json:"target,omitempty"`
	Delay  time.Duration `json:"delay,omitempty"`
}

// ReportKind classifies failures surfaced to the operator.
type ReportKind string

const (
	ReportCaptureFailure ReportKind = "capture_failure"
	ReportEngineFailure  ReportKind = "engine_failure"
)

// Report is an operator-visible record of a failure caught during a run.
type Report struct {
	Time    time.Time  `json:"time"`
	Task    string     `json:"task"`
	RunID   string     `json:"run_id,omitempty"`
	Node    string     `json:"node"`
	Kind    ReportKind `json:"kind"`
	Message string     `json:"message"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnTaskStart func(context.Context, EventBase)
	OnTaskStop  func(context.Context, EventBase)
	OnNodeEnter func(context.Context, *NodeEvent)
	OnNodeLeave func(context.Context, *NodeEvent)
	OnDeferred  func(context.Context, *NodeEvent)
	OnScheduled func(context.Context, *NodeEvent)
	OnReport    func(context.Context, *Report)
}

// Merge returns hooks that call h first and then other for every callback.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnTaskStart: chainBase(h.OnTaskStart, other.OnTaskStart),
		OnTaskStop:  chainBase(h.OnTaskStop, other.OnTaskStop),
		OnNodeEnter: chainNode(h.OnNodeEnter, other.OnNodeEnter),
		OnNodeLeave: chainNode(h.OnNodeLeave, other.OnNodeLeave),
		OnDeferred:  chainNode(h.OnDeferred, other.OnDeferred),
		OnScheduled: chainNode(h.OnScheduled, other.OnScheduled),
		OnReport: func(ctx context.Context, r *Report) {
			if h.OnReport != nil {
				h.OnReport(ctx, r)
			}
			if other.OnReport != nil {
				other.OnReport(ctx, r)
			}
		},
	}
}

func chainBase(a, b func(context.Context, EventBase)) func(context.Context, EventBase) {
	return func(ctx context.Context, e EventBase) {
		if a != nil {
			a(ctx, e)
		}
		if b != nil {
			b(ctx, e)
		}
	}
}

func chainNode(a, b func(context.Context, *NodeEvent)) func(context.Context, *NodeEvent) {
	return func(ctx context.Context, e *NodeEvent) {
		if a != nil {
			a(ctx, e)
		}
		if b != nil {
			b(ctx, e)
		}
	}
}
